package bank

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the layout used for the established year in forms.
const DateLayout = "2006-01-02"

// MaxSafeInteger is the largest count accepted by the schema (2^53-1).
const MaxSafeInteger int64 = 1<<53 - 1

// Field names, in schema order.
const (
	FieldName            = "name"
	FieldEstablishedYear = "establishedYear"
	FieldAddress         = "address"
	FieldATMCount        = "atmCount"
	FieldBranchCount     = "branchCount"
	FieldEmployeeCount   = "employeeCount"
)

var fieldOrder = map[string]int{
	FieldName:            0,
	FieldEstablishedYear: 1,
	FieldAddress:         2,
	FieldATMCount:        3,
	FieldBranchCount:     4,
	FieldEmployeeCount:   5,
}

const (
	msgName         = "Bank name must be between 1 and 255 characters."
	msgYearPast     = "Provided bank year must be in the past."
	msgYearRequired = "Bank year is a required field."
	msgYearInvalid  = "Provided bank year is not a valid date."
	msgAddress      = "Bank address must be more than 20 and less than 255 characters."
	msgATMs         = "Banks must have at least one ATM."
	msgBranches     = "Banks must have at least one branch."
	msgEmployees    = "Banks must have at least one employee."
	msgMaxSafe      = "Banks cannot exceed the maximum safe integer threshold."
)

var countLabels = map[string]string{
	FieldATMCount:      "ATM count",
	FieldBranchCount:   "Branch count",
	FieldEmployeeCount: "Employee count",
}

// FieldError is a single field-scoped validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is an ordered list of validation failures.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "bank: validation failed: " + strings.Join(parts, "; ")
}

// For returns the first message recorded for field.
func (e FieldErrors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Map flattens the errors into field -> message.
func (e FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

func (e FieldErrors) sort() {
	sort.SliceStable(e, func(i, j int) bool {
		return rank(e[i].Field) < rank(e[j].Field)
	})
}

func rank(field string) int {
	if r, ok := fieldOrder[field]; ok {
		return r
	}
	return len(fieldOrder)
}

// Validator applies the bank schema. It is stateless apart from its clock and
// safe for concurrent use, so one instance serves every form.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the source of "now" used by the past-date rule.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator constructs a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	v.validate = validator.New()
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("form")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.validate.RegisterValidation("past", v.past)
	return v
}

// Validate coerces the raw draft and applies the schema. On success it returns
// a record without id or timestamps; otherwise a non-empty ordered error list.
func (v *Validator) Validate(d Draft) (Bank, FieldErrors) {
	var errs FieldErrors
	b := Bank{Name: d.Name, Address: d.Address}

	year, err := parseDate(d.EstablishedYear)
	if err != nil {
		errs = append(errs, FieldError{Field: FieldEstablishedYear, Message: msgYearInvalid})
	} else {
		b.Year = year
	}
	b.ATMs, errs = parseCount(d.ATMCount, FieldATMCount, errs)
	b.Branches, errs = parseCount(d.BranchCount, FieldBranchCount, errs)
	b.Employees, errs = parseCount(d.EmployeeCount, FieldEmployeeCount, errs)

	for _, fe := range v.ValidateRecord(b) {
		if errs.For(fe.Field) == "" {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		errs.sort()
		return Bank{}, errs
	}
	return b, nil
}

// ValidateRecord applies the schema to an already typed record.
func (v *Validator) ValidateRecord(b Bank) FieldErrors {
	err := v.validate.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "", Message: err.Error()}}
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		if out.For(fe.Field()) != "" {
			continue
		}
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	out.sort()
	return out
}

func (v *Validator) past(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && !t.IsZero() && t.Before(v.now())
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldName:
		return msgName
	case FieldEstablishedYear:
		if t, ok := fe.Value().(time.Time); ok && t.IsZero() {
			return msgYearRequired
		}
		return msgYearPast
	case FieldAddress:
		return msgAddress
	case FieldATMCount, FieldBranchCount, FieldEmployeeCount:
		if fe.Tag() == "max" {
			return msgMaxSafe
		}
		switch fe.Field() {
		case FieldATMCount:
			return msgATMs
		case FieldBranchCount:
			return msgBranches
		default:
			return msgEmployees
		}
	}
	return fe.Error()
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// parseCount coerces a count the way a number input does: blank is zero.
func parseCount(raw, field string, errs FieldErrors) (int64, FieldErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errs
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return 0, append(errs, FieldError{Field: field, Message: msgMaxSafe})
		}
		return 0, append(errs, FieldError{Field: field, Message: countLabels[field] + " must be a whole number."})
	}
	return n, errs
}
