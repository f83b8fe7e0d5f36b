package bank

import (
	"strconv"
	"time"
)

// Bank is the persisted bank record. JSON names follow the REST contract.
type Bank struct {
	ID        int64     `json:"bankId,omitempty" form:"-"`
	Name      string    `json:"bankName" form:"name" validate:"min=1,max=255"`
	Year      time.Time `json:"bankYear" form:"establishedYear" validate:"past"`
	Address   string    `json:"bankAddress" form:"address" validate:"min=20,max=255"`
	ATMs      int64     `json:"bankAtms" form:"atmCount" validate:"min=1,max=9007199254740991"`
	Branches  int64     `json:"bankBranches" form:"branchCount" validate:"min=1,max=9007199254740991"`
	Employees int64     `json:"bankEmployees" form:"employeeCount" validate:"min=1,max=9007199254740991"`
	CreatedAt time.Time `json:"createdAt,omitzero" form:"-"`
	UpdatedAt time.Time `json:"modifiedAt,omitzero" form:"-"`
}

// Persisted reports whether the server has assigned an id.
func (b Bank) Persisted() bool {
	return b.ID > 0
}

// Mutable returns a copy stripped of server-owned fields.
func (b Bank) Mutable() Bank {
	return Bank{
		Name:      b.Name,
		Year:      b.Year,
		Address:   b.Address,
		ATMs:      b.ATMs,
		Branches:  b.Branches,
		Employees: b.Employees,
	}
}

// Patch is a partial update body. Nil fields are left untouched by the server.
type Patch struct {
	Name      *string    `json:"bankName,omitempty"`
	Year      *time.Time `json:"bankYear,omitempty"`
	Address   *string    `json:"bankAddress,omitempty"`
	ATMs      *int64     `json:"bankAtms,omitempty"`
	Branches  *int64     `json:"bankBranches,omitempty"`
	Employees *int64     `json:"bankEmployees,omitempty"`
}

// PatchFrom builds a patch carrying every mutable field of b.
func PatchFrom(b Bank) Patch {
	return Patch{
		Name:      &b.Name,
		Year:      &b.Year,
		Address:   &b.Address,
		ATMs:      &b.ATMs,
		Branches:  &b.Branches,
		Employees: &b.Employees,
	}
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Year == nil && p.Address == nil &&
		p.ATMs == nil && p.Branches == nil && p.Employees == nil
}

// Apply merges the provided fields onto target and returns the result.
func (p Patch) Apply(target Bank) Bank {
	if p.Name != nil {
		target.Name = *p.Name
	}
	if p.Year != nil {
		target.Year = *p.Year
	}
	if p.Address != nil {
		target.Address = *p.Address
	}
	if p.ATMs != nil {
		target.ATMs = *p.ATMs
	}
	if p.Branches != nil {
		target.Branches = *p.Branches
	}
	if p.Employees != nil {
		target.Employees = *p.Employees
	}
	return target
}

// Draft holds raw form input. The zero value is the default, empty draft.
type Draft struct {
	Name            string
	EstablishedYear string
	Address         string
	ATMCount        string
	BranchCount     string
	EmployeeCount   string
}

// Value returns the raw input for a form field name.
func (d Draft) Value(field string) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldEstablishedYear:
		return d.EstablishedYear
	case FieldAddress:
		return d.Address
	case FieldATMCount:
		return d.ATMCount
	case FieldBranchCount:
		return d.BranchCount
	case FieldEmployeeCount:
		return d.EmployeeCount
	}
	return ""
}

// DraftFrom pre-populates a draft with the current values of b.
func DraftFrom(b Bank) Draft {
	var year string
	if !b.Year.IsZero() {
		year = b.Year.Format(DateLayout)
	}
	return Draft{
		Name:            b.Name,
		EstablishedYear: year,
		Address:         b.Address,
		ATMCount:        strconv.FormatInt(b.ATMs, 10),
		BranchCount:     strconv.FormatInt(b.Branches, 10),
		EmployeeCount:   strconv.FormatInt(b.Employees, 10),
	}
}

// Form is the transient state of one form: the draft and its field errors.
type Form struct {
	Draft  Draft
	Errors FieldErrors
}

// Reset restores the default draft and clears errors.
func (f *Form) Reset() {
	f.Draft = Draft{}
	f.Errors = nil
}

// Error returns the message attached to field, if any.
func (f Form) Error(field string) string {
	return f.Errors.For(field)
}

// Clone returns a copy that shares no slices with f.
func (f Form) Clone() Form {
	out := Form{Draft: f.Draft}
	if len(f.Errors) > 0 {
		out.Errors = append(FieldErrors(nil), f.Errors...)
	}
	return out
}
