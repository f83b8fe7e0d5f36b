package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/shared"
	"github.com/bankdash/bankdash/internal/view"
)

const (
	listPath    = "/banks"
	confirmPath = "/banks/delete"
)

// Handler renders the dashboard and turns form posts into controller intents.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, registry: registry, templates: templates, csrf: csrf}
}

// MountRoutes registers the dashboard routes, typically under /banks.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDashboard)
	r.Post("/", h.submitCreate)
	r.Post("/update", h.submitUpdate)
	r.Get("/delete", h.showDeleteConfirm)
	r.Post("/delete", h.confirmDelete)
	r.Post("/{id}/edit", h.selectForUpdate)
	r.Post("/{id}/select-delete", h.selectForDelete)
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		if v, valid := ParseView(tab); valid {
			ctrl.Navigate(v)
		}
	}
	h.renderDashboard(w, r, ctrl.Snapshot(), http.StatusOK)
}

func (h *Handler) submitCreate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	draft, err := parseDraft(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := ctrl.SubmitCreate(r.Context(), draft); IsValidation(err) {
		h.renderDashboard(w, r, ctrl.Snapshot(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *Handler) selectForUpdate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	b, found := h.lookup(w, r, ctrl)
	if !found {
		return
	}
	ctrl.SelectForUpdate(b)
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *Handler) submitUpdate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	draft, err := parseDraft(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := ctrl.SubmitUpdate(r.Context(), draft); IsValidation(err) {
		h.renderDashboard(w, r, ctrl.Snapshot(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *Handler) selectForDelete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	b, found := h.lookup(w, r, ctrl)
	if !found {
		return
	}
	ctrl.SelectForDelete(b)
	http.Redirect(w, r, confirmPath, http.StatusSeeOther)
}

func (h *Handler) showDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	state := ctrl.Snapshot()
	if state.Selected == nil {
		http.Redirect(w, r, listPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/bank_delete.html", func(string) map[string]any {
		return map[string]any{"Bank": state.Selected}
	}, http.StatusOK)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := ctrl.ConfirmDelete(r.Context()); err != nil {
		http.Redirect(w, r, confirmPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

// controller resolves the session's controller, answering 500 when the
// request carries no session.
func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*Controller, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		h.logger.Error("dashboard request without session", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return h.registry.Get(r.Context(), sess.ID), true
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, ctrl *Controller) (bank.Bank, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid bank ID", http.StatusBadRequest)
		return bank.Bank{}, false
	}
	b, found := ctrl.Entity(id)
	if !found {
		h.redirectWithFlash(w, r, listPath, string(SeverityError), fmt.Sprintf("Bank with the provided id %d is not found.", id))
		return bank.Bank{}, false
	}
	return b, true
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, state State, status int) {
	h.render(w, r, "pages/banks.html", func(csrfToken string) map[string]any {
		return dashboardData(state, csrfToken)
	}, status)
}

func dashboardData(state State, csrfToken string) map[string]any {
	return map[string]any{
		"State": state,
		"Tabs":  []View{ViewList, ViewCreate, ViewUpdate},
		"CreateForm": formView{
			ID:        "create",
			Action:    listPath,
			Submit:    "Create bank",
			CSRFToken: csrfToken,
			Form:      state.CreateForm,
			Fields:    formFields,
		},
		"UpdateForm": formView{
			ID:        "update",
			Action:    listPath + "/update",
			Submit:    "Update bank",
			CSRFToken: csrfToken,
			Form:      state.UpdateForm,
			Fields:    formFields,
			Disabled:  state.Selected == nil,
		},
	}
}

// render issues the CSRF token once and hands it to data for any forms.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data func(csrfToken string) map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err), slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var flashes []shared.FlashMessage
	if sess != nil {
		flashes = sess.PopFlashes()
	}
	viewData := view.TemplateData{
		Title:       "Bank Dashboard",
		CSRFToken:   csrfToken,
		Flashes:     flashes,
		CurrentPath: r.URL.Path,
		Data:        data(csrfToken),
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// formField describes one input of the bank form.
type formField struct {
	Name  string
	Label string
	Type  string
}

// formView feeds the bank form partial.
type formView struct {
	ID        string
	Action    string
	Submit    string
	CSRFToken string
	Form      bank.Form
	Fields    []formField
	Disabled  bool
}

var formFields = []formField{
	{Name: bank.FieldName, Label: "Bank name", Type: "text"},
	{Name: bank.FieldEstablishedYear, Label: "Established", Type: "date"},
	{Name: bank.FieldAddress, Label: "Address", Type: "text"},
	{Name: bank.FieldATMCount, Label: "ATMs", Type: "number"},
	{Name: bank.FieldBranchCount, Label: "Branches", Type: "number"},
	{Name: bank.FieldEmployeeCount, Label: "Employees", Type: "number"},
}

var errBadForm = errors.New("dashboard: malformed form body")

func parseDraft(r *http.Request) (bank.Draft, error) {
	if err := r.ParseForm(); err != nil {
		return bank.Draft{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	return bank.Draft{
		Name:            r.PostFormValue(bank.FieldName),
		EstablishedYear: r.PostFormValue(bank.FieldEstablishedYear),
		Address:         r.PostFormValue(bank.FieldAddress),
		ATMCount:        r.PostFormValue(bank.FieldATMCount),
		BranchCount:     r.PostFormValue(bank.FieldBranchCount),
		EmployeeCount:   r.PostFormValue(bank.FieldEmployeeCount),
	}, nil
}
