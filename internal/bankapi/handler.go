package bankapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/platform/httpx"
)

const maxBodyBytes = 1 << 20

// Handler exposes the bank REST API.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the bank endpoints. Ids and names are query parameters.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/find/all", h.listAll)
	r.Get("/find/id", h.findByID)
	r.Get("/find/name", h.findByName)
	r.Post("/add", h.create)
	r.Put("/find/update/name", h.replaceByName)
	r.Patch("/find/update/id", h.replaceByID)
	r.Patch("/find/patch/name", h.patchByName)
	r.Patch("/find/patch/id", h.patchByID)
	r.Delete("/find/delete/name", h.deleteByName)
	r.Delete("/find/delete/id", h.deleteByID)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Success(w, banks)
}

func (h *Handler) findByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bankID(w, r)
	if !ok {
		return
	}
	b, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Success(w, b)
}

func (h *Handler) findByName(w http.ResponseWriter, r *http.Request) {
	name, ok := h.bankName(w, r)
	if !ok {
		return
	}
	b, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Success(w, b)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in bank.Bank
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Success(w, created)
}

func (h *Handler) replaceByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bankID(w, r)
	if !ok {
		return
	}
	var in bank.Bank
	if !h.decode(w, r, &in) {
		return
	}
	h.ack(w, r, h.service.ReplaceByID(r.Context(), id, in))
}

func (h *Handler) replaceByName(w http.ResponseWriter, r *http.Request) {
	name, ok := h.bankName(w, r)
	if !ok {
		return
	}
	var in bank.Bank
	if !h.decode(w, r, &in) {
		return
	}
	h.ack(w, r, h.service.ReplaceByName(r.Context(), name, in))
}

func (h *Handler) patchByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bankID(w, r)
	if !ok {
		return
	}
	var p bank.Patch
	if !h.decode(w, r, &p) {
		return
	}
	h.ack(w, r, h.service.PatchByID(r.Context(), id, p))
}

func (h *Handler) patchByName(w http.ResponseWriter, r *http.Request) {
	name, ok := h.bankName(w, r)
	if !ok {
		return
	}
	var p bank.Patch
	if !h.decode(w, r, &p) {
		return
	}
	h.ack(w, r, h.service.PatchByName(r.Context(), name, p))
}

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bankID(w, r)
	if !ok {
		return
	}
	h.ack(w, r, h.service.DeleteByID(r.Context(), id))
}

func (h *Handler) deleteByName(w http.ResponseWriter, r *http.Request) {
	name, ok := h.bankName(w, r)
	if !ok {
		return
	}
	h.ack(w, r, h.service.DeleteByName(r.Context(), name))
}

func (h *Handler) ack(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Success(w, true)
}

func (h *Handler) bankID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("bankId")), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, &BadRequestError{Message: msgMissingID})
		return 0, false
	}
	return id, true
}

func (h *Handler) bankName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.URL.Query().Get("bankName")
	if strings.TrimSpace(name) == "" {
		h.fail(w, r, &BadRequestError{Message: msgMissingName})
		return "", false
	}
	return name, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httpx.DecodeJSON(r, target); err != nil {
		h.logger.Debug("bank api: decode body", slog.Any("error", err))
		h.fail(w, r, &BadRequestError{Message: msgMalformedBody})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrBadRequest) {
		h.logger.Error("bank api request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
