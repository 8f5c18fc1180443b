package cashsession

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// Handler exposes cash session HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cash-sessions", func(r chi.Router) {
		r.Get("/", h.list)                         // GET    /api/v1/cash-sessions?q=
		r.Get("/terminals", h.terminals)           // GET    /api/v1/cash-sessions/terminals
		r.Get("/opening", h.openingForm)           // GET    /api/v1/cash-sessions/opening
		r.Post("/opening", h.beginOpening)         // POST   /api/v1/cash-sessions/opening
		r.Patch("/opening", h.composeOpening)      // PATCH  /api/v1/cash-sessions/opening
		r.Delete("/opening", h.cancelOpening)      // DELETE /api/v1/cash-sessions/opening
		r.Post("/opening/submit", h.submitOpening) // POST   /api/v1/cash-sessions/opening/submit
		r.Post("/{id}/enter", h.enter)             // POST   /api/v1/cash-sessions/{id}/enter
	})
}

// submitResponse is returned when an opening is committed or a session entered.
type submitResponse struct {
	Session  *CashSession `json:"session"`
	Redirect string       `json:"redirect,omitempty"`
}

// rejectedResponse carries the retained draft after a persistence fault.
type rejectedResponse struct {
	apierror.APIError
	Draft *Draft `json:"draft,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, listing)
}

func (h *Handler) terminals(w http.ResponseWriter, r *http.Request) {
	terminals, err := h.service.Terminals(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, terminals)
}

func (h *Handler) openingForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.OpeningForm(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, form)
}

func (h *Handler) beginOpening(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.BeginOpening(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, draft)
}

func (h *Handler) composeOpening(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			apierror.Write(w, http.StatusUnprocessableEntity, apierror.NewValidation(fields))
			return
		}
		apierror.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := h.service.ComposeOpening(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, draft)
}

func (h *Handler) cancelOpening(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelOpening(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitOpening(w http.ResponseWriter, r *http.Request) {
	ctx, redirect := WithRedirect(r.Context())
	session, err := h.service.SubmitOpening(ctx)
	if err != nil {
		var fault *PersistenceFault
		if errors.As(err, &fault) {
			body := rejectedResponse{APIError: *apierror.New(err.Error())}
			if draft, derr := h.service.Draft(r.Context()); derr == nil {
				body.Draft = draft
			}
			apierror.Write(w, http.StatusServiceUnavailable, body)
			return
		}
		h.fail(w, r, err)
		return
	}
	if redirect.Route != "" {
		w.Header().Set("Location", redirect.Route)
	}
	apierror.Write(w, http.StatusCreated, submitResponse{Session: session, Redirect: redirect.Route})
}

func (h *Handler) enter(w http.ResponseWriter, r *http.Request) {
	ctx, redirect := WithRedirect(r.Context())
	session, err := h.service.Enter(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierror.Write(w, http.StatusOK, submitResponse{Session: session, Redirect: redirect.Route})
}

// fail maps service errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *ValidationFault
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		apierror.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrRegisterInUse):
		apierror.Error(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		apierror.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		apierror.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWorkflowBusy),
		errors.Is(err, ErrNoOpeningInProgress),
		errors.Is(err, ErrSessionClosed),
		errors.Is(err, ErrSessionNotOpen):
		apierror.Error(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("cash session request failed")
		apierror.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
