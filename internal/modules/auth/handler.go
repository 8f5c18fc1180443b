package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/api/v1/auth/login", h.login)
	router.Get("/api/v1/auth/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		apierror.Write(w, http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		apierror.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		apierror.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	apierror.Write(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u := Identity{}.Current(r.Context())
	if u == nil {
		apierror.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	apierror.Write(w, http.StatusOK, u)
}
