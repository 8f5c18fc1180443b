package user

import (
	"errors"
	"net/http"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Get("/api/v1/users/{id}", h.getUser)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		apierror.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		apierror.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	apierror.Write(w, http.StatusOK, user)
}
