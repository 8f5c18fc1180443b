package store

import (
	"errors"
	"net/http"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/go-chi/chi/v5"
)

// Handler exposes store catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Get("/", h.listStores)
		r.Get("/{id}", h.getStore)
	})
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		apierror.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stores == nil {
		stores = []*Store{}
	}
	apierror.Write(w, http.StatusOK, stores)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetStore(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		apierror.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		apierror.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	apierror.Write(w, http.StatusOK, s)
}
