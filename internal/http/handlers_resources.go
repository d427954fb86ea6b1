package http

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
	"financas/internal/services"
)

// resourceHandler serves the CRUD routes of one entity kind.
type resourceHandler[T any, P core.Entity[T]] struct {
	res *services.Resource[T, P]
}

func mountResource[T any, P core.Entity[T]](r chi.Router, res *services.Resource[T, P]) {
	h := resourceHandler[T, P]{res: res}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h resourceHandler[T, P]) list(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := h.res.List(r.Context(), hh.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

func (h resourceHandler[T, P]) get(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.res.Get(r.Context(), hh.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h resourceHandler[T, P]) create(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var rec T
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.res.Create(r.Context(), hh.ID, rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", path.Join(r.URL.Path, P(&created).Meta().ID.String()))
	writeJSON(w, http.StatusCreated, created)
}

func (h resourceHandler[T, P]) update(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.res.Update(r.Context(), hh.ID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h resourceHandler[T, P]) delete(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.res.Delete(r.Context(), hh.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
