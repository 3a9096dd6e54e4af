package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) catalogRoutes(r chi.Router) {
	r.Get("/units", rt.listUnits)
	r.Post("/units", rt.createUnit)
	r.Get("/units/{id}", rt.getUnit)
	r.Patch("/units/{id}/active", rt.setUnitActive)

	r.Get("/sections", rt.listSections)
	r.Post("/sections", rt.createSection)
	r.Get("/sections/{id}", rt.getSection)

	r.Get("/series", rt.listSeries)
	r.Post("/series", rt.createSeries)
	r.Get("/series/{id}", rt.getSeries)

	r.Get("/subseries", rt.listSubseries)
	r.Post("/subseries", rt.createSubseries)
	r.Get("/subseries/{id}", rt.getSubseries)
}

func (rt *Router) listUnits(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	activeOnly := true
	if all := q.boolean("all"); all != nil && *all {
		activeOnly = false
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	units, err := rt.svc.Catalog.ListUnits(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, units, "")
}

func (rt *Router) getUnit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unit, err := rt.svc.Catalog.GetUnit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, unit, "")
}

func (rt *Router) createUnit(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUnitInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	unit, err := rt.svc.Catalog.CreateUnit(r.Context(), mustPrincipal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, unit, "administrative unit created")
}

func (rt *Router) setUnitActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Activo *bool `json:"activo"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Activo == nil {
		writeError(w, r, &domain.ValidationError{Field: "activo", Message: "is required"})
		return
	}
	unit, err := rt.svc.Catalog.SetUnitActive(r.Context(), mustPrincipal(r), id, *req.Activo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, unit, "")
}

func (rt *Router) listSections(w http.ResponseWriter, r *http.Request) {
	sections, err := rt.svc.Catalog.ListSections(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sections, "")
}

func (rt *Router) getSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	section, err := rt.svc.Catalog.GetSection(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, section, "")
}

func (rt *Router) createSection(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	section, err := rt.svc.Catalog.CreateSection(r.Context(), mustPrincipal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, section, "section created")
}

func (rt *Router) listSeries(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	sectionID := q.id("seccionId")
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	series, err := rt.svc.Catalog.ListSeries(r.Context(), sectionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, series, "")
}

func (rt *Router) getSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	series, err := rt.svc.Catalog.GetSeries(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, series, "")
}

func (rt *Router) createSeries(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSeriesInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	series, err := rt.svc.Catalog.CreateSeries(r.Context(), mustPrincipal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, series, "series created")
}

func (rt *Router) listSubseries(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	seriesID := q.id("serieId")
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	subseries, err := rt.svc.Catalog.ListSubseries(r.Context(), seriesID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, subseries, "")
}

func (rt *Router) getSubseries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subseries, err := rt.svc.Catalog.GetSubseries(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, subseries, "")
}

func (rt *Router) createSubseries(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSubseriesInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	subseries, err := rt.svc.Catalog.CreateSubseries(r.Context(), mustPrincipal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, subseries, "subseries created")
}
