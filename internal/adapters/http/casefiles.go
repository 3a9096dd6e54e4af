package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) caseFileRoutes(r chi.Router) {
	r.Get("/", rt.listCaseFiles)
	r.Post("/", rt.createCaseFile)
	r.Get("/stats", rt.caseFileStats)
	r.Get("/{id}", rt.getCaseFile)
	r.Patch("/{id}", rt.updateCaseFile)
	r.Delete("/{id}", rt.decommissionCaseFile)
}

// createCaseFileRequest overrides the date fields so clients may send plain calendar dates.
type createCaseFileRequest struct {
	domain.CreateCaseFileInput
	FechaApertura flexTime  `json:"fechaApertura"`
	FechaCierre   *flexTime `json:"fechaCierre"`
}

type updateCaseFileRequest struct {
	domain.UpdateCaseFileInput
	FechaApertura *flexTime `json:"fechaApertura"`
	FechaCierre   *flexTime `json:"fechaCierre"`
}

func caseFileFilterFromQuery(q *queryReader) domain.CaseFileFilter {
	return domain.CaseFileFilter{
		UnitID:            q.id("unidadAdministrativaId"),
		SectionID:         q.id("seccionId"),
		SeriesID:          q.id("serieId"),
		Estado:            domain.CaseFileStatus(q.str("estado")),
		ClasificacionInfo: domain.InfoClassification(q.str("clasificacionInfo")),
		Search:            q.str("search"),
		OpenedFrom:        q.date(q.pick("fechaDesde", "dateFrom"), false),
		OpenedTo:          q.date(q.pick("fechaHasta", "dateTo"), true),
	}
}

func (rt *Router) listCaseFiles(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := caseFileFilterFromQuery(q)
	filter.Page = rt.pageOf(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.svc.CaseFiles.List(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

func (rt *Router) createCaseFile(w http.ResponseWriter, r *http.Request) {
	var req createCaseFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.CreateCaseFileInput
	in.FechaApertura = req.FechaApertura.Time
	in.FechaCierre = req.FechaCierre.ptr()

	file, err := rt.svc.CaseFiles.Create(r.Context(), mustPrincipal(r), requestMeta(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, file, "case file created")
}

func (rt *Router) getCaseFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, err := rt.svc.CaseFiles.Get(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file, "")
}

func (rt *Router) updateCaseFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCaseFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.UpdateCaseFileInput
	in.FechaApertura = req.FechaApertura.ptr()
	in.FechaCierre = req.FechaCierre.ptr()

	file, err := rt.svc.CaseFiles.Update(r.Context(), mustPrincipal(r), requestMeta(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file, "case file updated")
}

func (rt *Router) decommissionCaseFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, err := rt.svc.CaseFiles.Decommission(r.Context(), mustPrincipal(r), requestMeta(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file, "case file decommissioned")
}

func (rt *Router) caseFileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.CaseFiles.Stats(r.Context(), mustPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats, "")
}
