package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) auditRoutes(r chi.Router) {
	r.Get("/", rt.listAudit)
	r.Post("/", rt.recordAudit)
	r.Get("/stats", rt.auditStats)
	r.Delete("/purge", rt.purgeAudit)
	r.Get("/caseFile/{id}", rt.caseFileAudit)
	r.Get("/{id}", rt.getAuditEntry)
}

func auditFilterFromQuery(q *queryReader) domain.AuditFilter {
	return domain.AuditFilter{
		Accion:     domain.AuditAction(q.str("accion")),
		Entidad:    q.str("entidad"),
		UserID:     q.id(q.pick("usuarioId", "userId")),
		CaseFileID: q.id(q.pick("caseFileId", "expedienteId")),
		From:       q.date(q.pick("dateFrom", "fechaDesde"), false),
		To:         q.date(q.pick("dateTo", "fechaHasta"), true),
	}
}

func (rt *Router) listAudit(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := auditFilterFromQuery(q)
	filter.Page = rt.pageOf(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.svc.Audit.List(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

func (rt *Router) recordAudit(w http.ResponseWriter, r *http.Request) {
	var in domain.RecordAuditInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := rt.svc.Audit.Record(r.Context(), mustPrincipal(r), requestMeta(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, entry, "audit entry recorded")
}

func (rt *Router) getAuditEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := rt.svc.Audit.Get(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entry, "")
}

func (rt *Router) caseFileAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := newQueryReader(r)
	page := rt.pageOf(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := rt.svc.Audit.ListForCaseFile(r.Context(), mustPrincipal(r), id, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, result)
}

func (rt *Router) auditStats(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := domain.AuditFilter{
		From: q.date(q.pick("dateFrom", "fechaDesde"), false),
		To:   q.date(q.pick("dateTo", "fechaHasta"), true),
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := rt.svc.Audit.Statistics(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats, "")
}

type purgeAuditRequest struct {
	OlderThanDays int `json:"olderThanDays"`
}

// purgeAudit reads olderThanDays from the body, falling back to the query string.
func (rt *Router) purgeAudit(w http.ResponseWriter, r *http.Request) {
	var req purgeAuditRequest
	present, err := decodeOptionalJSON(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days := req.OlderThanDays
	if !present {
		q := newQueryReader(r)
		days = q.integer("olderThanDays")
		if err := q.err(); err != nil {
			writeError(w, r, err)
			return
		}
	}
	deleted, err := rt.svc.Audit.Purge(r.Context(), mustPrincipal(r), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"deleted": deleted}, "audit log purged")
}
