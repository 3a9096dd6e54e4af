package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) reportRoutes(r chi.Router) {
	r.Get("/casefiles.xlsx", rt.caseFileReport)
	r.Get("/loans.xlsx", rt.loanReport)
	r.Get("/audit.xlsx", rt.auditReport)
}

func (rt *Router) caseFileReport(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := caseFileFilterFromQuery(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.svc.Reports.CaseFileInventory(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordReport("casefiles", report.Rows)
	writeWorkbook(w, report)
}

func (rt *Router) loanReport(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := loanFilterFromQuery(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.svc.Reports.LoanReport(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordReport("loans", report.Rows)
	writeWorkbook(w, report)
}

func (rt *Router) auditReport(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := auditFilterFromQuery(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.svc.Reports.AuditReport(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordReport("audit", report.Rows)
	writeWorkbook(w, report)
}

func (rt *Router) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := rt.svc.Reports.Dashboard(r.Context(), mustPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, dash, "")
}

func writeWorkbook(w http.ResponseWriter, report *domain.Report) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}
