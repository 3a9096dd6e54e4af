package httpadapter

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) loanRoutes(r chi.Router) {
	r.Get("/", rt.listLoans)
	r.Get("/stats", rt.loanStats)
	r.Post("/request", rt.requestLoan)
	r.Get("/{id}", rt.getLoan)
	r.Post("/{id}/authorize", rt.authorizeLoan)
	r.Post("/{id}/reject", rt.rejectLoan)
	r.Post("/{id}/return", rt.returnLoan)
}

type requestLoanRequest struct {
	domain.RequestLoanInput
	ExpectedReturnDate flexTime `json:"expectedReturnDate"`
}

// loanNotesRequest takes notes; observaciones is kept as an alias.
type loanNotesRequest struct {
	Notes         string `json:"notes"`
	Observaciones string `json:"observaciones"`
}

func loanFilterFromQuery(q *queryReader) domain.LoanFilter {
	filter := domain.LoanFilter{
		Estado:     domain.LoanStatus(q.str("estado")),
		CaseFileID: q.id(q.pick("caseFileId", "expedienteId")),
		UserID:     q.id(q.pick("userId", "usuarioId")),
		UnitID:     q.id("unidadAdministrativaId"),
		From:       q.date(q.pick("dateFrom", "fechaDesde"), false),
		To:         q.date(q.pick("dateTo", "fechaHasta"), true),
	}
	if overdue := q.boolean("vencidos"); overdue != nil && *overdue {
		now := time.Now().UTC()
		filter.OverdueAt = &now
	}
	return filter
}

func (rt *Router) listLoans(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := loanFilterFromQuery(q)
	filter.Page = rt.pageOf(q)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.svc.Loans.List(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

func (rt *Router) loanStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.Loans.Stats(r.Context(), mustPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats, "")
}

func (rt *Router) getLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	loan, err := rt.svc.Loans.Get(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, loan, "")
}

func (rt *Router) requestLoan(w http.ResponseWriter, r *http.Request) {
	var req requestLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := req.RequestLoanInput
	in.ExpectedReturnDate = req.ExpectedReturnDate.Time

	loan, err := rt.svc.Loans.Request(r.Context(), mustPrincipal(r), requestMeta(r), in)
	rt.recordLoanTransition("request", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, loan, "loan requested")
}

// decodeOptionalNotes accepts an empty body for transitions whose notes are optional.
func decodeOptionalNotes(r *http.Request) (string, error) {
	var req loanNotesRequest
	if _, err := decodeOptionalJSON(r, &req); err != nil {
		return "", err
	}
	if req.Notes != "" {
		return req.Notes, nil
	}
	return req.Observaciones, nil
}

func (rt *Router) authorizeLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := decodeOptionalNotes(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loan, err := rt.svc.Loans.Authorize(r.Context(), mustPrincipal(r), requestMeta(r), id, notes)
	rt.recordLoanTransition("authorize", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, loan, "loan authorized")
}

func (rt *Router) rejectLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		RejectReason string `json:"rejectReason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	loan, err := rt.svc.Loans.Reject(r.Context(), mustPrincipal(r), requestMeta(r), id, req.RejectReason)
	rt.recordLoanTransition("reject", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, loan, "loan rejected")
}

func (rt *Router) returnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := decodeOptionalNotes(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := rt.svc.Loans.Return(r.Context(), mustPrincipal(r), requestMeta(r), id, notes)
	rt.recordLoanTransition("return", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result, result.Message)
}
