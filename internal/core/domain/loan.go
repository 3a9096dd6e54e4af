package domain

import "time"

type LoanStatus string

const (
	LoanPending    LoanStatus = "PENDIENTE"
	LoanAuthorized LoanStatus = "AUTORIZADO"
	LoanOnLoan     LoanStatus = "PRESTADO"
	LoanReturned   LoanStatus = "DEVUELTO"
	LoanOverdue    LoanStatus = "VENCIDO"
	LoanRejected   LoanStatus = "RECHAZADO"
)

func AllLoanStatuses() []string {
	return []string{
		string(LoanPending),
		string(LoanAuthorized),
		string(LoanOnLoan),
		string(LoanReturned),
		string(LoanOverdue),
		string(LoanRejected),
	}
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPending, LoanAuthorized, LoanOnLoan, LoanReturned, LoanOverdue, LoanRejected:
		return true
	default:
		return false
	}
}

// Active reports whether the loan currently holds the physical case file.
func (s LoanStatus) Active() bool {
	return s == LoanAuthorized || s == LoanOnLoan
}

type Loan struct {
	ID                      int64      `json:"id"`
	ExpedienteID            int64      `json:"expedienteId"`
	UsuarioID               int64      `json:"usuarioId"`
	AutorizadoPorID         *int64     `json:"autorizadoPorId,omitempty"`
	Estado                  LoanStatus `json:"estado"`
	FechaPrestamo           time.Time  `json:"fechaPrestamo"`
	FechaDevolucionEsperada time.Time  `json:"fechaDevolucionEsperada"`
	FechaDevolucionReal     *time.Time `json:"fechaDevolucionReal,omitempty"`
	MotivoPrestamo          string     `json:"motivoPrestamo"`
	Observaciones           string     `json:"observaciones,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`

	// Vencido is derived at read time; nothing persists VENCIDO.
	Vencido bool `json:"vencido"`

	Expediente    *CaseFileSummary `json:"expediente,omitempty"`
	Usuario       *UserSummary     `json:"usuario,omitempty"`
	AutorizadoPor *UserSummary     `json:"autorizadoPor,omitempty"`
}

// IsLate reports whether a return at now misses the expected date. Equal instants are on time.
func (l *Loan) IsLate(now time.Time) bool {
	return now.After(l.FechaDevolucionEsperada)
}

// IsOverdue reports whether an active loan is past its expected return date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Estado.Active() && l.IsLate(now)
}

type LoanFilter struct {
	Estado     LoanStatus
	CaseFileID *int64
	UserID     *int64
	UnitID     *int64
	From       *time.Time
	To         *time.Time
	OverdueAt  *time.Time
	Page       Page
}

type LoanStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"porEstado"`
	Overdue  int            `json:"vencidos"`
}

// ReturnResult is what a return reports back to the caller.
type ReturnResult struct {
	Loan    *Loan  `json:"prestamo"`
	WasLate bool   `json:"wasLate"`
	Message string `json:"message"`
}
