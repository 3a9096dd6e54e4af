package domain

import (
	"encoding/json"
	"time"
)

type CreateUnitInput struct {
	Clave  string `json:"clave"`
	Nombre string `json:"nombre"`
}

type CreateSectionInput struct {
	Clave  string      `json:"clave"`
	Nombre string      `json:"nombre"`
	Tipo   SectionType `json:"tipo"`
}

type CreateSeriesInput struct {
	SeccionID   int64  `json:"seccionId"`
	Clave       string `json:"clave"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

type CreateSubseriesInput struct {
	SerieID     int64  `json:"serieId"`
	Clave       string `json:"clave"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

type CreateCaseFileInput struct {
	NumeroExpediente       string             `json:"numeroExpediente"`
	UnidadAdministrativaID int64              `json:"unidadAdministrativaId"`
	SeccionID              int64              `json:"seccionId"`
	SerieID                int64              `json:"serieId"`
	SubserieID             *int64             `json:"subserieId"`
	NombreExpediente       string             `json:"nombreExpediente"`
	Asunto                 string             `json:"asunto"`
	TotalLegajos           int                `json:"totalLegajos"`
	TotalDocumentos        int                `json:"totalDocumentos"`
	TotalFojas             int                `json:"totalFojas"`
	FechaApertura          time.Time          `json:"fechaApertura"`
	FechaCierre            *time.Time         `json:"fechaCierre"`
	ValorAdministrativo    bool               `json:"valorAdministrativo"`
	ValorLegal             bool               `json:"valorLegal"`
	ValorContable          bool               `json:"valorContable"`
	ValorFiscal            bool               `json:"valorFiscal"`
	ClasificacionInfo      InfoClassification `json:"clasificacionInfo"`
	UbicacionFisica        string             `json:"ubicacionFisica"`
	Observaciones          string             `json:"observaciones"`
}

// UpdateCaseFileInput is a partial update; nil fields are left untouched.
type UpdateCaseFileInput struct {
	NombreExpediente    *string             `json:"nombreExpediente"`
	Asunto              *string             `json:"asunto"`
	TotalLegajos        *int                `json:"totalLegajos"`
	TotalDocumentos     *int                `json:"totalDocumentos"`
	TotalFojas          *int                `json:"totalFojas"`
	FechaApertura       *time.Time          `json:"fechaApertura"`
	FechaCierre         *time.Time          `json:"fechaCierre"`
	ValorAdministrativo *bool               `json:"valorAdministrativo"`
	ValorLegal          *bool               `json:"valorLegal"`
	ValorContable       *bool               `json:"valorContable"`
	ValorFiscal         *bool               `json:"valorFiscal"`
	ClasificacionInfo   *InfoClassification `json:"clasificacionInfo"`
	Estado              *CaseFileStatus     `json:"estado"`
	UbicacionFisica     *string             `json:"ubicacionFisica"`
	Observaciones       *string             `json:"observaciones"`
}

type RequestLoanInput struct {
	CaseFileID         int64     `json:"caseFileId"`
	ExpectedReturnDate time.Time `json:"expectedReturnDate"`
	Reason             string    `json:"reason"`
}

type RecordAuditInput struct {
	Accion       AuditAction     `json:"accion"`
	Entidad      string          `json:"entidad"`
	EntidadID    string          `json:"entidadId"`
	Descripcion  string          `json:"descripcion"`
	ExpedienteID *int64          `json:"expedienteId"`
	DatosPrevios json.RawMessage `json:"datosPrevios"`
	DatosNuevos  json.RawMessage `json:"datosNuevos"`
}

type CreateUserInput struct {
	Username               string `json:"username"`
	Email                  string `json:"email"`
	Password               string `json:"password"`
	Nombre                 string `json:"nombre"`
	ApellidoPaterno        string `json:"apellidoPaterno"`
	ApellidoMaterno        string `json:"apellidoMaterno"`
	Rol                    Role   `json:"rol"`
	UnidadAdministrativaID *int64 `json:"unidadAdministrativaId"`
}

type UpdateUserInput struct {
	Email                  *string `json:"email"`
	Nombre                 *string `json:"nombre"`
	ApellidoPaterno        *string `json:"apellidoPaterno"`
	ApellidoMaterno        *string `json:"apellidoMaterno"`
	Rol                    *Role   `json:"rol"`
	UnidadAdministrativaID *int64  `json:"unidadAdministrativaId"`
	Activo                 *bool   `json:"activo"`
}

// Dashboard aggregates the counters shown on the landing page.
type Dashboard struct {
	CaseFilesByStatus []StatusCount `json:"expedientesPorEstado"`
	LoansByStatus     []StatusCount `json:"prestamosPorEstado"`
	OverdueLoans      int           `json:"prestamosVencidos"`
	GeneratedAt       time.Time     `json:"generadoEn"`
}

// Report is a rendered spreadsheet.
type Report struct {
	Filename string
	Content  []byte
	Rows     int
}
