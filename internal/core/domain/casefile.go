package domain

import (
	"strings"
	"time"
)

type CaseFileStatus string

const (
	CaseFileActive         CaseFileStatus = "ACTIVO"
	CaseFileClosed         CaseFileStatus = "CERRADO"
	CaseFileOnLoan         CaseFileStatus = "PRESTADO"
	CaseFileTransferred    CaseFileStatus = "TRANSFERIDO"
	CaseFileDecommissioned CaseFileStatus = "BAJA"
)

func (s CaseFileStatus) Valid() bool {
	switch s {
	case CaseFileActive, CaseFileClosed, CaseFileOnLoan, CaseFileTransferred, CaseFileDecommissioned:
		return true
	default:
		return false
	}
}

func AllCaseFileStatuses() []string {
	return []string{
		string(CaseFileActive),
		string(CaseFileClosed),
		string(CaseFileOnLoan),
		string(CaseFileTransferred),
		string(CaseFileDecommissioned),
	}
}

// Lendable reports whether a new loan may be requested for a case file in this state.
func (s CaseFileStatus) Lendable() bool {
	return s == CaseFileActive || s == CaseFileClosed
}

type InfoClassification string

const (
	InfoPublic       InfoClassification = "PUBLICA"
	InfoReserved     InfoClassification = "RESERVADA"
	InfoConfidential InfoClassification = "CONFIDENCIAL"
)

func (c InfoClassification) Valid() bool {
	return c == InfoPublic || c == InfoReserved || c == InfoConfidential
}

func AllInfoClassifications() []string {
	return []string{string(InfoPublic), string(InfoReserved), string(InfoConfidential)}
}

type CaseFile struct {
	ID                     int64              `json:"id"`
	NumeroProgresivo       int64              `json:"numeroProgresivo"`
	NumeroExpediente       string             `json:"numeroExpediente"`
	UnidadAdministrativaID int64              `json:"unidadAdministrativaId"`
	SeccionID              int64              `json:"seccionId"`
	SerieID                int64              `json:"serieId"`
	SubserieID             *int64             `json:"subserieId,omitempty"`
	FormulaClasificadora   string             `json:"formulaClasificadora"`
	NombreExpediente       string             `json:"nombreExpediente"`
	Asunto                 string             `json:"asunto"`
	TotalLegajos           int                `json:"totalLegajos"`
	TotalDocumentos        int                `json:"totalDocumentos"`
	TotalFojas             int                `json:"totalFojas"`
	FechaApertura          time.Time          `json:"fechaApertura"`
	FechaCierre            *time.Time         `json:"fechaCierre,omitempty"`
	ValorAdministrativo    bool               `json:"valorAdministrativo"`
	ValorLegal             bool               `json:"valorLegal"`
	ValorContable          bool               `json:"valorContable"`
	ValorFiscal            bool               `json:"valorFiscal"`
	ClasificacionInfo      InfoClassification `json:"clasificacionInfo"`
	Estado                 CaseFileStatus     `json:"estado"`
	UbicacionFisica        string             `json:"ubicacionFisica,omitempty"`
	Observaciones          string             `json:"observaciones,omitempty"`
	CreatedByID            int64              `json:"createdById"`
	UpdatedByID            *int64             `json:"updatedById,omitempty"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`

	Unidad *AdministrativeUnit `json:"unidadAdministrativa,omitempty"`
}

// ClassificationFormula builds ORG/UNIT/SECTION/SERIE[/SUBSERIE]/NUMBER.
func ClassificationFormula(org, unit, section, series, subseries, number string) string {
	parts := []string{org, unit, section, series}
	if subseries != "" {
		parts = append(parts, subseries)
	}
	parts = append(parts, number)
	return strings.Join(parts, "/")
}

type CaseFileFilter struct {
	UnitID            *int64
	SectionID         *int64
	SeriesID          *int64
	Estado            CaseFileStatus
	ClasificacionInfo InfoClassification
	Search            string
	OpenedFrom        *time.Time
	OpenedTo          *time.Time
	Page              Page
}

// CaseFileSummary is the compact projection joined into loans and audit entries.
type CaseFileSummary struct {
	ID                   int64          `json:"id"`
	NumeroExpediente     string         `json:"numeroExpediente"`
	NombreExpediente     string         `json:"nombreExpediente"`
	FormulaClasificadora string         `json:"formulaClasificadora"`
	Estado               CaseFileStatus `json:"estado"`
	UnidadID             int64          `json:"unidadAdministrativaId"`
}

type StatusCount struct {
	Estado string `json:"estado"`
	Total  int    `json:"total"`
}
