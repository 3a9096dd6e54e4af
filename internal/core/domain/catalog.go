package domain

import "time"

type SectionType string

const (
	SectionSubstantive SectionType = "SUSTANTIVA"
	SectionCommon      SectionType = "COMUN"
)

func (t SectionType) Valid() bool {
	return t == SectionSubstantive || t == SectionCommon
}

func AllSectionTypes() []string {
	return []string{string(SectionSubstantive), string(SectionCommon)}
}

type AdministrativeUnit struct {
	ID        int64     `json:"id"`
	Clave     string    `json:"clave"`
	Nombre    string    `json:"nombre"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Section struct {
	ID        int64       `json:"id"`
	Clave     string      `json:"clave"`
	Nombre    string      `json:"nombre"`
	Tipo      SectionType `json:"tipo"`
	Activo    bool        `json:"activo"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type Series struct {
	ID          int64     `json:"id"`
	SeccionID   int64     `json:"seccionId"`
	Clave       string    `json:"clave"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Subseries struct {
	ID          int64     `json:"id"`
	SerieID     int64     `json:"serieId"`
	Clave       string    `json:"clave"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CatalogSeed is the import document for the classification hierarchy.
type CatalogSeed struct {
	Units    []UnitSeed    `yaml:"unidades"`
	Sections []SectionSeed `yaml:"secciones"`
}

type UnitSeed struct {
	Clave  string `yaml:"clave"`
	Nombre string `yaml:"nombre"`
}

type SectionSeed struct {
	Clave  string       `yaml:"clave"`
	Nombre string       `yaml:"nombre"`
	Tipo   SectionType  `yaml:"tipo"`
	Series []SeriesSeed `yaml:"series"`
}

type SeriesSeed struct {
	Clave       string          `yaml:"clave"`
	Nombre      string          `yaml:"nombre"`
	Descripcion string          `yaml:"descripcion"`
	Subseries   []SubseriesSeed `yaml:"subseries"`
}

type SubseriesSeed struct {
	Clave       string `yaml:"clave"`
	Nombre      string `yaml:"nombre"`
	Descripcion string `yaml:"descripcion"`
}

// ImportSummary counts rows touched by a catalog import.
type ImportSummary struct {
	Units     int `json:"unidades"`
	Sections  int `json:"secciones"`
	Series    int `json:"series"`
	Subseries int `json:"subseries"`
}
