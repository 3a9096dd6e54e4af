package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

const sample = `
unidades:
  - clave: DG
    nombre: Dirección General
  - clave: DGAJ
    nombre: Dirección General de Arbitraje
secciones:
  - clave: 1C
    nombre: Legislación
    tipo: comun
    series:
      - clave: 1C.4
        nombre: Quejas
        subseries:
          - clave: 1C.4.1
            nombre: Quejas médicas
  - clave: 5S
    nombre: Arbitraje médico
    tipo: SUSTANTIVA
`

func TestParseCatalog(t *testing.T) {
	doc, err := ParseCatalog(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseCatalog() error = %v", err)
	}
	if len(doc.Units) != 2 || doc.Units[1].Clave != "DGAJ" {
		t.Fatalf("unexpected units %+v", doc.Units)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Tipo != domain.SectionCommon {
		t.Fatalf("tipo must be normalized, got %q", doc.Sections[0].Tipo)
	}
	series := doc.Sections[0].Series
	if len(series) != 1 || len(series[0].Subseries) != 1 || series[0].Subseries[0].Clave != "1C.4.1" {
		t.Fatalf("unexpected nesting %+v", series)
	}
}

func TestParseCatalogRejectsUnknownKeys(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("unidades:\n  - clave: DG\n    nomber: typo\n"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseCatalogRejectsEmptyDocument(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader(""))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	doc, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(doc.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(doc.Units))
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestExampleCatalogParses(t *testing.T) {
	doc, err := LoadCatalog(filepath.Join("..", "..", "..", "configs", "catalog.example.yaml"))
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(doc.Units) == 0 || len(doc.Sections) == 0 {
		t.Fatalf("example catalog must not be empty")
	}
}
