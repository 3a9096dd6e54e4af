package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

// LoadCatalog reads a catalog seed document from path.
func LoadCatalog(path string) (domain.CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.CatalogSeed{}, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseCatalog(bytes.NewReader(raw))
}

// ParseCatalog decodes a seed document. Unknown keys are rejected so typos do not silently drop rows.
func ParseCatalog(r io.Reader) (domain.CatalogSeed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc domain.CatalogSeed
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.CatalogSeed{}, domain.NewError(domain.ErrInvalidInput, "parse catalog seed", "document is empty")
		}
		return domain.CatalogSeed{}, domain.WrapError(domain.ErrInvalidInput, "parse catalog seed", err)
	}
	normalize(&doc)
	return doc, nil
}

func normalize(doc *domain.CatalogSeed) {
	for i := range doc.Sections {
		s := &doc.Sections[i]
		s.Tipo = domain.SectionType(strings.ToUpper(strings.TrimSpace(string(s.Tipo))))
	}
}
