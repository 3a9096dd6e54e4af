package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

type CatalogUseCase struct {
	store ports.CatalogStore
}

func NewCatalogUseCase(store ports.CatalogStore) *CatalogUseCase {
	return &CatalogUseCase{store: store}
}

func (uc *CatalogUseCase) ListUnits(ctx context.Context, activeOnly bool) ([]domain.AdministrativeUnit, error) {
	units, err := uc.store.ListUnits(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func (uc *CatalogUseCase) GetUnit(ctx context.Context, id int64) (*domain.AdministrativeUnit, error) {
	return uc.store.GetUnit(ctx, id)
}

func (uc *CatalogUseCase) CreateUnit(ctx context.Context, caller domain.Principal, in domain.CreateUnitInput) (*domain.AdministrativeUnit, error) {
	if err := requireRole(caller, "create unit", privileged...); err != nil {
		return nil, err
	}
	var errs domain.ValidationErrors
	clave, nombre := requireClaveNombre(&errs, in.Clave, in.Nombre)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	unit := &domain.AdministrativeUnit{Clave: clave, Nombre: nombre, Activo: true}
	if err := uc.store.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (uc *CatalogUseCase) SetUnitActive(ctx context.Context, caller domain.Principal, id int64, active bool) (*domain.AdministrativeUnit, error) {
	if err := requireRole(caller, "set unit active", privileged...); err != nil {
		return nil, err
	}
	if err := uc.store.SetUnitActive(ctx, id, active); err != nil {
		return nil, err
	}
	return uc.store.GetUnit(ctx, id)
}

func (uc *CatalogUseCase) ListSections(ctx context.Context) ([]domain.Section, error) {
	sections, err := uc.store.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (uc *CatalogUseCase) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	return uc.store.GetSection(ctx, id)
}

func (uc *CatalogUseCase) CreateSection(ctx context.Context, caller domain.Principal, in domain.CreateSectionInput) (*domain.Section, error) {
	if err := requireRole(caller, "create section", privileged...); err != nil {
		return nil, err
	}
	var errs domain.ValidationErrors
	clave, nombre := requireClaveNombre(&errs, in.Clave, in.Nombre)
	if !in.Tipo.Valid() {
		errs.Add("tipo", "must be a known section type", domain.AllSectionTypes()...)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	section := &domain.Section{Clave: clave, Nombre: nombre, Tipo: in.Tipo, Activo: true}
	if err := uc.store.CreateSection(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (uc *CatalogUseCase) ListSeries(ctx context.Context, sectionID *int64) ([]domain.Series, error) {
	series, err := uc.store.ListSeries(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return series, nil
}

func (uc *CatalogUseCase) GetSeries(ctx context.Context, id int64) (*domain.Series, error) {
	return uc.store.GetSeries(ctx, id)
}

func (uc *CatalogUseCase) CreateSeries(ctx context.Context, caller domain.Principal, in domain.CreateSeriesInput) (*domain.Series, error) {
	if err := requireRole(caller, "create series", privileged...); err != nil {
		return nil, err
	}
	var errs domain.ValidationErrors
	clave, nombre := requireClaveNombre(&errs, in.Clave, in.Nombre)
	if in.SeccionID <= 0 {
		errs.Add("seccionId", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if _, err := uc.store.GetSection(ctx, in.SeccionID); err != nil {
		return nil, err
	}
	series := &domain.Series{
		SeccionID:   in.SeccionID,
		Clave:       clave,
		Nombre:      nombre,
		Descripcion: strings.TrimSpace(in.Descripcion),
		Activo:      true,
	}
	if err := uc.store.CreateSeries(ctx, series); err != nil {
		return nil, err
	}
	return series, nil
}

func (uc *CatalogUseCase) ListSubseries(ctx context.Context, seriesID *int64) ([]domain.Subseries, error) {
	subseries, err := uc.store.ListSubseries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list subseries: %w", err)
	}
	return subseries, nil
}

func (uc *CatalogUseCase) GetSubseries(ctx context.Context, id int64) (*domain.Subseries, error) {
	return uc.store.GetSubseries(ctx, id)
}

func (uc *CatalogUseCase) CreateSubseries(ctx context.Context, caller domain.Principal, in domain.CreateSubseriesInput) (*domain.Subseries, error) {
	if err := requireRole(caller, "create subseries", privileged...); err != nil {
		return nil, err
	}
	var errs domain.ValidationErrors
	clave, nombre := requireClaveNombre(&errs, in.Clave, in.Nombre)
	if in.SerieID <= 0 {
		errs.Add("serieId", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if _, err := uc.store.GetSeries(ctx, in.SerieID); err != nil {
		return nil, err
	}
	subseries := &domain.Subseries{
		SerieID:     in.SerieID,
		Clave:       clave,
		Nombre:      nombre,
		Descripcion: strings.TrimSpace(in.Descripcion),
		Activo:      true,
	}
	if err := uc.store.CreateSubseries(ctx, subseries); err != nil {
		return nil, err
	}
	return subseries, nil
}

// ImportCatalog upserts a seed document level by level. Re-running the same document is a no-op.
func (uc *CatalogUseCase) ImportCatalog(ctx context.Context, seed domain.CatalogSeed) (domain.ImportSummary, error) {
	var summary domain.ImportSummary
	if err := validateSeed(seed); err != nil {
		return summary, err
	}

	for _, u := range seed.Units {
		unit := &domain.AdministrativeUnit{Clave: strings.TrimSpace(u.Clave), Nombre: strings.TrimSpace(u.Nombre), Activo: true}
		if err := uc.store.UpsertUnit(ctx, unit); err != nil {
			return summary, fmt.Errorf("import unit %s: %w", unit.Clave, err)
		}
		summary.Units++
	}

	for _, s := range seed.Sections {
		section := &domain.Section{Clave: strings.TrimSpace(s.Clave), Nombre: strings.TrimSpace(s.Nombre), Tipo: s.Tipo, Activo: true}
		if err := uc.store.UpsertSection(ctx, section); err != nil {
			return summary, fmt.Errorf("import section %s: %w", section.Clave, err)
		}
		summary.Sections++

		for _, sr := range s.Series {
			series := &domain.Series{
				SeccionID:   section.ID,
				Clave:       strings.TrimSpace(sr.Clave),
				Nombre:      strings.TrimSpace(sr.Nombre),
				Descripcion: strings.TrimSpace(sr.Descripcion),
				Activo:      true,
			}
			if err := uc.store.UpsertSeries(ctx, series); err != nil {
				return summary, fmt.Errorf("import series %s/%s: %w", section.Clave, series.Clave, err)
			}
			summary.Series++

			for _, ss := range sr.Subseries {
				sub := &domain.Subseries{
					SerieID:     series.ID,
					Clave:       strings.TrimSpace(ss.Clave),
					Nombre:      strings.TrimSpace(ss.Nombre),
					Descripcion: strings.TrimSpace(ss.Descripcion),
					Activo:      true,
				}
				if err := uc.store.UpsertSubseries(ctx, sub); err != nil {
					return summary, fmt.Errorf("import subseries %s/%s/%s: %w", section.Clave, series.Clave, sub.Clave, err)
				}
				summary.Subseries++
			}
		}
	}
	return summary, nil
}

func validateSeed(seed domain.CatalogSeed) error {
	var errs domain.ValidationErrors
	for i, u := range seed.Units {
		requireClaveNombre(&errs, u.Clave, u.Nombre, fmt.Sprintf("unidades[%d]", i))
	}
	for i, s := range seed.Sections {
		prefix := fmt.Sprintf("secciones[%d]", i)
		requireClaveNombre(&errs, s.Clave, s.Nombre, prefix)
		if !s.Tipo.Valid() {
			errs.Add(prefix+".tipo", "must be a known section type", domain.AllSectionTypes()...)
		}
		for j, sr := range s.Series {
			seriesPrefix := fmt.Sprintf("%s.series[%d]", prefix, j)
			requireClaveNombre(&errs, sr.Clave, sr.Nombre, seriesPrefix)
			for k, ss := range sr.Subseries {
				requireClaveNombre(&errs, ss.Clave, ss.Nombre, fmt.Sprintf("%s.subseries[%d]", seriesPrefix, k))
			}
		}
	}
	return errs.Err()
}

// requireClaveNombre trims both values and records a field error for each empty one.
func requireClaveNombre(errs *domain.ValidationErrors, clave, nombre string, prefix ...string) (string, string) {
	field := func(name string) string {
		if len(prefix) > 0 && prefix[0] != "" {
			return prefix[0] + "." + name
		}
		return name
	}
	clave = strings.TrimSpace(clave)
	nombre = strings.TrimSpace(nombre)
	if clave == "" {
		errs.Add(field("clave"), "is required")
	}
	if nombre == "" {
		errs.Add(field("nombre"), "is required")
	}
	return clave, nombre
}
