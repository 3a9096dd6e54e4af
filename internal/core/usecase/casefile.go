package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

const defaultOrgCode = "CONAMED"

type CaseFileUseCase struct {
	tx        ports.Transactor
	caseFiles ports.CaseFileStore
	catalog   ports.CatalogStore
	trail     *AuditTrail
	orgCode   string
	now       func() time.Time
}

func NewCaseFileUseCase(
	tx ports.Transactor,
	caseFiles ports.CaseFileStore,
	catalog ports.CatalogStore,
	trail *AuditTrail,
	orgCode string,
) *CaseFileUseCase {
	orgCode = strings.TrimSpace(orgCode)
	if orgCode == "" {
		orgCode = defaultOrgCode
	}
	return &CaseFileUseCase{
		tx:        tx,
		caseFiles: caseFiles,
		catalog:   catalog,
		trail:     trail,
		orgCode:   orgCode,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CaseFileUseCase) Create(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.CreateCaseFileInput) (*domain.CaseFile, error) {
	if err := requireWriter(caller, "create case file"); err != nil {
		return nil, err
	}
	if err := validateCreateCaseFile(in); err != nil {
		return nil, err
	}
	if err := requireUnitAccess(caller, "create case file", in.UnidadAdministrativaID); err != nil {
		return nil, err
	}

	formula, err := uc.classify(ctx, in)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	clasificacion := in.ClasificacionInfo
	if clasificacion == "" {
		clasificacion = domain.InfoPublic
	}
	file := &domain.CaseFile{
		NumeroExpediente:       strings.TrimSpace(in.NumeroExpediente),
		UnidadAdministrativaID: in.UnidadAdministrativaID,
		SeccionID:              in.SeccionID,
		SerieID:                in.SerieID,
		SubserieID:             in.SubserieID,
		FormulaClasificadora:   formula,
		NombreExpediente:       strings.TrimSpace(in.NombreExpediente),
		Asunto:                 strings.TrimSpace(in.Asunto),
		TotalLegajos:           in.TotalLegajos,
		TotalDocumentos:        in.TotalDocumentos,
		TotalFojas:             in.TotalFojas,
		FechaApertura:          in.FechaApertura.UTC(),
		FechaCierre:            utcPtr(in.FechaCierre),
		ValorAdministrativo:    in.ValorAdministrativo,
		ValorLegal:             in.ValorLegal,
		ValorContable:          in.ValorContable,
		ValorFiscal:            in.ValorFiscal,
		ClasificacionInfo:      clasificacion,
		Estado:                 domain.CaseFileActive,
		UbicacionFisica:        strings.TrimSpace(in.UbicacionFisica),
		Observaciones:          strings.TrimSpace(in.Observaciones),
		CreatedByID:            caller.UserID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := uc.caseFiles.Create(ctx, file); err != nil {
		return nil, err
	}

	entry := newAuditEntry(caller, meta, domain.AuditCreate, domain.EntityCaseFile, file.ID,
		fmt.Sprintf("Case file %s created", file.NumeroExpediente))
	entry.ExpedienteID = &file.ID
	entry.DatosNuevos = domain.Snapshot(file)
	uc.trail.RecordBestEffort(ctx, entry)

	return uc.caseFiles.GetByID(ctx, file.ID)
}

// classify resolves the catalog chain and builds the formula. Parent mismatches are input errors.
func (uc *CaseFileUseCase) classify(ctx context.Context, in domain.CreateCaseFileInput) (string, error) {
	unit, err := uc.catalog.GetUnit(ctx, in.UnidadAdministrativaID)
	if err != nil {
		return "", err
	}
	if !unit.Activo {
		return "", &domain.ValidationError{Field: "unidadAdministrativaId", Message: "administrative unit is inactive"}
	}
	section, err := uc.catalog.GetSection(ctx, in.SeccionID)
	if err != nil {
		return "", err
	}
	series, err := uc.catalog.GetSeries(ctx, in.SerieID)
	if err != nil {
		return "", err
	}
	if series.SeccionID != section.ID {
		return "", &domain.ValidationError{Field: "serieId", Message: "series does not belong to the section"}
	}
	subseriesClave := ""
	if in.SubserieID != nil {
		sub, err := uc.catalog.GetSubseries(ctx, *in.SubserieID)
		if err != nil {
			return "", err
		}
		if sub.SerieID != series.ID {
			return "", &domain.ValidationError{Field: "subserieId", Message: "subseries does not belong to the series"}
		}
		subseriesClave = sub.Clave
	}
	return domain.ClassificationFormula(uc.orgCode, unit.Clave, section.Clave, series.Clave, subseriesClave,
		strings.TrimSpace(in.NumeroExpediente)), nil
}

func (uc *CaseFileUseCase) Get(ctx context.Context, caller domain.Principal, id int64) (*domain.CaseFile, error) {
	file, err := uc.caseFiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireUnitAccess(caller, "get case file", file.UnidadAdministrativaID); err != nil {
		return nil, err
	}
	return file, nil
}

func (uc *CaseFileUseCase) List(ctx context.Context, caller domain.Principal, filter domain.CaseFileFilter) (*domain.PageResult[domain.CaseFile], error) {
	var errs domain.ValidationErrors
	if filter.Estado != "" && !filter.Estado.Valid() {
		errs.Add("estado", "unknown case file estado", domain.AllCaseFileStatuses()...)
	}
	if filter.ClasificacionInfo != "" && !filter.ClasificacionInfo.Valid() {
		errs.Add("clasificacionInfo", "unknown classification", domain.AllInfoClassifications()...)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if unit := caller.ScopedUnit(); unit != nil {
		filter.UnitID = unit
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalized()
	items, total, err := uc.caseFiles.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list case files: %w", err)
	}
	return &domain.PageResult[domain.CaseFile]{Items: items, Pagination: domain.NewPagination(filter.Page, total)}, nil
}

func (uc *CaseFileUseCase) Update(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64, in domain.UpdateCaseFileInput) (*domain.CaseFile, error) {
	if err := requireWriter(caller, "update case file"); err != nil {
		return nil, err
	}
	if in.Estado != nil {
		switch {
		case !in.Estado.Valid():
			return nil, &domain.ValidationError{Field: "estado", Message: "unknown case file estado", Allowed: domain.AllCaseFileStatuses()}
		case *in.Estado == domain.CaseFileOnLoan:
			return nil, &domain.ValidationError{Field: "estado", Message: "PRESTADO is set by the loan workflow only"}
		case *in.Estado == domain.CaseFileDecommissioned && !caller.Role.BypassesUnitScope():
			return nil, domain.NewError(domain.ErrForbidden, "update case file", "only the archive may decommission case files")
		}
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		file, err := tx.CaseFiles().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := requireUnitAccess(caller, "update case file", file.UnidadAdministrativaID); err != nil {
			return err
		}
		if in.Estado != nil && *in.Estado != file.Estado && file.Estado == domain.CaseFileOnLoan {
			return domain.NewError(domain.ErrInvalidState, "update case file", "case file is on loan; return the loan first")
		}

		before := domain.Snapshot(file)
		applyCaseFilePatch(file, in)
		if err := validateCaseFileState(file); err != nil {
			return err
		}
		updater := caller.UserID
		file.UpdatedByID = &updater
		file.UpdatedAt = uc.now()
		if err := tx.CaseFiles().Update(ctx, file); err != nil {
			return err
		}

		entry := newAuditEntry(caller, meta, domain.AuditUpdate, domain.EntityCaseFile, file.ID,
			fmt.Sprintf("Case file %s updated", file.NumeroExpediente))
		entry.ExpedienteID = &file.ID
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(file)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return uc.caseFiles.GetByID(ctx, id)
}

// Decommission moves a case file to BAJA. Rows are never deleted.
func (uc *CaseFileUseCase) Decommission(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64) (*domain.CaseFile, error) {
	if err := requireRole(caller, "decommission case file", privileged...); err != nil {
		return nil, err
	}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		file, err := tx.CaseFiles().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch file.Estado {
		case domain.CaseFileOnLoan:
			return domain.NewError(domain.ErrInvalidState, "decommission case file", "case file is on loan")
		case domain.CaseFileDecommissioned:
			return domain.NewError(domain.ErrInvalidState, "decommission case file", "case file is already decommissioned")
		}
		before := domain.Snapshot(file)
		if err := tx.CaseFiles().UpdateStatus(ctx, file.ID, domain.CaseFileDecommissioned, caller.UserID); err != nil {
			return err
		}
		file.Estado = domain.CaseFileDecommissioned

		entry := newAuditEntry(caller, meta, domain.AuditDelete, domain.EntityCaseFile, file.ID,
			fmt.Sprintf("Case file %s decommissioned", file.NumeroExpediente))
		entry.ExpedienteID = &file.ID
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(file)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return uc.caseFiles.GetByID(ctx, id)
}

// Stats counts case files per estado in the caller scope; every estado is present.
func (uc *CaseFileUseCase) Stats(ctx context.Context, caller domain.Principal) ([]domain.StatusCount, error) {
	counts, err := uc.caseFiles.CountByStatus(ctx, caller.ScopedUnit())
	if err != nil {
		return nil, fmt.Errorf("count case files by estado: %w", err)
	}
	return zeroFillCounts(domain.AllCaseFileStatuses(), counts), nil
}

func zeroFillCounts(all []string, counts []domain.StatusCount) []domain.StatusCount {
	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[c.Estado] = c.Total
	}
	out := make([]domain.StatusCount, 0, len(all))
	for _, s := range all {
		out = append(out, domain.StatusCount{Estado: s, Total: byStatus[s]})
	}
	return out
}

func validateCreateCaseFile(in domain.CreateCaseFileInput) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(in.NumeroExpediente) == "" {
		errs.Add("numeroExpediente", "is required")
	}
	if strings.ContainsRune(in.NumeroExpediente, '/') {
		errs.Add("numeroExpediente", "must not contain '/'")
	}
	if in.UnidadAdministrativaID <= 0 {
		errs.Add("unidadAdministrativaId", "is required")
	}
	if in.SeccionID <= 0 {
		errs.Add("seccionId", "is required")
	}
	if in.SerieID <= 0 {
		errs.Add("serieId", "is required")
	}
	if strings.TrimSpace(in.NombreExpediente) == "" {
		errs.Add("nombreExpediente", "is required")
	}
	if strings.TrimSpace(in.Asunto) == "" {
		errs.Add("asunto", "is required")
	}
	if in.FechaApertura.IsZero() {
		errs.Add("fechaApertura", "is required")
	}
	if in.FechaCierre != nil && !in.FechaApertura.IsZero() && in.FechaCierre.Before(in.FechaApertura) {
		errs.Add("fechaCierre", "must not be before fechaApertura")
	}
	if in.TotalLegajos < 0 {
		errs.Add("totalLegajos", "must not be negative")
	}
	if in.TotalDocumentos < 0 {
		errs.Add("totalDocumentos", "must not be negative")
	}
	if in.TotalFojas < 0 {
		errs.Add("totalFojas", "must not be negative")
	}
	if in.ClasificacionInfo != "" && !in.ClasificacionInfo.Valid() {
		errs.Add("clasificacionInfo", "unknown classification", domain.AllInfoClassifications()...)
	}
	return errs.Err()
}

func validateCaseFileState(file *domain.CaseFile) error {
	var errs domain.ValidationErrors
	if file.NombreExpediente == "" {
		errs.Add("nombreExpediente", "must not be empty")
	}
	if file.Asunto == "" {
		errs.Add("asunto", "must not be empty")
	}
	if file.FechaCierre != nil && file.FechaCierre.Before(file.FechaApertura) {
		errs.Add("fechaCierre", "must not be before fechaApertura")
	}
	if file.TotalLegajos < 0 {
		errs.Add("totalLegajos", "must not be negative")
	}
	if file.TotalDocumentos < 0 {
		errs.Add("totalDocumentos", "must not be negative")
	}
	if file.TotalFojas < 0 {
		errs.Add("totalFojas", "must not be negative")
	}
	if !file.ClasificacionInfo.Valid() {
		errs.Add("clasificacionInfo", "unknown classification", domain.AllInfoClassifications()...)
	}
	return errs.Err()
}

func applyCaseFilePatch(file *domain.CaseFile, in domain.UpdateCaseFileInput) {
	if in.NombreExpediente != nil {
		file.NombreExpediente = strings.TrimSpace(*in.NombreExpediente)
	}
	if in.Asunto != nil {
		file.Asunto = strings.TrimSpace(*in.Asunto)
	}
	if in.TotalLegajos != nil {
		file.TotalLegajos = *in.TotalLegajos
	}
	if in.TotalDocumentos != nil {
		file.TotalDocumentos = *in.TotalDocumentos
	}
	if in.TotalFojas != nil {
		file.TotalFojas = *in.TotalFojas
	}
	if in.FechaApertura != nil {
		file.FechaApertura = in.FechaApertura.UTC()
	}
	if in.FechaCierre != nil {
		file.FechaCierre = utcPtr(in.FechaCierre)
	}
	if in.ValorAdministrativo != nil {
		file.ValorAdministrativo = *in.ValorAdministrativo
	}
	if in.ValorLegal != nil {
		file.ValorLegal = *in.ValorLegal
	}
	if in.ValorContable != nil {
		file.ValorContable = *in.ValorContable
	}
	if in.ValorFiscal != nil {
		file.ValorFiscal = *in.ValorFiscal
	}
	if in.ClasificacionInfo != nil {
		file.ClasificacionInfo = *in.ClasificacionInfo
	}
	if in.Estado != nil {
		file.Estado = *in.Estado
	}
	if in.UbicacionFisica != nil {
		file.UbicacionFisica = strings.TrimSpace(*in.UbicacionFisica)
	}
	if in.Observaciones != nil {
		file.Observaciones = strings.TrimSpace(*in.Observaciones)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
