package excel

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Renderer writes one-sheet workbooks with a styled header row and a generated-at footer.
type Renderer struct {
	location *time.Location
}

func NewRenderer(location *time.Location) *Renderer {
	if location == nil {
		location = time.UTC
	}
	return &Renderer{location: location}
}

type sheetLayout struct {
	name    string
	title   string
	headers []string
	widths  []float64
}

var (
	caseFileSheet = sheetLayout{
		name:  "Expedientes",
		title: "Inventario de expedientes",
		headers: []string{
			"No. progresivo", "No. expediente", "Fórmula clasificadora", "Unidad administrativa",
			"Nombre", "Asunto", "Legajos", "Documentos", "Fojas", "Fecha apertura", "Fecha cierre",
			"Valores", "Clasificación", "Estado", "Ubicación física",
		},
		widths: []float64{14, 18, 34, 28, 36, 40, 10, 12, 10, 14, 14, 28, 16, 14, 24},
	}
	loanSheet = sheetLayout{
		name:  "Prestamos",
		title: "Préstamos de expedientes",
		headers: []string{
			"ID", "No. expediente", "Fórmula clasificadora", "Solicitante", "Autorizó", "Estado",
			"Fecha préstamo", "Devolución esperada", "Devolución real", "Vencido", "Motivo",
		},
		widths: []float64{8, 18, 34, 26, 26, 14, 18, 18, 18, 10, 40},
	}
	auditSheet = sheetLayout{
		name:  "Bitacora",
		title: "Bitácora de auditoría",
		headers: []string{
			"ID", "Fecha", "Usuario", "Acción", "Entidad", "ID entidad", "Descripción",
			"Expediente", "IP", "User-Agent",
		},
		widths: []float64{8, 18, 22, 14, 14, 12, 48, 18, 16, 30},
	}
)

func (r *Renderer) CaseFiles(rows []domain.CaseFile, generatedAt time.Time) ([]byte, error) {
	return r.render(caseFileSheet, len(rows), generatedAt, func(i int) []any {
		f := rows[i]
		unit := ""
		if f.Unidad != nil {
			unit = f.Unidad.Clave + " - " + f.Unidad.Nombre
		}
		return []any{
			f.NumeroProgresivo, f.NumeroExpediente, f.FormulaClasificadora, unit,
			f.NombreExpediente, f.Asunto, f.TotalLegajos, f.TotalDocumentos, f.TotalFojas,
			r.date(&f.FechaApertura), r.date(f.FechaCierre), valores(f), string(f.ClasificacionInfo),
			string(f.Estado), f.UbicacionFisica,
		}
	})
}

func (r *Renderer) Loans(rows []domain.Loan, generatedAt time.Time) ([]byte, error) {
	return r.render(loanSheet, len(rows), generatedAt, func(i int) []any {
		l := rows[i]
		numero, formula := "", ""
		if l.Expediente != nil {
			numero, formula = l.Expediente.NumeroExpediente, l.Expediente.FormulaClasificadora
		}
		return []any{
			l.ID, numero, formula, summaryName(l.Usuario), summaryName(l.AutorizadoPor), string(l.Estado),
			r.dateTime(&l.FechaPrestamo), r.dateTime(&l.FechaDevolucionEsperada), r.dateTime(l.FechaDevolucionReal),
			yesNo(l.Vencido), l.MotivoPrestamo,
		}
	})
}

func (r *Renderer) Audit(rows []domain.AuditEntry, generatedAt time.Time) ([]byte, error) {
	return r.render(auditSheet, len(rows), generatedAt, func(i int) []any {
		a := rows[i]
		numero := ""
		if a.Expediente != nil {
			numero = a.Expediente.NumeroExpediente
		}
		user := summaryName(a.Usuario)
		if user == "" {
			user = fmt.Sprintf("#%d", a.UsuarioID)
		}
		return []any{
			a.ID, r.dateTime(&a.CreatedAt), user, string(a.Accion), a.Entidad, a.EntidadID,
			a.Descripcion, numero, a.IPAddress, a.UserAgent,
		}
	})
}

func (r *Renderer) render(layout sheetLayout, count int, generatedAt time.Time, row func(i int) []any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", layout.name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sheet := layout.name

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#691C32"}},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", layout.title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}

	const headerRow = 3
	for i, h := range layout.headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(layout.headers), headerRow)
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	footer, _ := excelize.CoordinatesToCellName(1, headerRow+count+2)
	summary := fmt.Sprintf("Total de registros: %d. Generado: %s", count, generatedAt.In(r.location).Format(dateTimeLayout))
	if err := f.SetCellValue(sheet, footer, summary); err != nil {
		return nil, err
	}

	for i, w := range layout.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: headerRow, TopLeftCell: "A4", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(r.location).Format(dateLayout)
}

func (r *Renderer) dateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(r.location).Format(dateTimeLayout)
}

func valores(f domain.CaseFile) string {
	var out []string
	if f.ValorAdministrativo {
		out = append(out, "Administrativo")
	}
	if f.ValorLegal {
		out = append(out, "Legal")
	}
	if f.ValorContable {
		out = append(out, "Contable")
	}
	if f.ValorFiscal {
		out = append(out, "Fiscal")
	}
	return strings.Join(out, ", ")
}

func summaryName(u *domain.UserSummary) string {
	if u == nil {
		return ""
	}
	if u.Nombre != "" {
		return u.Nombre
	}
	return u.Username
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
