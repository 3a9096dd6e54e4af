package domain

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditCreate   AuditAction = "CREAR"
	AuditUpdate   AuditAction = "ACTUALIZAR"
	AuditDelete   AuditAction = "ELIMINAR"
	AuditQuery    AuditAction = "CONSULTAR"
	AuditLoan     AuditAction = "PRESTAR"
	AuditReturn   AuditAction = "DEVOLVER"
	AuditTransfer AuditAction = "TRANSFERIR"
	AuditLogin    AuditAction = "LOGIN"
	AuditLogout   AuditAction = "LOGOUT"
)

func AllAuditActions() []string {
	return []string{
		string(AuditCreate),
		string(AuditUpdate),
		string(AuditDelete),
		string(AuditQuery),
		string(AuditLoan),
		string(AuditReturn),
		string(AuditTransfer),
		string(AuditLogin),
		string(AuditLogout),
	}
}

func (a AuditAction) Valid() bool {
	for _, v := range AllAuditActions() {
		if string(a) == v {
			return true
		}
	}
	return false
}

// Entity names written to AuditEntry.Entidad.
const (
	EntityCaseFile = "Expediente"
	EntityLoan     = "Prestamo"
	EntityUser     = "Usuario"
	EntityCatalog  = "Catalogo"
)

type AuditEntry struct {
	ID           int64           `json:"id"`
	UsuarioID    int64           `json:"usuarioId"`
	Accion       AuditAction     `json:"accion"`
	Entidad      string          `json:"entidad"`
	EntidadID    string          `json:"entidadId"`
	Descripcion  string          `json:"descripcion"`
	DatosPrevios json.RawMessage `json:"datosPrevios,omitempty"`
	DatosNuevos  json.RawMessage `json:"datosNuevos,omitempty"`
	ExpedienteID *int64          `json:"expedienteId,omitempty"`
	IPAddress    string          `json:"ipAddress"`
	UserAgent    string          `json:"userAgent"`
	CreatedAt    time.Time       `json:"createdAt"`

	Usuario    *UserSummary     `json:"usuario,omitempty"`
	Expediente *CaseFileSummary `json:"expediente,omitempty"`
}

type AuditFilter struct {
	Accion     AuditAction
	Entidad    string
	UserID     *int64
	CaseFileID *int64
	From       *time.Time
	To         *time.Time
	Page       Page
}

type ActionCount struct {
	Accion string `json:"accion"`
	Total  int    `json:"total"`
}

type EntityCount struct {
	Entidad string `json:"entidad"`
	Total   int    `json:"total"`
}

type UserActivity struct {
	UsuarioID int64  `json:"usuarioId"`
	Username  string `json:"username,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Total     int    `json:"total"`
}

type AuditStatistics struct {
	Total     int            `json:"total"`
	ByAction  []ActionCount  `json:"porAccion"`
	ByEntity  []EntityCount  `json:"porEntidad"`
	TopUsers  []UserActivity `json:"usuariosMasActivos"`
	RangeFrom *time.Time     `json:"desde,omitempty"`
	RangeTo   *time.Time     `json:"hasta,omitempty"`
}

// Snapshot marshals v for DatosPrevios/DatosNuevos. Unmarshalable values yield nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
