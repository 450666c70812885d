package entity

import "time"

// Tablas de historial: append-only, escritas por el core y leídas solo
// para reportes. Nunca se usan para derivar estado.

// HistorialTRL cambio de TRL de un proceso
type HistorialTRL struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID     string    `json:"proceso_id" gorm:"size:32;not null;index"`
	TRLAnterior   *int      `json:"trl_anterior"`
	TRLNuevo      int       `json:"trl_nuevo" gorm:"not null"`
	Justificacion string    `json:"justificacion" gorm:"type:text"`
	RegistradoPor string    `json:"registrado_por" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`
}

func (HistorialTRL) TableName() string {
	return "historial_trl"
}

// HistorialEstado cambio de estado de un proceso
type HistorialEstado struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID      string    `json:"proceso_id" gorm:"size:32;not null;index"`
	EstadoAnterior string    `json:"estado_anterior" gorm:"size:16"`
	EstadoNuevo    string    `json:"estado_nuevo" gorm:"size:16;not null"`
	Motivo         string    `json:"motivo" gorm:"type:text"`
	RegistradoPor  string    `json:"registrado_por" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
}

func (HistorialEstado) TableName() string {
	return "historial_estado"
}

// HistorialFase cambio de fase de un proceso
type HistorialFase struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID     string    `json:"proceso_id" gorm:"size:32;not null;index"`
	FaseAnterior  string    `json:"fase_anterior" gorm:"size:32"`
	FaseNueva     string    `json:"fase_nueva" gorm:"size:32;not null"`
	DecisionID    *string   `json:"decision_id" gorm:"size:32"`
	RegistradoPor string    `json:"registrado_por" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`
}

func (HistorialFase) TableName() string {
	return "historial_fase"
}

// HistorialEmpresa vinculación/desvinculación de empresa
type HistorialEmpresa struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID     string    `json:"proceso_id" gorm:"size:32;not null;index"`
	EmpresaID     string    `json:"empresa_id" gorm:"size:32;not null"`
	Accion        string    `json:"accion" gorm:"size:20;not null"`
	RegistradoPor string    `json:"registrado_por" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`
}

func (HistorialEmpresa) TableName() string {
	return "historial_empresa"
}

// HistorialActividad evento sobre una actividad o su evidencia
type HistorialActividad struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID      string    `json:"proceso_id" gorm:"size:32;not null;index"`
	ActividadID    string    `json:"actividad_id" gorm:"size:32;not null;index"`
	EvidenciaID    *string   `json:"evidencia_id" gorm:"size:32"`
	Accion         string    `json:"accion" gorm:"size:32;not null"`
	EstadoAnterior string    `json:"estado_anterior" gorm:"size:20"`
	EstadoNuevo    string    `json:"estado_nuevo" gorm:"size:20"`
	Detalle        string    `json:"detalle" gorm:"type:text"`
	RegistradoPor  string    `json:"registrado_por" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
}

func (HistorialActividad) TableName() string {
	return "historial_actividad"
}

// Acciones de historial de actividad
const (
	AccionEstadoCambiado     = "ESTADO_CAMBIADO"
	AccionActividadAprobada  = "APROBADA"
	AccionEvidenciaSubida    = "EVIDENCIA_SUBIDA"
	AccionEvidenciaAprobada  = "EVIDENCIA_APROBADA"
	AccionEvidenciaRechazada = "EVIDENCIA_RECHAZADA"
)

// Acciones de historial de empresa
const (
	AccionEmpresaVinculada    = "VINCULADA"
	AccionEmpresaDesvinculada = "DESVINCULADA"
)
