package entity

import (
	"time"

	"gorm.io/gorm"
)

// ActividadFase unidad de trabajo dentro de una fase
type ActividadFase struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID   string     `json:"proceso_id" gorm:"size:32;not null;index"`
	FaseID      string     `json:"fase_id" gorm:"size:32;not null;index"`
	Fase        string     `json:"fase" gorm:"size:32;not null"`
	Titulo      string     `json:"titulo" gorm:"size:256;not null"`
	Descripcion string     `json:"descripcion" gorm:"type:text"`
	Tipo        string     `json:"tipo" gorm:"size:16;not null;default:TAREA"`
	Obligatoria bool       `json:"obligatoria" gorm:"not null;default:false"`
	Estado      string     `json:"estado" gorm:"size:20;not null;default:CREADA"`
	Orden       int        `json:"orden" gorm:"not null;default:0"`
	FechaInicio *time.Time `json:"fecha_inicio"`
	FechaLimite *time.Time `json:"fecha_limite"`
	FechaCierre *time.Time `json:"fecha_cierre"`

	// Bloqueo optimista
	Version int `json:"version" gorm:"not null;default:0"`

	CreadaPor string         `json:"creada_por" gorm:"size:32;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relaciones
	FaseProceso  *FaseProceso          `json:"fase_proceso,omitempty" gorm:"foreignKey:FaseID"`
	Requisitos   []RequisitoActividad  `json:"requisitos,omitempty" gorm:"foreignKey:ActividadID"`
	Evidencias   []EvidenciaActividad  `json:"evidencias,omitempty" gorm:"foreignKey:ActividadID"`
	Asignaciones []AsignacionActividad `json:"asignaciones,omitempty" gorm:"foreignKey:ActividadID"`
}

func (ActividadFase) TableName() string {
	return "actividades_fase"
}

// RequisitoActividad entregable esperado de una actividad
type RequisitoActividad struct {
	ID          string         `json:"id" gorm:"primaryKey;size:32"`
	ActividadID string         `json:"actividad_id" gorm:"size:32;not null;index"`
	Nombre      string         `json:"nombre" gorm:"size:256;not null"`
	Descripcion string         `json:"descripcion" gorm:"type:text"`
	Obligatorio bool           `json:"obligatorio" gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (RequisitoActividad) TableName() string {
	return "requisitos_actividad"
}

// AsignacionActividad usuario asignado a una actividad con un rol
type AsignacionActividad struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ActividadID string    `json:"actividad_id" gorm:"size:32;not null;uniqueIndex:idx_asignacion_unica"`
	UsuarioID   string    `json:"usuario_id" gorm:"size:32;not null;uniqueIndex:idx_asignacion_unica"`
	Rol         string    `json:"rol" gorm:"size:16;not null;uniqueIndex:idx_asignacion_unica"`
	CreatedAt   time.Time `json:"created_at"`

	// Relaciones
	Usuario *Usuario `json:"usuario,omitempty" gorm:"foreignKey:UsuarioID"`
}

func (AsignacionActividad) TableName() string {
	return "asignaciones_actividad"
}

// TipoActividad tipo de actividad
const (
	ActividadTipoDocumento = "DOCUMENTO"
	ActividadTipoReunion   = "REUNION"
	ActividadTipoTarea     = "TAREA"
	ActividadTipoRevision  = "REVISION"
	ActividadTipoOtro      = "OTRO"
)

// EstadoActividad estados de una actividad
const (
	ActividadEstadoCreada          = "CREADA"
	ActividadEstadoEnProgreso      = "EN_PROGRESO"
	ActividadEstadoEnRevision      = "EN_REVISION"
	ActividadEstadoObservada       = "OBSERVADA"
	ActividadEstadoListaParaCierre = "LISTA_PARA_CIERRE"
	ActividadEstadoAprobada        = "APROBADA"
	ActividadEstadoRechazada       = "RECHAZADA"
)

// TransicionesActividad transiciones explícitas válidas por estado actual.
// APROBADA es terminal: sin transiciones de salida.
var TransicionesActividad = map[string][]string{
	ActividadEstadoCreada:          {ActividadEstadoEnProgreso},
	ActividadEstadoEnProgreso:      {ActividadEstadoEnRevision, ActividadEstadoObservada},
	ActividadEstadoEnRevision:      {ActividadEstadoListaParaCierre, ActividadEstadoObservada},
	ActividadEstadoListaParaCierre: {ActividadEstadoObservada},
	ActividadEstadoObservada:       {ActividadEstadoEnProgreso, ActividadEstadoEnRevision},
	ActividadEstadoRechazada:       {ActividadEstadoEnProgreso},
	ActividadEstadoAprobada:        {},
}

// RolAsignacion roles de asignación sobre una actividad
const (
	RolResponsable  = "RESPONSABLE"
	RolRevisor      = "REVISOR"
	RolParticipante = "PARTICIPANTE"
)
