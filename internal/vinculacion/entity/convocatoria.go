package entity

import (
	"time"

	"gorm.io/gorm"
)

// RetoTecnologico reto tecnológico asociado a un proceso de requerimiento empresarial
type RetoTecnologico struct {
	ID          string         `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID   string         `json:"proceso_id" gorm:"size:32;not null;index"`
	Codigo      string         `json:"codigo" gorm:"size:32;not null;uniqueIndex"`
	Titulo      string         `json:"titulo" gorm:"size:256;not null"`
	Descripcion string         `json:"descripcion" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relaciones
	Convocatorias []Convocatoria `json:"convocatorias,omitempty" gorm:"foreignKey:RetoID"`
}

func (RetoTecnologico) TableName() string {
	return "retos_tecnologicos"
}

// Convocatoria llamado a propuestas emitido contra un reto.
// Un relanzamiento crea una nueva fila con el contador incrementado y
// código derivado (CONV-2025-003 → CONV-2025-003-R1).
type Convocatoria struct {
	ID             string         `json:"id" gorm:"primaryKey;size:32"`
	RetoID         string         `json:"reto_id" gorm:"size:32;not null;index"`
	Codigo         string         `json:"codigo" gorm:"size:48;not null;uniqueIndex"`
	Estado         string         `json:"estado" gorm:"size:16;not null;default:ABIERTA"`
	FechaApertura  time.Time      `json:"fecha_apertura"`
	FechaCierre    *time.Time     `json:"fecha_cierre"`
	Relanzamientos int            `json:"relanzamientos" gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relaciones
	Postulaciones []Postulacion `json:"postulaciones,omitempty" gorm:"foreignKey:ConvocatoriaID"`
}

func (Convocatoria) TableName() string {
	return "convocatorias"
}

// Postulacion propuesta de una empresa a una convocatoria
type Postulacion struct {
	ID             string         `json:"id" gorm:"primaryKey;size:32"`
	ConvocatoriaID string         `json:"convocatoria_id" gorm:"size:32;not null;index"`
	EmpresaID      string         `json:"empresa_id" gorm:"size:32;not null"`
	Estado         string         `json:"estado" gorm:"size:20;not null;default:RECIBIDA"`
	Propuesta      string         `json:"propuesta" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Postulacion) TableName() string {
	return "postulaciones"
}

// Estado de convocatoria
const (
	ConvocatoriaEstadoAbierta = "ABIERTA"
	ConvocatoriaEstadoCerrada = "CERRADA"
)

// Estado de postulación
const (
	PostulacionEstadoRecibida     = "RECIBIDA"
	PostulacionEstadoEnEvaluacion = "EN_EVALUACION"
	PostulacionEstadoSeleccionada = "SELECCIONADA"
	PostulacionEstadoDescartada   = "DESCARTADA"
)
