package entity

import (
	"time"

	"gorm.io/gorm"
)

// EvidenciaActividad entrega versionada contra un requisito (o "extra" sin requisito).
// La versión es monotónica por actividad, compartida entre todos sus requisitos;
// la evidencia vigente de un requisito es la de mayor versión.
type EvidenciaActividad struct {
	ID          string  `json:"id" gorm:"primaryKey;size:32"`
	ActividadID string  `json:"actividad_id" gorm:"size:32;not null;index"`
	RequisitoID *string `json:"requisito_id" gorm:"size:32;index"`
	Version     int     `json:"version" gorm:"not null"`
	Tipo        string  `json:"tipo" gorm:"size:16;not null;default:ARCHIVO"`
	Estado      string  `json:"estado" gorm:"size:16;not null;default:PENDIENTE"`

	// Referencia al blob externo; el core nunca inspecciona el contenido
	ArchivoPath   string `json:"archivo_path" gorm:"size:512"`
	ArchivoNombre string `json:"archivo_nombre" gorm:"size:256"`
	ArchivoTamano int64  `json:"archivo_tamano"`
	MimeType      string `json:"mime_type" gorm:"size:128"`
	URL           string `json:"url" gorm:"size:512"`

	SubidaPor          string     `json:"subida_por" gorm:"size:32;not null"`
	RevisadaPor        *string    `json:"revisada_por" gorm:"size:32"`
	ComentarioRevision string     `json:"comentario_revision" gorm:"type:text"`
	FechaRevision      *time.Time `json:"fecha_revision"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relaciones
	Requisito *RequisitoActividad `json:"requisito,omitempty" gorm:"foreignKey:RequisitoID"`
	Revisor   *Usuario            `json:"revisor,omitempty" gorm:"foreignKey:RevisadaPor"`
}

func (EvidenciaActividad) TableName() string {
	return "evidencias_actividad"
}

// TipoEvidencia tipo de evidencia
const (
	EvidenciaTipoArchivo = "ARCHIVO"
	EvidenciaTipoEnlace  = "ENLACE"
)

// EstadoEvidencia estado de revisión de la evidencia
const (
	EvidenciaEstadoPendiente = "PENDIENTE"
	EvidenciaEstadoAprobada  = "APROBADA"
	EvidenciaEstadoRechazada = "RECHAZADA"
)
