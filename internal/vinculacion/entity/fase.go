package entity

import "time"

// FaseProceso un ciclo de una fase dentro de un proceso.
// La misma fase puede tener varias filas históricas (retrocesos, relanzamientos);
// a lo sumo una fila ABIERTA por (proceso, fase) a la vez.
type FaseProceso struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID     string     `json:"proceso_id" gorm:"size:32;not null;index"`
	Fase          string     `json:"fase" gorm:"size:32;not null"`
	Estado        string     `json:"estado" gorm:"size:16;not null;default:ABIERTA"`
	FechaInicio   *time.Time `json:"fecha_inicio"`
	FechaFin      *time.Time `json:"fecha_fin"`
	ResponsableID *string    `json:"responsable_id" gorm:"size:32"`
	NotasCierre   string     `json:"notas_cierre" gorm:"type:text"`

	// Bloqueo optimista
	Version int `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relaciones
	Proceso     *Proceso        `json:"proceso,omitempty" gorm:"foreignKey:ProcesoID"`
	Responsable *Usuario        `json:"responsable,omitempty" gorm:"foreignKey:ResponsableID"`
	Actividades []ActividadFase `json:"actividades,omitempty" gorm:"foreignKey:FaseID"`
}

func (FaseProceso) TableName() string {
	return "fases_proceso"
}

// EstadoFase estado de una fase
const (
	FaseEstadoAbierta = "ABIERTA"
	FaseEstadoCerrada = "CERRADA"
)
