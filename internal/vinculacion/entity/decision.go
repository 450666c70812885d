package entity

import "time"

// DecisionFase registro inmutable de una decisión de cierre de fase.
// Append-only: nunca se actualiza ni elimina.
type DecisionFase struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID     string    `json:"proceso_id" gorm:"size:32;not null;index"`
	FaseID        string    `json:"fase_id" gorm:"size:32;not null"`
	Decision      string    `json:"decision" gorm:"size:32;not null"`
	Justificacion string    `json:"justificacion" gorm:"type:text;not null"`
	FaseDestino   *string   `json:"fase_destino" gorm:"size:32"`
	DecididaPor   string    `json:"decidida_por" gorm:"size:32;not null"`
	CreatedAt     time.Time `json:"created_at"`

	// Relaciones
	Decisor *Usuario `json:"decisor,omitempty" gorm:"foreignKey:DecididaPor"`
}

func (DecisionFase) TableName() string {
	return "decisiones_fase"
}

// Decisiones de fase
const (
	DecisionContinuar            = "CONTINUAR"
	DecisionRetroceder           = "RETROCEDER"
	DecisionPausar               = "PAUSAR"
	DecisionCancelar             = "CANCELAR"
	DecisionFinalizar            = "FINALIZAR"
	DecisionRelanzarConvocatoria = "RELANZAR_CONVOCATORIA"
)
