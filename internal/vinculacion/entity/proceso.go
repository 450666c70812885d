package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JSONB tipo JSONB
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// Proceso proceso de vinculación tecnológica
type Proceso struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	Codigo        string `json:"codigo" gorm:"size:32;not null;uniqueIndex"`
	Titulo        string `json:"titulo" gorm:"size:256;not null"`
	Tipo          string `json:"tipo" gorm:"size:32;not null"`
	Estado        string `json:"estado" gorm:"size:16;not null;default:ACTIVO"`
	FaseActual    string `json:"fase_actual" gorm:"size:32;not null"`
	TRLActual     *int   `json:"trl_actual"`
	Descripcion   string `json:"descripcion" gorm:"type:text"`
	ResponsableID string `json:"responsable_id" gorm:"size:32;not null"`
	Metadata      JSONB  `json:"metadata" gorm:"type:jsonb"`

	// Contadores denormalizados, cache derivado de las actividades (no fuente de verdad)
	ActividadesTotal       int `json:"actividades_total" gorm:"not null;default:0"`
	ActividadesCompletadas int `json:"actividades_completadas" gorm:"not null;default:0"`
	ActividadesPendientes  int `json:"actividades_pendientes" gorm:"not null;default:0"`
	ActividadesObservadas  int `json:"actividades_observadas" gorm:"not null;default:0"`
	EmpresasVinculadas     int `json:"empresas_vinculadas" gorm:"not null;default:0"`

	// Bloqueo optimista
	Version int `json:"version" gorm:"not null;default:0"`

	CreadoPor string         `json:"creado_por" gorm:"size:32;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relaciones
	Responsable *Usuario      `json:"responsable,omitempty" gorm:"foreignKey:ResponsableID"`
	Fases       []FaseProceso `json:"fases,omitempty" gorm:"foreignKey:ProcesoID"`
}

func (Proceso) TableName() string {
	return "procesos_vinculacion"
}

// TipoProceso tipo de activo en transferencia
const (
	TipoPatente                  = "PATENTE"
	TipoRequerimientoEmpresarial = "REQUERIMIENTO_EMPRESARIAL"
)

// EstadoProceso estado del proceso
const (
	ProcesoEstadoActivo     = "ACTIVO"
	ProcesoEstadoPausado    = "PAUSADO"
	ProcesoEstadoFinalizado = "FINALIZADO"
	ProcesoEstadoCancelado  = "CANCELADO"
)

// Fases de patente
const (
	FaseCaracterizacion = "CARACTERIZACION"
	FaseEnriquecimiento = "ENRIQUECIMIENTO"
	FaseMatch           = "MATCH"
	FaseEscalamiento    = "ESCALAMIENTO"
	FaseTransferencia   = "TRANSFERENCIA"
)

// Fases de requerimiento empresarial
const (
	FaseFormulacionReto = "FORMULACION_RETO"
	FaseConvocatoria    = "CONVOCATORIA"
	FasePostulacion     = "POSTULACION"
	FaseSeleccion       = "SELECCION"
	FaseAnteproyecto    = "ANTEPROYECTO"
	FaseEjecucion       = "EJECUCION"
	FaseCierre          = "CIERRE"
)

// SecuenciaFases secuencia fija de fases por tipo de proceso
var SecuenciaFases = map[string][]string{
	TipoPatente: {
		FaseCaracterizacion,
		FaseEnriquecimiento,
		FaseMatch,
		FaseEscalamiento,
		FaseTransferencia,
	},
	TipoRequerimientoEmpresarial: {
		FaseFormulacionReto,
		FaseConvocatoria,
		FasePostulacion,
		FaseSeleccion,
		FaseAnteproyecto,
		FaseEjecucion,
		FaseCierre,
	},
}

// BandasTRL banda TRL permitida por fase de patente [min, max]
var BandasTRL = map[string][2]int{
	FaseCaracterizacion: {1, 3},
	FaseEnriquecimiento: {3, 5},
	FaseMatch:           {4, 6},
	FaseEscalamiento:    {6, 8},
	FaseTransferencia:   {7, 9},
}

// FaseInicial primera fase de la secuencia del tipo
func FaseInicial(tipo string) (string, bool) {
	seq, ok := SecuenciaFases[tipo]
	if !ok || len(seq) == 0 {
		return "", false
	}
	return seq[0], true
}

// FaseTerminal última fase de la secuencia del tipo
func FaseTerminal(tipo string) (string, bool) {
	seq, ok := SecuenciaFases[tipo]
	if !ok || len(seq) == 0 {
		return "", false
	}
	return seq[len(seq)-1], true
}

// SiguienteFase fase siguiente en la secuencia; false si es terminal o no pertenece
func SiguienteFase(tipo, fase string) (string, bool) {
	seq, ok := SecuenciaFases[tipo]
	if !ok {
		return "", false
	}
	for i, f := range seq {
		if f == fase {
			if i+1 < len(seq) {
				return seq[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// FaseValida true si la fase pertenece a la secuencia del tipo
func FaseValida(tipo, fase string) bool {
	for _, f := range SecuenciaFases[tipo] {
		if f == fase {
			return true
		}
	}
	return false
}
