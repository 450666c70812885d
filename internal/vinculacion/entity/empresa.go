package entity

import (
	"time"

	"gorm.io/gorm"
)

// Empresa empresa participante en procesos de vinculación
type Empresa struct {
	ID             string         `json:"id" gorm:"primaryKey;size:32"`
	RUC            string         `json:"ruc" gorm:"size:16;not null;uniqueIndex"`
	RazonSocial    string         `json:"razon_social" gorm:"size:256;not null"`
	Sector         string         `json:"sector" gorm:"size:64"`
	ContactoNombre string         `json:"contacto_nombre" gorm:"size:128"`
	ContactoEmail  string         `json:"contacto_email" gorm:"size:128"`
	Metadata       JSONB          `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Empresa) TableName() string {
	return "empresas"
}

// ProcesoEmpresa vínculo empresa↔proceso
type ProcesoEmpresa struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:32"`
	ProcesoID           string     `json:"proceso_id" gorm:"size:32;not null;index"`
	EmpresaID           string     `json:"empresa_id" gorm:"size:32;not null;index"`
	Estado              string     `json:"estado" gorm:"size:16;not null;default:ACTIVA"`
	FechaVinculacion    time.Time  `json:"fecha_vinculacion"`
	FechaDesvinculacion *time.Time `json:"fecha_desvinculacion"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Relaciones
	Empresa *Empresa `json:"empresa,omitempty" gorm:"foreignKey:EmpresaID"`
}

func (ProcesoEmpresa) TableName() string {
	return "procesos_empresa"
}

// Estado del vínculo empresa↔proceso
const (
	VinculoEstadoActiva       = "ACTIVA"
	VinculoEstadoDesvinculada = "DESVINCULADA"
)
