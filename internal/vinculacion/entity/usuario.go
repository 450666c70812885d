package entity

import (
	"time"

	"gorm.io/gorm"
)

// Usuario usuario del sistema
type Usuario struct {
	ID        string         `json:"id" gorm:"primaryKey;size:32"`
	Email     string         `json:"email" gorm:"size:128;not null;uniqueIndex"`
	Nombre    string         `json:"nombre" gorm:"size:128;not null"`
	Rol       string         `json:"rol" gorm:"size:32;not null;default:GESTOR"`
	Activo    bool           `json:"activo" gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Usuario) TableName() string {
	return "usuarios"
}

// Roles de sistema
const (
	UsuarioRolAdmin  = "ADMIN"
	UsuarioRolGestor = "GESTOR"
)
