package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// UsuarioRepository repositorio de usuarios
type UsuarioRepository struct {
	db *gorm.DB
}

func NewUsuarioRepository(db *gorm.DB) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

// FindByID busca un usuario por ID
func (r *UsuarioRepository) FindByID(ctx context.Context, id string) (*entity.Usuario, error) {
	var u entity.Usuario
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail busca un usuario por email
func (r *UsuarioRepository) FindByEmail(ctx context.Context, email string) (*entity.Usuario, error) {
	var u entity.Usuario
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create crea un usuario
func (r *UsuarioRepository) Create(ctx context.Context, u *entity.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// ListActivos lista usuarios activos
func (r *UsuarioRepository) ListActivos(ctx context.Context) ([]entity.Usuario, error) {
	var usuarios []entity.Usuario
	err := r.db.WithContext(ctx).
		Where("activo = ?", true).
		Order("nombre ASC").
		Find(&usuarios).Error
	return usuarios, err
}
