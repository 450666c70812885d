package service

import (
	"context"
	"fmt"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
)

// UsuarioService usuarios del sistema
type UsuarioService struct {
	repo *repository.UsuarioRepository
}

// NewUsuarioService crea el servicio de usuarios
func NewUsuarioService(repo *repository.UsuarioRepository) *UsuarioService {
	return &UsuarioService{repo: repo}
}

// CrearUsuarioRequest crear usuario
type CrearUsuarioRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Nombre string `json:"nombre" binding:"required"`
	Rol    string `json:"rol"`
}

// Get obtiene un usuario
func (s *UsuarioService) Get(ctx context.Context, id string) (*entity.Usuario, error) {
	usuario, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "usuario %s", id)
	}
	return usuario, nil
}

// ListActivos usuarios activos
func (s *UsuarioService) ListActivos(ctx context.Context) ([]entity.Usuario, error) {
	return s.repo.ListActivos(ctx)
}

// Crear registra un usuario con email único
func (s *UsuarioService) Crear(ctx context.Context, req *CrearUsuarioRequest) (*entity.Usuario, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.Conflict, "ya existe un usuario con email %s", req.Email)
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("consultar email: %w", err)
	}

	rol := req.Rol
	if rol == "" {
		rol = entity.UsuarioRolGestor
	}
	usuario := &entity.Usuario{
		ID:     uuid.New().String()[:32],
		Email:  req.Email,
		Nombre: req.Nombre,
		Rol:    rol,
		Activo: true,
	}
	if err := s.repo.Create(ctx, usuario); err != nil {
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	return usuario, nil
}
