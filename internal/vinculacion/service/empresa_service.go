package service

import (
	"context"
	"fmt"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
)

// EmpresaService catálogo de empresas
type EmpresaService struct {
	repo *repository.EmpresaRepository
}

// NewEmpresaService crea el servicio de empresas
func NewEmpresaService(repo *repository.EmpresaRepository) *EmpresaService {
	return &EmpresaService{repo: repo}
}

// CrearEmpresaRequest crear empresa
type CrearEmpresaRequest struct {
	RUC            string       `json:"ruc" binding:"required"`
	RazonSocial    string       `json:"razon_social" binding:"required"`
	Sector         string       `json:"sector"`
	ContactoNombre string       `json:"contacto_nombre"`
	ContactoEmail  string       `json:"contacto_email"`
	Metadata       entity.JSONB `json:"metadata"`
}

// ActualizarEmpresaRequest actualizar empresa
type ActualizarEmpresaRequest struct {
	RazonSocial    *string      `json:"razon_social"`
	Sector         *string      `json:"sector"`
	ContactoNombre *string      `json:"contacto_nombre"`
	ContactoEmail  *string      `json:"contacto_email"`
	Metadata       entity.JSONB `json:"metadata"`
}

// Get obtiene una empresa
func (s *EmpresaService) Get(ctx context.Context, id string) (*entity.Empresa, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "empresa %s", id)
	}
	return empresa, nil
}

// List lista empresas con búsqueda y paginación
func (s *EmpresaService) List(ctx context.Context, page, pageSize int, search string) ([]entity.Empresa, int64, error) {
	return s.repo.List(ctx, page, pageSize, search)
}

// Crear registra una empresa con RUC único
func (s *EmpresaService) Crear(ctx context.Context, req *CrearEmpresaRequest) (*entity.Empresa, error) {
	if _, err := s.repo.FindByRUC(ctx, req.RUC); err == nil {
		return nil, apperr.New(apperr.Conflict, "ya existe una empresa con RUC %s", req.RUC)
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("consultar RUC: %w", err)
	}

	empresa := &entity.Empresa{
		ID:             uuid.New().String()[:32],
		RUC:            req.RUC,
		RazonSocial:    req.RazonSocial,
		Sector:         req.Sector,
		ContactoNombre: req.ContactoNombre,
		ContactoEmail:  req.ContactoEmail,
		Metadata:       req.Metadata,
	}
	if err := s.repo.Create(ctx, empresa); err != nil {
		return nil, fmt.Errorf("crear empresa: %w", err)
	}
	return empresa, nil
}

// Actualizar actualiza los datos de una empresa
func (s *EmpresaService) Actualizar(ctx context.Context, id string, req *ActualizarEmpresaRequest) (*entity.Empresa, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "empresa %s", id)
	}
	if req.RazonSocial != nil {
		empresa.RazonSocial = *req.RazonSocial
	}
	if req.Sector != nil {
		empresa.Sector = *req.Sector
	}
	if req.ContactoNombre != nil {
		empresa.ContactoNombre = *req.ContactoNombre
	}
	if req.ContactoEmail != nil {
		empresa.ContactoEmail = *req.ContactoEmail
	}
	if req.Metadata != nil {
		empresa.Metadata = req.Metadata
	}
	if err := s.repo.Update(ctx, empresa); err != nil {
		return nil, fmt.Errorf("actualizar empresa: %w", err)
	}
	return empresa, nil
}
