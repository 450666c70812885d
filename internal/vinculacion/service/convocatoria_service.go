package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConvocatoriaService retos tecnológicos, convocatorias y postulaciones
type ConvocatoriaService struct {
	convocatoriaRepo *repository.ConvocatoriaRepository
	procesoRepo      *repository.ProcesoRepository
	db               *gorm.DB
}

// NewConvocatoriaService crea el servicio de convocatorias
func NewConvocatoriaService(convocatoriaRepo *repository.ConvocatoriaRepository, procesoRepo *repository.ProcesoRepository, db *gorm.DB) *ConvocatoriaService {
	return &ConvocatoriaService{convocatoriaRepo: convocatoriaRepo, procesoRepo: procesoRepo, db: db}
}

// CrearRetoRequest crear reto tecnológico
type CrearRetoRequest struct {
	Codigo      string `json:"codigo" binding:"required"`
	Titulo      string `json:"titulo" binding:"required"`
	Descripcion string `json:"descripcion"`
}

// CrearConvocatoriaRequest crear convocatoria
type CrearConvocatoriaRequest struct {
	Codigo string `json:"codigo" binding:"required"`
}

// CrearPostulacionRequest crear postulación
type CrearPostulacionRequest struct {
	EmpresaID string `json:"empresa_id" binding:"required"`
	Propuesta string `json:"propuesta"`
}

// CrearReto crea el reto tecnológico de un proceso de requerimiento empresarial
func (s *ConvocatoriaService) CrearReto(ctx context.Context, procesoID string, req *CrearRetoRequest) (*entity.RetoTecnologico, error) {
	proceso, err := s.procesoRepo.FindByID(ctx, procesoID)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	if proceso.Tipo != entity.TipoRequerimientoEmpresarial {
		return nil, apperr.New(apperr.Validation, "solo un proceso de requerimiento empresarial puede tener reto")
	}
	if _, err := s.convocatoriaRepo.FindRetoByProceso(ctx, procesoID); err == nil {
		return nil, apperr.New(apperr.Conflict, "el proceso ya tiene un reto tecnológico")
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("consultar reto: %w", err)
	}

	reto := &entity.RetoTecnologico{
		ID:          uuid.New().String()[:32],
		ProcesoID:   procesoID,
		Codigo:      req.Codigo,
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
	}
	if err := s.convocatoriaRepo.CreateReto(ctx, reto); err != nil {
		return nil, fmt.Errorf("crear reto: %w", err)
	}
	return reto, nil
}

// GetReto obtiene el reto de un proceso
func (s *ConvocatoriaService) GetReto(ctx context.Context, procesoID string) (*entity.RetoTecnologico, error) {
	reto, err := s.convocatoriaRepo.FindRetoByProceso(ctx, procesoID)
	if err != nil {
		return nil, notFoundOr(err, "reto del proceso %s", procesoID)
	}
	return reto, nil
}

// Crear abre una convocatoria contra un reto
func (s *ConvocatoriaService) Crear(ctx context.Context, retoID string, req *CrearConvocatoriaRequest) (*entity.Convocatoria, error) {
	convocatoria := &entity.Convocatoria{
		ID:            uuid.New().String()[:32],
		RetoID:        retoID,
		Codigo:        req.Codigo,
		Estado:        entity.ConvocatoriaEstadoAbierta,
		FechaApertura: time.Now(),
	}
	if err := s.convocatoriaRepo.Create(ctx, convocatoria); err != nil {
		return nil, fmt.Errorf("crear convocatoria: %w", err)
	}
	return convocatoria, nil
}

// ListByReto lista las convocatorias de un reto
func (s *ConvocatoriaService) ListByReto(ctx context.Context, retoID string) ([]entity.Convocatoria, error) {
	return s.convocatoriaRepo.ListByReto(ctx, retoID)
}

// Cerrar cierra una convocatoria abierta
func (s *ConvocatoriaService) Cerrar(ctx context.Context, id string) (*entity.Convocatoria, error) {
	convocatoria, err := s.convocatoriaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "convocatoria %s", id)
	}
	if convocatoria.Estado != entity.ConvocatoriaEstadoAbierta {
		return nil, apperr.New(apperr.Validation, "la convocatoria no está abierta")
	}
	ahora := time.Now()
	convocatoria.Estado = entity.ConvocatoriaEstadoCerrada
	convocatoria.FechaCierre = &ahora
	if err := s.convocatoriaRepo.Update(ctx, convocatoria); err != nil {
		return nil, fmt.Errorf("cerrar convocatoria: %w", err)
	}
	return convocatoria, nil
}

// Postular registra la propuesta de una empresa a una convocatoria abierta
func (s *ConvocatoriaService) Postular(ctx context.Context, convocatoriaID string, req *CrearPostulacionRequest) (*entity.Postulacion, error) {
	convocatoria, err := s.convocatoriaRepo.FindByID(ctx, convocatoriaID)
	if err != nil {
		return nil, notFoundOr(err, "convocatoria %s", convocatoriaID)
	}
	if convocatoria.Estado != entity.ConvocatoriaEstadoAbierta {
		return nil, apperr.New(apperr.Validation, "la convocatoria no está abierta")
	}
	postulacion := &entity.Postulacion{
		ID:             uuid.New().String()[:32],
		ConvocatoriaID: convocatoriaID,
		EmpresaID:      req.EmpresaID,
		Estado:         entity.PostulacionEstadoRecibida,
		Propuesta:      req.Propuesta,
	}
	if err := s.convocatoriaRepo.CreatePostulacion(ctx, postulacion); err != nil {
		return nil, fmt.Errorf("crear postulación: %w", err)
	}
	return postulacion, nil
}

// ListPostulaciones postulaciones de una convocatoria
func (s *ConvocatoriaService) ListPostulaciones(ctx context.Context, convocatoriaID string) ([]entity.Postulacion, error) {
	return s.convocatoriaRepo.ListPostulaciones(ctx, convocatoriaID)
}

var sufijoRelanzamiento = regexp.MustCompile(`-R\d+$`)

// Relanzar crea una nueva convocatoria abierta a partir de la última cerrada.
// El código deriva del base sin sufijo de relanzamiento: CONV-2025-003 → CONV-2025-003-R1.
func (s *ConvocatoriaService) Relanzar(ctx context.Context, retoID string) (*entity.Convocatoria, error) {
	var nueva *entity.Convocatoria
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		nueva, err = s.RelanzarTx(ctx, tx, retoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return nueva, nil
}

// RelanzarTx relanzamiento dentro de una transacción existente
func (s *ConvocatoriaService) RelanzarTx(ctx context.Context, tx *gorm.DB, retoID string) (*entity.Convocatoria, error) {
	anterior, err := s.convocatoriaRepo.FindUltimaCerrada(ctx, retoID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.New(apperr.Validation, "el reto no tiene una convocatoria cerrada que relanzar")
		}
		return nil, fmt.Errorf("buscar convocatoria cerrada: %w", err)
	}

	base := sufijoRelanzamiento.ReplaceAllString(anterior.Codigo, "")
	n := anterior.Relanzamientos + 1

	nueva := &entity.Convocatoria{
		ID:             uuid.New().String()[:32],
		RetoID:         retoID,
		Codigo:         fmt.Sprintf("%s-R%d", base, n),
		Estado:         entity.ConvocatoriaEstadoAbierta,
		FechaApertura:  time.Now(),
		Relanzamientos: n,
	}
	if err := tx.Create(nueva).Error; err != nil {
		return nil, fmt.Errorf("crear relanzamiento: %w", err)
	}
	return nueva, nil
}
