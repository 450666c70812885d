package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
)

// FaseService compuerta de cierre de fases
type FaseService struct {
	faseRepo    *repository.FaseRepository
	procesoRepo *repository.ProcesoRepository
}

// NewFaseService crea el servicio de fases
func NewFaseService(faseRepo *repository.FaseRepository, procesoRepo *repository.ProcesoRepository) *FaseService {
	return &FaseService{faseRepo: faseRepo, procesoRepo: procesoRepo}
}

// Get obtiene una fase
func (s *FaseService) Get(ctx context.Context, id string) (*entity.FaseProceso, error) {
	fase, err := s.faseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "fase %s", id)
	}
	return fase, nil
}

// ListByProceso historial de ciclos de fase del proceso, en orden de creación
func (s *FaseService) ListByProceso(ctx context.Context, procesoID string) ([]entity.FaseProceso, error) {
	if _, err := s.procesoRepo.FindByID(ctx, procesoID); err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	return s.faseRepo.ListByProceso(ctx, procesoID)
}

// PuedeCerrar true cuando la fase no tiene actividades obligatorias sin aprobar.
// Única condición de admisión para avanzar o finalizar: no consulta evidencias,
// solo el estado de las actividades.
func (s *FaseService) PuedeCerrar(ctx context.Context, faseID string) (bool, error) {
	if _, err := s.faseRepo.FindByID(ctx, faseID); err != nil {
		return false, notFoundOr(err, "fase %s", faseID)
	}
	n, err := s.faseRepo.CountObligatoriasNoAprobadas(ctx, faseID)
	if err != nil {
		return false, fmt.Errorf("contar obligatorias pendientes: %w", err)
	}
	return n == 0, nil
}

// validarCompuertaFase devuelve Validation nombrando las actividades pendientes
func validarCompuertaFase(ctx context.Context, faseRepo *repository.FaseRepository, faseID string) error {
	pendientes, err := faseRepo.ListObligatoriasNoAprobadas(ctx, faseID)
	if err != nil {
		return fmt.Errorf("listar obligatorias pendientes: %w", err)
	}
	if len(pendientes) == 0 {
		return nil
	}
	titulos := make([]string, len(pendientes))
	for i, a := range pendientes {
		titulos[i] = a.Titulo
	}
	return apperr.New(apperr.Validation,
		"la fase tiene actividades obligatorias sin aprobar: %s", strings.Join(titulos, ", "))
}

// Cerrar cierra una fase abierta tras validar la compuerta.
// No mueve el puntero de fase del proceso; eso es trabajo del motor de decisiones.
func (s *FaseService) Cerrar(ctx context.Context, faseID, notas string) (*entity.FaseProceso, error) {
	fase, err := s.faseRepo.FindByID(ctx, faseID)
	if err != nil {
		return nil, notFoundOr(err, "fase %s", faseID)
	}
	if fase.Estado != entity.FaseEstadoAbierta {
		return nil, apperr.New(apperr.Validation, "la fase no está abierta")
	}
	if err := validarCompuertaFase(ctx, s.faseRepo, faseID); err != nil {
		return nil, err
	}

	ahora := time.Now()
	fase.Estado = entity.FaseEstadoCerrada
	fase.FechaFin = &ahora
	fase.NotasCierre = notas
	if err := s.faseRepo.Update(ctx, fase); err != nil {
		return nil, updateErr(err, "cerrar fase")
	}
	return fase, nil
}
