package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// FaseRepository repositorio de fases de proceso
type FaseRepository struct {
	db *gorm.DB
}

func NewFaseRepository(db *gorm.DB) *FaseRepository {
	return &FaseRepository{db: db}
}

// FindByID busca una fase por ID
func (r *FaseRepository) FindByID(ctx context.Context, id string) (*entity.FaseProceso, error) {
	var fase entity.FaseProceso
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&fase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fase, nil
}

// FindAbierta busca la fila ABIERTA de una fase del proceso
func (r *FaseRepository) FindAbierta(ctx context.Context, procesoID, fase string) (*entity.FaseProceso, error) {
	var f entity.FaseProceso
	err := r.db.WithContext(ctx).
		Where("proceso_id = ? AND fase = ? AND estado = ?", procesoID, fase, entity.FaseEstadoAbierta).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// FindUltimaByFase busca la fila más reciente (por creación) de una fase del proceso
func (r *FaseRepository) FindUltimaByFase(ctx context.Context, procesoID, fase string) (*entity.FaseProceso, error) {
	var f entity.FaseProceso
	err := r.db.WithContext(ctx).
		Where("proceso_id = ? AND fase = ?", procesoID, fase).
		Order("created_at DESC").
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByProceso lista todas las filas de fase del proceso (historial de ciclos incluido)
func (r *FaseRepository) ListByProceso(ctx context.Context, procesoID string) ([]entity.FaseProceso, error) {
	var fases []entity.FaseProceso
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at ASC").
		Find(&fases).Error
	return fases, err
}

// Create crea una fila de fase
func (r *FaseRepository) Create(ctx context.Context, f *entity.FaseProceso) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// Update actualiza una fase con chequeo de versión optimista
func (r *FaseRepository) Update(ctx context.Context, f *entity.FaseProceso) error {
	return OptimisticUpdate(r.db.WithContext(ctx), f, &f.Version)
}

// CountObligatoriasNoAprobadas cuenta actividades obligatorias no aprobadas de la fase.
// Es el único chequeo de admisión del gate de cierre.
func (r *FaseRepository) CountObligatoriasNoAprobadas(ctx context.Context, faseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ActividadFase{}).
		Where("fase_id = ? AND obligatoria = ? AND estado <> ?", faseID, true, entity.ActividadEstadoAprobada).
		Count(&n).Error
	return n, err
}

// ListObligatoriasNoAprobadas lista las actividades que bloquean el cierre de la fase
func (r *FaseRepository) ListObligatoriasNoAprobadas(ctx context.Context, faseID string) ([]entity.ActividadFase, error) {
	var actividades []entity.ActividadFase
	err := r.db.WithContext(ctx).
		Where("fase_id = ? AND obligatoria = ? AND estado <> ?", faseID, true, entity.ActividadEstadoAprobada).
		Order("orden ASC").
		Find(&actividades).Error
	return actividades, err
}
