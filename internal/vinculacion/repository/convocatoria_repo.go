package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// ConvocatoriaRepository repositorio de retos, convocatorias y postulaciones
type ConvocatoriaRepository struct {
	db *gorm.DB
}

func NewConvocatoriaRepository(db *gorm.DB) *ConvocatoriaRepository {
	return &ConvocatoriaRepository{db: db}
}

// FindRetoByProceso busca el reto tecnológico asociado al proceso
func (r *ConvocatoriaRepository) FindRetoByProceso(ctx context.Context, procesoID string) (*entity.RetoTecnologico, error) {
	var reto entity.RetoTecnologico
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		First(&reto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reto, nil
}

// CreateReto crea un reto tecnológico
func (r *ConvocatoriaRepository) CreateReto(ctx context.Context, reto *entity.RetoTecnologico) error {
	return r.db.WithContext(ctx).Create(reto).Error
}

// FindByID busca una convocatoria por ID
func (r *ConvocatoriaRepository) FindByID(ctx context.Context, id string) (*entity.Convocatoria, error) {
	var c entity.Convocatoria
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindUltimaCerrada busca la convocatoria cerrada más reciente del reto
func (r *ConvocatoriaRepository) FindUltimaCerrada(ctx context.Context, retoID string) (*entity.Convocatoria, error) {
	var c entity.Convocatoria
	err := r.db.WithContext(ctx).
		Where("reto_id = ? AND estado = ?", retoID, entity.ConvocatoriaEstadoCerrada).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByReto lista las convocatorias del reto
func (r *ConvocatoriaRepository) ListByReto(ctx context.Context, retoID string) ([]entity.Convocatoria, error) {
	var items []entity.Convocatoria
	err := r.db.WithContext(ctx).
		Where("reto_id = ?", retoID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// Create crea una convocatoria
func (r *ConvocatoriaRepository) Create(ctx context.Context, c *entity.Convocatoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update actualiza una convocatoria
func (r *ConvocatoriaRepository) Update(ctx context.Context, c *entity.Convocatoria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// CountSeleccionadas cuenta postulaciones SELECCIONADA de la convocatoria
func (r *ConvocatoriaRepository) CountSeleccionadas(ctx context.Context, convocatoriaID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Postulacion{}).
		Where("convocatoria_id = ? AND estado = ?", convocatoriaID, entity.PostulacionEstadoSeleccionada).
		Count(&n).Error
	return n, err
}

// CreatePostulacion crea una postulación
func (r *ConvocatoriaRepository) CreatePostulacion(ctx context.Context, p *entity.Postulacion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ListPostulaciones lista las postulaciones de la convocatoria
func (r *ConvocatoriaRepository) ListPostulaciones(ctx context.Context, convocatoriaID string) ([]entity.Postulacion, error) {
	var items []entity.Postulacion
	err := r.db.WithContext(ctx).
		Where("convocatoria_id = ?", convocatoriaID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
