package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// EvidenciaRepository repositorio de evidencias
type EvidenciaRepository struct {
	db *gorm.DB
}

func NewEvidenciaRepository(db *gorm.DB) *EvidenciaRepository {
	return &EvidenciaRepository{db: db}
}

// FindByID busca una evidencia por ID
func (r *EvidenciaRepository) FindByID(ctx context.Context, id string) (*entity.EvidenciaActividad, error) {
	var e entity.EvidenciaActividad
	err := r.db.WithContext(ctx).
		Preload("Requisito").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByActividad lista evidencias no eliminadas de la actividad, versión ascendente
func (r *EvidenciaRepository) ListByActividad(ctx context.Context, actividadID string) ([]entity.EvidenciaActividad, error) {
	var evidencias []entity.EvidenciaActividad
	err := r.db.WithContext(ctx).
		Where("actividad_id = ?", actividadID).
		Order("version ASC").
		Find(&evidencias).Error
	return evidencias, err
}

// NextVersion asigna la siguiente versión de la secuencia por actividad.
// Debe invocarse con el tx de la creación para que la monotonía sea un
// invariante de la transacción y no un efecto de un max() suelto.
func (r *EvidenciaRepository) NextVersion(ctx context.Context, tx *gorm.DB, actividadID string) (int, error) {
	var max int
	err := tx.WithContext(ctx).Model(&entity.EvidenciaActividad{}).
		Unscoped().
		Where("actividad_id = ?", actividadID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Create crea una evidencia
func (r *EvidenciaRepository) Create(ctx context.Context, e *entity.EvidenciaActividad) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update actualiza una evidencia
func (r *EvidenciaRepository) Update(ctx context.Context, e *entity.EvidenciaActividad) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Delete elimina (soft) una evidencia
func (r *EvidenciaRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.EvidenciaActividad{}).Error
}
