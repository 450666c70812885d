package repository

import (
	"context"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// DecisionRepository repositorio de decisiones de fase.
// Solo inserción y lectura: las decisiones son inmutables.
type DecisionRepository struct {
	db *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Create registra una decisión
func (r *DecisionRepository) Create(ctx context.Context, d *entity.DecisionFase) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// ListByProceso lista las decisiones del proceso, más reciente primero
func (r *DecisionRepository) ListByProceso(ctx context.Context, procesoID string) ([]entity.DecisionFase, error) {
	var decisiones []entity.DecisionFase
	err := r.db.WithContext(ctx).
		Preload("Decisor").
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&decisiones).Error
	return decisiones, err
}
