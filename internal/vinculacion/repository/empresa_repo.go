package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// EmpresaRepository repositorio de empresas y sus vínculos a procesos
type EmpresaRepository struct {
	db *gorm.DB
}

func NewEmpresaRepository(db *gorm.DB) *EmpresaRepository {
	return &EmpresaRepository{db: db}
}

// FindByID busca una empresa por ID
func (r *EmpresaRepository) FindByID(ctx context.Context, id string) (*entity.Empresa, error) {
	var e entity.Empresa
	err := r.db.WithContext(ctx).
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

// FindByRUC busca una empresa por RUC
func (r *EmpresaRepository) FindByRUC(ctx context.Context, ruc string) (*entity.Empresa, error) {
	var e entity.Empresa
	err := r.db.WithContext(ctx).
		Where("ruc = ?", ruc).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create crea una empresa
func (r *EmpresaRepository) Create(ctx context.Context, e *entity.Empresa) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update actualiza una empresa
func (r *EmpresaRepository) Update(ctx context.Context, e *entity.Empresa) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// List lista empresas con paginación
func (r *EmpresaRepository) List(ctx context.Context, page, pageSize int, search string) ([]entity.Empresa, int64, error) {
	var items []entity.Empresa
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Empresa{})
	if search != "" {
		query = query.Where("razon_social LIKE ? OR ruc LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("razon_social ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// === Vínculos proceso↔empresa ===

// FindVinculo busca el vínculo entre proceso y empresa
func (r *EmpresaRepository) FindVinculo(ctx context.Context, procesoID, empresaID string) (*entity.ProcesoEmpresa, error) {
	var v entity.ProcesoEmpresa
	err := r.db.WithContext(ctx).
		Where("proceso_id = ? AND empresa_id = ?", procesoID, empresaID).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// CreateVinculo crea un vínculo proceso↔empresa
func (r *EmpresaRepository) CreateVinculo(ctx context.Context, v *entity.ProcesoEmpresa) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// UpdateVinculo actualiza un vínculo proceso↔empresa
func (r *EmpresaRepository) UpdateVinculo(ctx context.Context, v *entity.ProcesoEmpresa) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// ListVinculosByProceso lista los vínculos del proceso con sus empresas
func (r *EmpresaRepository) ListVinculosByProceso(ctx context.Context, procesoID string) ([]entity.ProcesoEmpresa, error) {
	var vinculos []entity.ProcesoEmpresa
	err := r.db.WithContext(ctx).
		Preload("Empresa").
		Where("proceso_id = ?", procesoID).
		Order("fecha_vinculacion ASC").
		Find(&vinculos).Error
	return vinculos, err
}
