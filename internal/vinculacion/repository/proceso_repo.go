package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcesoRepository repositorio de procesos
type ProcesoRepository struct {
	db *gorm.DB
}

func NewProcesoRepository(db *gorm.DB) *ProcesoRepository {
	return &ProcesoRepository{db: db}
}

// FindByID busca un proceso por ID
func (r *ProcesoRepository) FindByID(ctx context.Context, id string) (*entity.Proceso, error) {
	var proceso entity.Proceso
	err := r.db.WithContext(ctx).
		Preload("Responsable").
		Where("id = ?", id).
		First(&proceso).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &proceso, nil
}

// List lista procesos con filtros y paginación
func (r *ProcesoRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Proceso, int64, error) {
	var items []entity.Proceso
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Proceso{})

	if tipo := filters["tipo"]; tipo != "" {
		query = query.Where("tipo = ?", tipo)
	}
	if estado := filters["estado"]; estado != "" {
		query = query.Where("estado = ?", estado)
	}
	if fase := filters["fase"]; fase != "" {
		query = query.Where("fase_actual = ?", fase)
	}
	if responsable := filters["responsable_id"]; responsable != "" {
		query = query.Where("responsable_id = ?", responsable)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Responsable").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// Create crea un proceso
func (r *ProcesoRepository) Create(ctx context.Context, p *entity.Proceso) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update actualiza un proceso con chequeo de versión optimista
func (r *ProcesoRepository) Update(ctx context.Context, p *entity.Proceso) error {
	return OptimisticUpdate(r.db.WithContext(ctx), p, &p.Version)
}

// UpdateContadores escribe los contadores denormalizados sin tocar la versión.
// Los contadores son un cache derivado; la escritura dirigida evita pisar
// escrituras concurrentes del resto de la fila.
func (r *ProcesoRepository) UpdateContadores(ctx context.Context, procesoID string, c *ContadoresProceso) error {
	return r.db.WithContext(ctx).Model(&entity.Proceso{}).
		Where("id = ?", procesoID).
		Updates(map[string]interface{}{
			"actividades_total":       c.Total,
			"actividades_completadas": c.Completadas,
			"actividades_pendientes":  c.Pendientes,
			"actividades_observadas":  c.Observadas,
			"empresas_vinculadas":     c.Empresas,
		}).Error
}

// Delete elimina (soft) un proceso
func (r *ProcesoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.Proceso{}).Error
}

// GenerateCode genera el código del proceso según tipo (PV-2025-001 / RE-2025-001)
func (r *ProcesoRepository) GenerateCode(ctx context.Context, tipo string) (string, error) {
	prefix := "PV"
	if tipo == entity.TipoRequerimientoEmpresarial {
		prefix = "RE"
	}
	year := time.Now().Year()
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)

	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Proceso{}).
		Unscoped().
		Where("codigo LIKE ?", pattern).
		Count(&count).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%03d", prefix, year, count+1), nil
}

// ContadoresProceso agregados de actividades y empresas de un proceso
type ContadoresProceso struct {
	Total       int
	Completadas int
	Pendientes  int
	Observadas  int
	Empresas    int
}

// CalcularContadores agrega actividades por estado y empresas activas (solo patentes)
func (r *ProcesoRepository) CalcularContadores(ctx context.Context, procesoID, tipo string) (*ContadoresProceso, error) {
	type fila struct {
		Estado string
		N      int
	}
	var filas []fila
	err := r.db.WithContext(ctx).Model(&entity.ActividadFase{}).
		Select("estado, count(*) as n").
		Where("proceso_id = ?", procesoID).
		Group("estado").
		Scan(&filas).Error
	if err != nil {
		return nil, err
	}

	c := &ContadoresProceso{}
	for _, f := range filas {
		c.Total += f.N
		switch f.Estado {
		case entity.ActividadEstadoAprobada:
			c.Completadas += f.N
		case entity.ActividadEstadoCreada, entity.ActividadEstadoEnProgreso, entity.ActividadEstadoEnRevision:
			c.Pendientes += f.N
		case entity.ActividadEstadoObservada:
			c.Observadas += f.N
		}
	}

	if tipo == entity.TipoPatente {
		var n int64
		err = r.db.WithContext(ctx).Model(&entity.ProcesoEmpresa{}).
			Where("proceso_id = ? AND estado = ?", procesoID, entity.VinculoEstadoActiva).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		c.Empresas = int(n)
	}

	return c, nil
}

// CountFasesAbiertas cuenta fases abiertas del proceso
func (r *ProcesoRepository) CountFasesAbiertas(ctx context.Context, procesoID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.FaseProceso{}).
		Where("proceso_id = ? AND estado = ?", procesoID, entity.FaseEstadoAbierta).
		Count(&n).Error
	return n, err
}

// CountActividades cuenta actividades no eliminadas del proceso
func (r *ProcesoRepository) CountActividades(ctx context.Context, procesoID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ActividadFase{}).
		Where("proceso_id = ?", procesoID).
		Count(&n).Error
	return n, err
}

// CountEmpresasActivas cuenta vínculos de empresa activos del proceso
func (r *ProcesoRepository) CountEmpresasActivas(ctx context.Context, procesoID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ProcesoEmpresa{}).
		Where("proceso_id = ? AND estado = ?", procesoID, entity.VinculoEstadoActiva).
		Count(&n).Error
	return n, err
}

// OptimisticUpdate guarda el modelo completo exigiendo la versión leída;
// incrementa la versión en la misma escritura. RowsAffected == 0 implica
// que otra escritura ganó la carrera.
func OptimisticUpdate(db *gorm.DB, model interface{}, version *int) error {
	leida := *version
	*version = leida + 1
	res := db.Model(model).
		Where("version = ?", leida).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	if res.Error != nil {
		*version = leida
		return res.Error
	}
	if res.RowsAffected == 0 {
		*version = leida
		return ErrVersionConflict
	}
	return nil
}
