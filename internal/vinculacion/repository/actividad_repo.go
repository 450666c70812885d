package repository

import (
	"context"
	"errors"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"gorm.io/gorm"
)

// ActividadRepository repositorio de actividades
type ActividadRepository struct {
	db *gorm.DB
}

func NewActividadRepository(db *gorm.DB) *ActividadRepository {
	return &ActividadRepository{db: db}
}

// FindByID busca una actividad por ID con requisitos y asignaciones
func (r *ActividadRepository) FindByID(ctx context.Context, id string) (*entity.ActividadFase, error) {
	var actividad entity.ActividadFase
	err := r.db.WithContext(ctx).
		Preload("Requisitos").
		Preload("Asignaciones").
		Preload("Asignaciones.Usuario").
		Where("id = ?", id).
		First(&actividad).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &actividad, nil
}

// ListByFase lista actividades de una fila de fase
func (r *ActividadRepository) ListByFase(ctx context.Context, faseID string, filters map[string]string) ([]entity.ActividadFase, error) {
	var actividades []entity.ActividadFase

	query := r.db.WithContext(ctx).Where("fase_id = ?", faseID)

	if estado := filters["estado"]; estado != "" {
		query = query.Where("estado = ?", estado)
	}
	if tipo := filters["tipo"]; tipo != "" {
		query = query.Where("tipo = ?", tipo)
	}

	err := query.
		Preload("Requisitos").
		Order("orden ASC, created_at ASC").
		Find(&actividades).Error
	return actividades, err
}

// Create crea una actividad
func (r *ActividadRepository) Create(ctx context.Context, a *entity.ActividadFase) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Update actualiza una actividad con chequeo de versión optimista
func (r *ActividadRepository) Update(ctx context.Context, a *entity.ActividadFase) error {
	return OptimisticUpdate(r.db.WithContext(ctx), a, &a.Version)
}

// Delete elimina (soft) una actividad
func (r *ActividadRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.ActividadFase{}).Error
}

// CountEvidenciasPendientes cuenta evidencias PENDIENTE no eliminadas de la actividad
func (r *ActividadRepository) CountEvidenciasPendientes(ctx context.Context, actividadID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.EvidenciaActividad{}).
		Where("actividad_id = ? AND estado = ?", actividadID, entity.EvidenciaEstadoPendiente).
		Count(&n).Error
	return n, err
}

// === Requisitos ===

// CreateRequisito crea un requisito de actividad
func (r *ActividadRepository) CreateRequisito(ctx context.Context, req *entity.RequisitoActividad) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// FindRequisitoByID busca un requisito por ID
func (r *ActividadRepository) FindRequisitoByID(ctx context.Context, id string) (*entity.RequisitoActividad, error) {
	var req entity.RequisitoActividad
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListRequisitos lista requisitos no eliminados de la actividad
func (r *ActividadRepository) ListRequisitos(ctx context.Context, actividadID string) ([]entity.RequisitoActividad, error) {
	var reqs []entity.RequisitoActividad
	err := r.db.WithContext(ctx).
		Where("actividad_id = ?", actividadID).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// === Asignaciones ===

// CreateAsignacion crea una asignación usuario↔actividad
func (r *ActividadRepository) CreateAsignacion(ctx context.Context, a *entity.AsignacionActividad) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindAsignacion busca la asignación exacta (actividad, usuario, rol)
func (r *ActividadRepository) FindAsignacion(ctx context.Context, actividadID, usuarioID, rol string) (*entity.AsignacionActividad, error) {
	var a entity.AsignacionActividad
	err := r.db.WithContext(ctx).
		Where("actividad_id = ? AND usuario_id = ? AND rol = ?", actividadID, usuarioID, rol).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListRolesDeUsuario lista los roles que el usuario tiene sobre la actividad
func (r *ActividadRepository) ListRolesDeUsuario(ctx context.Context, actividadID, usuarioID string) ([]string, error) {
	var roles []string
	err := r.db.WithContext(ctx).Model(&entity.AsignacionActividad{}).
		Where("actividad_id = ? AND usuario_id = ?", actividadID, usuarioID).
		Pluck("rol", &roles).Error
	return roles, err
}

// TieneRol true si el usuario tiene el rol sobre la actividad
func (r *ActividadRepository) TieneRol(ctx context.Context, actividadID, usuarioID, rol string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.AsignacionActividad{}).
		Where("actividad_id = ? AND usuario_id = ? AND rol = ?", actividadID, usuarioID, rol).
		Count(&n).Error
	return n > 0, err
}

// TieneRevisor true si la actividad tiene algún REVISOR asignado
func (r *ActividadRepository) TieneRevisor(ctx context.Context, actividadID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.AsignacionActividad{}).
		Where("actividad_id = ? AND rol = ?", actividadID, entity.RolRevisor).
		Count(&n).Error
	return n > 0, err
}

// ListAsignaciones lista asignaciones de la actividad
func (r *ActividadRepository) ListAsignaciones(ctx context.Context, actividadID string) ([]entity.AsignacionActividad, error) {
	var asignaciones []entity.AsignacionActividad
	err := r.db.WithContext(ctx).
		Preload("Usuario").
		Where("actividad_id = ?", actividadID).
		Order("created_at ASC").
		Find(&asignaciones).Error
	return asignaciones, err
}
