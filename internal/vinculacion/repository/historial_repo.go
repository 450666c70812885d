package repository

import (
	"context"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialRepository escritor de las tablas de historial (append-only).
// El core escribe aquí pero nunca lee para derivar comportamiento; las
// lecturas son solo para reporte.
type HistorialRepository struct {
	db *gorm.DB
}

func NewHistorialRepository(db *gorm.DB) *HistorialRepository {
	return &HistorialRepository{db: db}
}

// tx devuelve el escritor ligado a una transacción
func (r *HistorialRepository) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// LogTRL registra un cambio de TRL
func (r *HistorialRepository) LogTRL(ctx context.Context, tx *gorm.DB, procesoID string, anterior *int, nuevo int, justificacion, actor string) error {
	return r.tx(tx).WithContext(ctx).Create(&entity.HistorialTRL{
		ID:            uuid.New().String()[:32],
		ProcesoID:     procesoID,
		TRLAnterior:   anterior,
		TRLNuevo:      nuevo,
		Justificacion: justificacion,
		RegistradoPor: actor,
	}).Error
}

// LogEstado registra un cambio de estado de proceso
func (r *HistorialRepository) LogEstado(ctx context.Context, tx *gorm.DB, procesoID, anterior, nuevo, motivo, actor string) error {
	return r.tx(tx).WithContext(ctx).Create(&entity.HistorialEstado{
		ID:             uuid.New().String()[:32],
		ProcesoID:      procesoID,
		EstadoAnterior: anterior,
		EstadoNuevo:    nuevo,
		Motivo:         motivo,
		RegistradoPor:  actor,
	}).Error
}

// LogFase registra un cambio de fase de proceso
func (r *HistorialRepository) LogFase(ctx context.Context, tx *gorm.DB, procesoID, anterior, nueva string, decisionID *string, actor string) error {
	return r.tx(tx).WithContext(ctx).Create(&entity.HistorialFase{
		ID:            uuid.New().String()[:32],
		ProcesoID:     procesoID,
		FaseAnterior:  anterior,
		FaseNueva:     nueva,
		DecisionID:    decisionID,
		RegistradoPor: actor,
	}).Error
}

// LogEmpresa registra una vinculación/desvinculación de empresa
func (r *HistorialRepository) LogEmpresa(ctx context.Context, tx *gorm.DB, procesoID, empresaID, accion, actor string) error {
	return r.tx(tx).WithContext(ctx).Create(&entity.HistorialEmpresa{
		ID:            uuid.New().String()[:32],
		ProcesoID:     procesoID,
		EmpresaID:     empresaID,
		Accion:        accion,
		RegistradoPor: actor,
	}).Error
}

// LogActividad registra un evento de actividad/evidencia
func (r *HistorialRepository) LogActividad(ctx context.Context, tx *gorm.DB, procesoID, actividadID string, evidenciaID *string, accion, estadoAnterior, estadoNuevo, detalle, actor string) error {
	return r.tx(tx).WithContext(ctx).Create(&entity.HistorialActividad{
		ID:             uuid.New().String()[:32],
		ProcesoID:      procesoID,
		ActividadID:    actividadID,
		EvidenciaID:    evidenciaID,
		Accion:         accion,
		EstadoAnterior: estadoAnterior,
		EstadoNuevo:    estadoNuevo,
		Detalle:        detalle,
		RegistradoPor:  actor,
	}).Error
}

// === Lecturas de reporte ===

// ListTRL historial TRL del proceso
func (r *HistorialRepository) ListTRL(ctx context.Context, procesoID string) ([]entity.HistorialTRL, error) {
	var items []entity.HistorialTRL
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListEstado historial de estado del proceso
func (r *HistorialRepository) ListEstado(ctx context.Context, procesoID string) ([]entity.HistorialEstado, error) {
	var items []entity.HistorialEstado
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListFase historial de fases del proceso
func (r *HistorialRepository) ListFase(ctx context.Context, procesoID string) ([]entity.HistorialFase, error) {
	var items []entity.HistorialFase
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListActividad historial de actividades del proceso
func (r *HistorialRepository) ListActividad(ctx context.Context, procesoID string) ([]entity.HistorialActividad, error) {
	var items []entity.HistorialActividad
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListEmpresa historial de empresas del proceso
func (r *HistorialRepository) ListEmpresa(ctx context.Context, procesoID string) ([]entity.HistorialEmpresa, error) {
	var items []entity.HistorialEmpresa
	err := r.db.WithContext(ctx).
		Where("proceso_id = ?", procesoID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
