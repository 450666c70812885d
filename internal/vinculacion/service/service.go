package service

import (
	"context"
	"fmt"

	"github.com/EduardoKstillo/sivtt/internal/config"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services colección de servicios
type Services struct {
	Proceso      *ProcesoService
	Fase         *FaseService
	Actividad    *ActividadService
	Evidencia    *EvidenciaService
	Decision     *DecisionService
	Empresa      *EmpresaService
	Convocatoria *ConvocatoriaService
	Usuario      *UsuarioService
}

// NewServices crea la colección de servicios
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// Inicializa el cliente MinIO para archivos de evidencia
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio no disponible, archivos de evidencia deshabilitados", zap.Error(err))
			minioClient = nil
		}
	}

	contadores := newContadoresRefresher(repos.Proceso, rdb, logger)
	convocatoriaSvc := NewConvocatoriaService(repos.Convocatoria, repos.Proceso, db)

	return &Services{
		Proceso:      NewProcesoService(repos.Proceso, repos.Fase, repos.Empresa, repos.Historial, contadores, rdb, db),
		Fase:         NewFaseService(repos.Fase, repos.Proceso),
		Actividad:    NewActividadService(repos.Actividad, repos.Fase, repos.Proceso, repos.Evidencia, repos.Historial, repos.Usuario, contadores, db),
		Evidencia:    NewEvidenciaService(repos.Evidencia, repos.Actividad, repos.Fase, repos.Historial, contadores, minioClient, cfg.MinIO.Bucket, db),
		Decision:     NewDecisionService(repos.Decision, repos.Proceso, repos.Fase, repos.Convocatoria, repos.Historial, convocatoriaSvc, contadores, db),
		Empresa:      NewEmpresaService(repos.Empresa),
		Convocatoria: convocatoriaSvc,
		Usuario:      NewUsuarioService(repos.Usuario),
	}
}

// notFoundOr traduce repository.ErrNotFound al error de aplicación
func notFoundOr(err error, format string, args ...interface{}) error {
	if err == repository.ErrNotFound {
		return apperr.New(apperr.NotFound, format+" no encontrado", args...)
	}
	return err
}

// updateErr traduce repository.ErrVersionConflict al error de aplicación
func updateErr(err error, op string) error {
	if err == repository.ErrVersionConflict {
		return apperr.New(apperr.Conflict, "el registro fue modificado por otra operación, reintente")
	}
	return fmt.Errorf("%s: %w", op, err)
}

// optimisticUpdateTx actualiza con control de versión dentro de una transacción
func optimisticUpdateTx(tx *gorm.DB, model interface{}) error {
	switch m := model.(type) {
	case *entity.Proceso:
		return repository.OptimisticUpdate(tx, m, &m.Version)
	case *entity.FaseProceso:
		return repository.OptimisticUpdate(tx, m, &m.Version)
	case *entity.ActividadFase:
		return repository.OptimisticUpdate(tx, m, &m.Version)
	default:
		return fmt.Errorf("modelo sin control de versión: %T", model)
	}
}

// statsKey clave de caché de indicadores por proceso
func statsKey(procesoID string) string {
	return "sivtt:proceso:stats:" + procesoID
}

// contadoresRefresher recalcula los contadores denormalizados de un proceso
// e invalida su caché de indicadores. Los errores se registran y no
// interrumpen la operación que disparó el refresco.
type contadoresRefresher struct {
	procesoRepo *repository.ProcesoRepository
	rdb         *redis.Client
	logger      *zap.Logger
}

func newContadoresRefresher(procesoRepo *repository.ProcesoRepository, rdb *redis.Client, logger *zap.Logger) *contadoresRefresher {
	return &contadoresRefresher{procesoRepo: procesoRepo, rdb: rdb, logger: logger}
}

// Refrescar recalcula y persiste los contadores del proceso
func (c *contadoresRefresher) Refrescar(ctx context.Context, procesoID string) {
	proceso, err := c.procesoRepo.FindByID(ctx, procesoID)
	if err != nil {
		c.logger.Warn("refresco de contadores: proceso no encontrado",
			zap.String("proceso_id", procesoID), zap.Error(err))
		return
	}
	contadores, err := c.procesoRepo.CalcularContadores(ctx, procesoID, proceso.Tipo)
	if err != nil {
		c.logger.Warn("refresco de contadores: cálculo fallido",
			zap.String("proceso_id", procesoID), zap.Error(err))
		return
	}
	if err := c.procesoRepo.UpdateContadores(ctx, procesoID, contadores); err != nil {
		c.logger.Warn("refresco de contadores: persistencia fallida",
			zap.String("proceso_id", procesoID), zap.Error(err))
		return
	}
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, statsKey(procesoID)).Err(); err != nil {
			c.logger.Warn("refresco de contadores: invalidación de caché fallida",
				zap.String("proceso_id", procesoID), zap.Error(err))
		}
	}
}
