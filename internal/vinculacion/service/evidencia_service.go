package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

// EvidenciaService almacén de evidencias versionadas
type EvidenciaService struct {
	evidenciaRepo *repository.EvidenciaRepository
	actividadRepo *repository.ActividadRepository
	faseRepo      *repository.FaseRepository
	historialRepo *repository.HistorialRepository
	contadores    *contadoresRefresher
	minioClient   *minio.Client
	bucketName    string
	db            *gorm.DB
}

// NewEvidenciaService crea el servicio de evidencias
func NewEvidenciaService(
	evidenciaRepo *repository.EvidenciaRepository,
	actividadRepo *repository.ActividadRepository,
	faseRepo *repository.FaseRepository,
	historialRepo *repository.HistorialRepository,
	contadores *contadoresRefresher,
	minioClient *minio.Client,
	bucketName string,
	db *gorm.DB,
) *EvidenciaService {
	return &EvidenciaService{
		evidenciaRepo: evidenciaRepo,
		actividadRepo: actividadRepo,
		faseRepo:      faseRepo,
		historialRepo: historialRepo,
		contadores:    contadores,
		minioClient:   minioClient,
		bucketName:    bucketName,
		db:            db,
	}
}

// CrearEvidenciaRequest crear evidencia
type CrearEvidenciaRequest struct {
	RequisitoID   *string `json:"requisito_id"`
	Tipo          string  `json:"tipo"`
	URL           string  `json:"url"`
	ArchivoPath   string  `json:"archivo_path"`
	ArchivoNombre string  `json:"archivo_nombre"`
	ArchivoTamano int64   `json:"archivo_tamano"`
	MimeType      string  `json:"mime_type"`
}

// RevisarEvidenciaRequest revisar evidencia
type RevisarEvidenciaRequest struct {
	Estado     string `json:"estado" binding:"required"`
	Comentario string `json:"comentario"`
}

// Get obtiene una evidencia
func (s *EvidenciaService) Get(ctx context.Context, id string) (*entity.EvidenciaActividad, error) {
	evidencia, err := s.evidenciaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "evidencia %s", id)
	}
	return evidencia, nil
}

// ListByActividad lista las evidencias de una actividad por versión ascendente
func (s *EvidenciaService) ListByActividad(ctx context.Context, actividadID string) ([]entity.EvidenciaActividad, error) {
	if _, err := s.actividadRepo.FindByID(ctx, actividadID); err != nil {
		return nil, notFoundOr(err, "actividad %s", actividadID)
	}
	return s.evidenciaRepo.ListByActividad(ctx, actividadID)
}

// Crear registra una evidencia contra una actividad no aprobada.
// Solo el RESPONSABLE de la actividad puede subir evidencia. La versión se
// asigna dentro de la misma transacción que inserta la fila, de modo que
// nunca se reutiliza un número aunque haya evidencias eliminadas.
func (s *EvidenciaService) Crear(ctx context.Context, actividadID, actor string, req *CrearEvidenciaRequest) (*entity.EvidenciaActividad, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, actividadID)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", actividadID)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return nil, apperr.New(apperr.Validation, "no se puede agregar evidencia a una actividad aprobada")
	}

	esResponsable, err := s.actividadRepo.TieneRol(ctx, actividadID, actor, entity.RolResponsable)
	if err != nil {
		return nil, fmt.Errorf("consultar asignación: %w", err)
	}
	if !esResponsable {
		return nil, apperr.New(apperr.Forbidden, "solo el responsable de la actividad puede subir evidencia")
	}

	if req.RequisitoID != nil {
		requisito, err := s.actividadRepo.FindRequisitoByID(ctx, *req.RequisitoID)
		if err != nil {
			return nil, notFoundOr(err, "requisito %s", *req.RequisitoID)
		}
		if requisito.ActividadID != actividadID {
			return nil, apperr.New(apperr.Validation, "el requisito no pertenece a la actividad")
		}
	}

	tipo := req.Tipo
	if tipo == "" {
		tipo = entity.EvidenciaTipoArchivo
	}

	evidencia := &entity.EvidenciaActividad{
		ID:            uuid.New().String()[:32],
		ActividadID:   actividadID,
		RequisitoID:   req.RequisitoID,
		Tipo:          tipo,
		Estado:        entity.EvidenciaEstadoPendiente,
		ArchivoPath:   req.ArchivoPath,
		ArchivoNombre: req.ArchivoNombre,
		ArchivoTamano: req.ArchivoTamano,
		MimeType:      req.MimeType,
		URL:           req.URL,
		SubidaPor:     actor,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := s.evidenciaRepo.NextVersion(ctx, tx, actividadID)
		if err != nil {
			return fmt.Errorf("calcular versión: %w", err)
		}
		evidencia.Version = version
		if err := tx.Create(evidencia).Error; err != nil {
			return err
		}
		return s.historialRepo.LogActividad(ctx, tx, actividad.ProcesoID, actividadID, &evidencia.ID,
			entity.AccionEvidenciaSubida, actividad.Estado, actividad.Estado,
			fmt.Sprintf("evidencia v%d", evidencia.Version), actor)
	})
	if err != nil {
		return nil, fmt.Errorf("crear evidencia: %w", err)
	}

	if _, err := s.recalcular(ctx, actividad); err != nil {
		return nil, err
	}
	return evidencia, nil
}

// SubirArchivo sube el archivo al blob externo y registra la evidencia
func (s *EvidenciaService) SubirArchivo(ctx context.Context, actividadID, actor string, requisitoID *string, reader io.Reader, nombre string, tamano int64, contentType string) (*entity.EvidenciaActividad, error) {
	objectName := fmt.Sprintf("evidencias/%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(nombre))

	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, tamano, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("subir archivo: %w", err)
		}
	}

	return s.Crear(ctx, actividadID, actor, &CrearEvidenciaRequest{
		RequisitoID:   requisitoID,
		Tipo:          entity.EvidenciaTipoArchivo,
		ArchivoPath:   objectName,
		ArchivoNombre: nombre,
		ArchivoTamano: tamano,
		MimeType:      contentType,
	})
}

// Revisar aprueba o rechaza una evidencia pendiente.
// Solo un usuario asignado como REVISOR de la actividad puede revisar.
func (s *EvidenciaService) Revisar(ctx context.Context, id, actor string, req *RevisarEvidenciaRequest) (*entity.EvidenciaActividad, error) {
	if req.Estado != entity.EvidenciaEstadoAprobada && req.Estado != entity.EvidenciaEstadoRechazada {
		return nil, apperr.New(apperr.Validation, "el estado de revisión debe ser APROBADA o RECHAZADA")
	}

	evidencia, err := s.evidenciaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "evidencia %s", id)
	}
	actividad, err := s.actividadRepo.FindByID(ctx, evidencia.ActividadID)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", evidencia.ActividadID)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return nil, apperr.New(apperr.Validation, "la actividad ya está aprobada")
	}

	roles, err := s.actividadRepo.ListRolesDeUsuario(ctx, actividad.ID, actor)
	if err != nil {
		return nil, fmt.Errorf("consultar asignaciones: %w", err)
	}
	if len(roles) == 0 {
		return nil, apperr.New(apperr.Forbidden, "el usuario no tiene asignación en la actividad")
	}
	esRevisor := false
	for _, rol := range roles {
		if rol == entity.RolRevisor {
			esRevisor = true
			break
		}
	}
	if !esRevisor {
		return nil, apperr.New(apperr.Forbidden, "solo el revisor puede revisar evidencias")
	}

	ahora := time.Now()
	evidencia.Estado = req.Estado
	evidencia.ComentarioRevision = req.Comentario
	evidencia.RevisadaPor = &actor
	evidencia.FechaRevision = &ahora

	accion := entity.AccionEvidenciaAprobada
	if req.Estado == entity.EvidenciaEstadoRechazada {
		accion = entity.AccionEvidenciaRechazada
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(evidencia).Error; err != nil {
			return err
		}
		return s.historialRepo.LogActividad(ctx, tx, actividad.ProcesoID, actividad.ID, &evidencia.ID,
			accion, actividad.Estado, actividad.Estado, req.Comentario, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("revisar evidencia: %w", err)
	}

	if _, err := s.recalcular(ctx, actividad); err != nil {
		return nil, err
	}
	return evidencia, nil
}

// Eliminar borra lógicamente una evidencia de una actividad no aprobada.
// No dispara recomputación de estado.
func (s *EvidenciaService) Eliminar(ctx context.Context, id string) error {
	evidencia, err := s.evidenciaRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "evidencia %s", id)
	}
	actividad, err := s.actividadRepo.FindByID(ctx, evidencia.ActividadID)
	if err != nil {
		return notFoundOr(err, "actividad %s", evidencia.ActividadID)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return apperr.New(apperr.Validation, "no se puede eliminar evidencia de una actividad aprobada")
	}
	if err := s.evidenciaRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminar evidencia: %w", err)
	}
	return nil
}

// recalcular aplica el estado derivado tras crear o revisar una evidencia
func (s *EvidenciaService) recalcular(ctx context.Context, actividad *entity.ActividadFase) (*entity.ActividadFase, error) {
	// Relee para partir de la versión vigente
	actividad, err := s.actividadRepo.FindByID(ctx, actividad.ID)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", actividad.ID)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return actividad, nil
	}

	evidencias, err := s.evidenciaRepo.ListByActividad(ctx, actividad.ID)
	if err != nil {
		return nil, fmt.Errorf("listar evidencias: %w", err)
	}
	requisitos, err := s.actividadRepo.ListRequisitos(ctx, actividad.ID)
	if err != nil {
		return nil, fmt.Errorf("listar requisitos: %w", err)
	}
	tieneRevisor, err := s.actividadRepo.TieneRevisor(ctx, actividad.ID)
	if err != nil {
		return nil, fmt.Errorf("consultar revisor: %w", err)
	}

	nuevo := estadoDerivado(actividad.Estado, requisitos, evidencias, tieneRevisor)
	if nuevo == actividad.Estado {
		return actividad, nil
	}

	actividad.Estado = nuevo
	if err := s.actividadRepo.Update(ctx, actividad); err != nil {
		return nil, updateErr(err, "recalcular estado")
	}

	s.contadores.Refrescar(ctx, actividad.ProcesoID)
	return actividad, nil
}
