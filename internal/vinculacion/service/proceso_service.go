package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProcesoService ciclo de vida del proceso de vinculación y seguimiento TRL
type ProcesoService struct {
	procesoRepo   *repository.ProcesoRepository
	faseRepo      *repository.FaseRepository
	empresaRepo   *repository.EmpresaRepository
	historialRepo *repository.HistorialRepository
	contadores    *contadoresRefresher
	rdb           *redis.Client
	db            *gorm.DB
}

// NewProcesoService crea el servicio de procesos
func NewProcesoService(
	procesoRepo *repository.ProcesoRepository,
	faseRepo *repository.FaseRepository,
	empresaRepo *repository.EmpresaRepository,
	historialRepo *repository.HistorialRepository,
	contadores *contadoresRefresher,
	rdb *redis.Client,
	db *gorm.DB,
) *ProcesoService {
	return &ProcesoService{
		procesoRepo:   procesoRepo,
		faseRepo:      faseRepo,
		empresaRepo:   empresaRepo,
		historialRepo: historialRepo,
		contadores:    contadores,
		rdb:           rdb,
		db:            db,
	}
}

// CrearProcesoRequest crear proceso
type CrearProcesoRequest struct {
	Titulo        string       `json:"titulo" binding:"required"`
	Tipo          string       `json:"tipo" binding:"required"`
	Descripcion   string       `json:"descripcion"`
	ResponsableID string       `json:"responsable_id" binding:"required"`
	TRLInicial    *int         `json:"trl_inicial"`
	Metadata      entity.JSONB `json:"metadata"`
}

// ActualizarProcesoRequest actualizar datos descriptivos del proceso
type ActualizarProcesoRequest struct {
	Titulo        *string      `json:"titulo"`
	Descripcion   *string      `json:"descripcion"`
	ResponsableID *string      `json:"responsable_id"`
	Metadata      entity.JSONB `json:"metadata"`
}

// StatsProceso indicadores agregados de un proceso
type StatsProceso struct {
	ProcesoID              string `json:"proceso_id"`
	ActividadesTotal       int    `json:"actividades_total"`
	ActividadesCompletadas int    `json:"actividades_completadas"`
	ActividadesPendientes  int    `json:"actividades_pendientes"`
	ActividadesObservadas  int    `json:"actividades_observadas"`
	EmpresasVinculadas     int    `json:"empresas_vinculadas"`
}

// Get obtiene un proceso
func (s *ProcesoService) Get(ctx context.Context, id string) (*entity.Proceso, error) {
	proceso, err := s.procesoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", id)
	}
	return proceso, nil
}

// List lista procesos con filtros y paginación
func (s *ProcesoService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Proceso, int64, error) {
	return s.procesoRepo.List(ctx, page, pageSize, filters)
}

// Crear crea un proceso con su fase inicial abierta
func (s *ProcesoService) Crear(ctx context.Context, actor string, req *CrearProcesoRequest) (*entity.Proceso, error) {
	faseInicial, ok := entity.FaseInicial(req.Tipo)
	if !ok {
		return nil, apperr.New(apperr.Validation, "tipo de proceso inválido: %s", req.Tipo)
	}
	if req.TRLInicial != nil {
		if req.Tipo != entity.TipoPatente {
			return nil, apperr.New(apperr.Validation, "el TRL solo aplica a procesos de patente")
		}
		if err := validarTRL(*req.TRLInicial, faseInicial); err != nil {
			return nil, err
		}
	}

	codigo, err := s.procesoRepo.GenerateCode(ctx, req.Tipo)
	if err != nil {
		return nil, fmt.Errorf("generar código: %w", err)
	}

	ahora := time.Now()
	proceso := &entity.Proceso{
		ID:            uuid.New().String()[:32],
		Codigo:        codigo,
		Titulo:        req.Titulo,
		Tipo:          req.Tipo,
		Estado:        entity.ProcesoEstadoActivo,
		FaseActual:    faseInicial,
		TRLActual:     req.TRLInicial,
		Descripcion:   req.Descripcion,
		ResponsableID: req.ResponsableID,
		Metadata:      req.Metadata,
		CreadoPor:     actor,
	}
	fase := &entity.FaseProceso{
		ID:          uuid.New().String()[:32],
		ProcesoID:   proceso.ID,
		Fase:        faseInicial,
		Estado:      entity.FaseEstadoAbierta,
		FechaInicio: &ahora,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proceso).Error; err != nil {
			return err
		}
		if err := tx.Create(fase).Error; err != nil {
			return err
		}
		return s.historialRepo.LogFase(ctx, tx, proceso.ID, "", faseInicial, nil, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("crear proceso: %w", err)
	}
	return proceso, nil
}

// Actualizar actualiza los datos descriptivos de un proceso
func (s *ProcesoService) Actualizar(ctx context.Context, id string, req *ActualizarProcesoRequest) (*entity.Proceso, error) {
	proceso, err := s.procesoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", id)
	}
	if req.Titulo != nil {
		proceso.Titulo = *req.Titulo
	}
	if req.Descripcion != nil {
		proceso.Descripcion = *req.Descripcion
	}
	if req.ResponsableID != nil {
		proceso.ResponsableID = *req.ResponsableID
	}
	if req.Metadata != nil {
		proceso.Metadata = req.Metadata
	}
	proceso.Responsable = nil
	if err := s.procesoRepo.Update(ctx, proceso); err != nil {
		return nil, updateErr(err, "actualizar proceso")
	}
	return proceso, nil
}

// validarTRL valida rango y banda de fase
func validarTRL(trl int, fase string) error {
	if trl < 1 || trl > 9 {
		return apperr.New(apperr.Validation, "TRL fuera de rango [1,9]: %d", trl)
	}
	if banda, ok := entity.BandasTRL[fase]; ok {
		if trl < banda[0] || trl > banda[1] {
			return apperr.New(apperr.Validation,
				"TRL %d fuera de la banda [%d,%d] de la fase %s", trl, banda[0], banda[1], fase)
		}
	}
	return nil
}

// ActualizarTRL avanza el TRL de una patente dentro de la banda de su fase.
// La regresión de TRL no se permite por esta vía; requiere una decisión RETROCEDER.
func (s *ProcesoService) ActualizarTRL(ctx context.Context, id string, nuevoTRL int, justificacion, actor string) (*entity.Proceso, error) {
	proceso, err := s.procesoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", id)
	}
	if proceso.Tipo != entity.TipoPatente {
		return nil, apperr.New(apperr.Validation, "el TRL solo aplica a procesos de patente")
	}
	if justificacion == "" {
		return nil, apperr.New(apperr.Validation, "la justificación del cambio de TRL es obligatoria")
	}
	if proceso.TRLActual != nil && nuevoTRL < *proceso.TRLActual {
		return nil, apperr.New(apperr.Validation,
			"el TRL no puede retroceder de %d a %d", *proceso.TRLActual, nuevoTRL)
	}
	if err := validarTRL(nuevoTRL, proceso.FaseActual); err != nil {
		return nil, err
	}

	anterior := proceso.TRLActual
	proceso.TRLActual = &nuevoTRL
	proceso.Responsable = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := optimisticUpdateTx(tx, proceso); err != nil {
			return err
		}
		return s.historialRepo.LogTRL(ctx, tx, proceso.ID, anterior, nuevoTRL, justificacion, actor)
	})
	if err != nil {
		return nil, updateErr(err, "actualizar TRL")
	}
	return proceso, nil
}

// GetStats indicadores del proceso, con caché en redis
func (s *ProcesoService) GetStats(ctx context.Context, id string) (*StatsProceso, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, statsKey(id)).Result(); err == nil {
			var stats StatsProceso
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	proceso, err := s.procesoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", id)
	}
	contadores, err := s.procesoRepo.CalcularContadores(ctx, id, proceso.Tipo)
	if err != nil {
		return nil, fmt.Errorf("calcular contadores: %w", err)
	}

	stats := &StatsProceso{
		ProcesoID:              id,
		ActividadesTotal:       contadores.Total,
		ActividadesCompletadas: contadores.Completadas,
		ActividadesPendientes:  contadores.Pendientes,
		ActividadesObservadas:  contadores.Observadas,
		EmpresasVinculadas:     contadores.Empresas,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, statsKey(id), data, 5*time.Minute)
		}
	}
	return stats, nil
}

// VincularEmpresa vincula una empresa al proceso.
// Reactiva un vínculo desvinculado si ya existía.
func (s *ProcesoService) VincularEmpresa(ctx context.Context, procesoID, empresaID, actor string) (*entity.ProcesoEmpresa, error) {
	proceso, err := s.procesoRepo.FindByID(ctx, procesoID)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	if _, err := s.empresaRepo.FindByID(ctx, empresaID); err != nil {
		return nil, notFoundOr(err, "empresa %s", empresaID)
	}

	vinculo, err := s.empresaRepo.FindVinculo(ctx, procesoID, empresaID)
	switch {
	case err == nil:
		if vinculo.Estado == entity.VinculoEstadoActiva {
			return nil, apperr.New(apperr.Conflict, "la empresa ya está vinculada al proceso")
		}
		vinculo.Estado = entity.VinculoEstadoActiva
		vinculo.FechaVinculacion = time.Now()
		vinculo.FechaDesvinculacion = nil
	case err == repository.ErrNotFound:
		vinculo = &entity.ProcesoEmpresa{
			ID:               uuid.New().String()[:32],
			ProcesoID:        procesoID,
			EmpresaID:        empresaID,
			Estado:           entity.VinculoEstadoActiva,
			FechaVinculacion: time.Now(),
		}
	default:
		return nil, fmt.Errorf("consultar vínculo: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(vinculo).Error; err != nil {
			return err
		}
		return s.historialRepo.LogEmpresa(ctx, tx, procesoID, empresaID, entity.AccionEmpresaVinculada, actor)
	})
	if err != nil {
		return nil, fmt.Errorf("vincular empresa: %w", err)
	}

	s.contadores.Refrescar(ctx, proceso.ID)
	return vinculo, nil
}

// DesvincularEmpresa desvincula una empresa activa del proceso
func (s *ProcesoService) DesvincularEmpresa(ctx context.Context, procesoID, empresaID, actor string) error {
	proceso, err := s.procesoRepo.FindByID(ctx, procesoID)
	if err != nil {
		return notFoundOr(err, "proceso %s", procesoID)
	}
	vinculo, err := s.empresaRepo.FindVinculo(ctx, procesoID, empresaID)
	if err != nil {
		return notFoundOr(err, "vínculo con empresa %s", empresaID)
	}
	if vinculo.Estado != entity.VinculoEstadoActiva {
		return apperr.New(apperr.Validation, "la empresa no está vinculada al proceso")
	}

	ahora := time.Now()
	vinculo.Estado = entity.VinculoEstadoDesvinculada
	vinculo.FechaDesvinculacion = &ahora
	vinculo.Empresa = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(vinculo).Error; err != nil {
			return err
		}
		return s.historialRepo.LogEmpresa(ctx, tx, procesoID, empresaID, entity.AccionEmpresaDesvinculada, actor)
	})
	if err != nil {
		return fmt.Errorf("desvincular empresa: %w", err)
	}

	s.contadores.Refrescar(ctx, proceso.ID)
	return nil
}

// ListEmpresas vínculos de empresa del proceso
func (s *ProcesoService) ListEmpresas(ctx context.Context, procesoID string) ([]entity.ProcesoEmpresa, error) {
	if _, err := s.procesoRepo.FindByID(ctx, procesoID); err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	return s.empresaRepo.ListVinculosByProceso(ctx, procesoID)
}

// Eliminar borra lógicamente un proceso terminal sin restos activos
func (s *ProcesoService) Eliminar(ctx context.Context, id string) error {
	proceso, err := s.procesoRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "proceso %s", id)
	}
	if proceso.Estado != entity.ProcesoEstadoFinalizado && proceso.Estado != entity.ProcesoEstadoCancelado {
		return apperr.New(apperr.Validation, "solo se puede eliminar un proceso finalizado o cancelado")
	}
	if n, err := s.procesoRepo.CountFasesAbiertas(ctx, id); err != nil {
		return fmt.Errorf("contar fases abiertas: %w", err)
	} else if n > 0 {
		return apperr.New(apperr.Validation, "el proceso tiene fases abiertas")
	}
	if n, err := s.procesoRepo.CountActividades(ctx, id); err != nil {
		return fmt.Errorf("contar actividades: %w", err)
	} else if n > 0 {
		return apperr.New(apperr.Validation, "el proceso tiene actividades")
	}
	if n, err := s.procesoRepo.CountEmpresasActivas(ctx, id); err != nil {
		return fmt.Errorf("contar empresas vinculadas: %w", err)
	} else if n > 0 {
		return apperr.New(apperr.Validation, "el proceso tiene empresas vinculadas")
	}
	return s.procesoRepo.Delete(ctx, id)
}

// HistorialProceso vistas de auditoría para reportes
func (s *ProcesoService) HistorialTRL(ctx context.Context, procesoID string) ([]entity.HistorialTRL, error) {
	return s.historialRepo.ListTRL(ctx, procesoID)
}

func (s *ProcesoService) HistorialEstado(ctx context.Context, procesoID string) ([]entity.HistorialEstado, error) {
	return s.historialRepo.ListEstado(ctx, procesoID)
}

func (s *ProcesoService) HistorialFase(ctx context.Context, procesoID string) ([]entity.HistorialFase, error) {
	return s.historialRepo.ListFase(ctx, procesoID)
}

func (s *ProcesoService) HistorialActividad(ctx context.Context, procesoID string) ([]entity.HistorialActividad, error) {
	return s.historialRepo.ListActividad(ctx, procesoID)
}

func (s *ProcesoService) HistorialEmpresa(ctx context.Context, procesoID string) ([]entity.HistorialEmpresa, error) {
	return s.historialRepo.ListEmpresa(ctx, procesoID)
}
