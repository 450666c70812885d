package service

import (
	"context"
	"fmt"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DecisionService motor de decisiones de cierre de fase.
// Cada rama aplica todas sus escrituras (decisión, cierre/apertura de fases,
// puntero del proceso, historial) en una sola transacción.
type DecisionService struct {
	decisionRepo     *repository.DecisionRepository
	procesoRepo      *repository.ProcesoRepository
	faseRepo         *repository.FaseRepository
	convocatoriaRepo *repository.ConvocatoriaRepository
	historialRepo    *repository.HistorialRepository
	convocatoriaSvc  *ConvocatoriaService
	contadores       *contadoresRefresher
	db               *gorm.DB
}

// NewDecisionService crea el motor de decisiones
func NewDecisionService(
	decisionRepo *repository.DecisionRepository,
	procesoRepo *repository.ProcesoRepository,
	faseRepo *repository.FaseRepository,
	convocatoriaRepo *repository.ConvocatoriaRepository,
	historialRepo *repository.HistorialRepository,
	convocatoriaSvc *ConvocatoriaService,
	contadores *contadoresRefresher,
	db *gorm.DB,
) *DecisionService {
	return &DecisionService{
		decisionRepo:     decisionRepo,
		procesoRepo:      procesoRepo,
		faseRepo:         faseRepo,
		convocatoriaRepo: convocatoriaRepo,
		historialRepo:    historialRepo,
		convocatoriaSvc:  convocatoriaSvc,
		contadores:       contadores,
		db:               db,
	}
}

// CrearDecisionRequest registrar una decisión de fase
type CrearDecisionRequest struct {
	Decision      string  `json:"decision" binding:"required"`
	Justificacion string  `json:"justificacion" binding:"required"`
	FaseDestino   *string `json:"fase_destino"`
	NotasCierre   string  `json:"notas_cierre"`
}

// ListByProceso decisiones registradas del proceso
func (s *DecisionService) ListByProceso(ctx context.Context, procesoID string) ([]entity.DecisionFase, error) {
	if _, err := s.procesoRepo.FindByID(ctx, procesoID); err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	return s.decisionRepo.ListByProceso(ctx, procesoID)
}

// Crear registra y aplica una decisión sobre la fase actual del proceso
func (s *DecisionService) Crear(ctx context.Context, procesoID, actor string, req *CrearDecisionRequest) (*entity.DecisionFase, error) {
	if req.Justificacion == "" {
		return nil, apperr.New(apperr.Validation, "la justificación de la decisión es obligatoria")
	}

	proceso, err := s.procesoRepo.FindByID(ctx, procesoID)
	if err != nil {
		return nil, notFoundOr(err, "proceso %s", procesoID)
	}
	switch req.Decision {
	case entity.DecisionCancelar:
		if proceso.Estado != entity.ProcesoEstadoActivo && proceso.Estado != entity.ProcesoEstadoPausado {
			return nil, apperr.New(apperr.Validation, "no se puede cancelar un proceso %s", proceso.Estado)
		}
	default:
		if proceso.Estado != entity.ProcesoEstadoActivo {
			return nil, apperr.New(apperr.Validation, "el proceso está %s", proceso.Estado)
		}
	}

	faseActual, err := s.faseRepo.FindAbierta(ctx, procesoID, proceso.FaseActual)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.New(apperr.Validation, "el proceso no tiene una fase abierta")
		}
		return nil, fmt.Errorf("buscar fase abierta: %w", err)
	}

	decision := &entity.DecisionFase{
		ID:            uuid.New().String()[:32],
		ProcesoID:     procesoID,
		FaseID:        faseActual.ID,
		Decision:      req.Decision,
		Justificacion: req.Justificacion,
		FaseDestino:   req.FaseDestino,
		DecididaPor:   actor,
	}

	switch req.Decision {
	case entity.DecisionContinuar:
		err = s.continuar(ctx, proceso, faseActual, decision, req.NotasCierre, actor)
	case entity.DecisionRetroceder:
		err = s.retroceder(ctx, proceso, faseActual, decision, req, actor)
	case entity.DecisionPausar:
		err = s.cambiarEstado(ctx, proceso, decision, entity.ProcesoEstadoPausado, actor)
	case entity.DecisionCancelar:
		err = s.cambiarEstado(ctx, proceso, decision, entity.ProcesoEstadoCancelado, actor)
	case entity.DecisionFinalizar:
		err = s.finalizar(ctx, proceso, faseActual, decision, req.NotasCierre, actor)
	case entity.DecisionRelanzarConvocatoria:
		err = s.relanzarConvocatoria(ctx, proceso, faseActual, decision, req.NotasCierre, actor)
	default:
		return nil, apperr.New(apperr.Validation, "decisión desconocida: %s", req.Decision)
	}
	if err != nil {
		return nil, err
	}
	return decision, nil
}

// continuar cierra la fase actual y abre la siguiente de la secuencia
func (s *DecisionService) continuar(ctx context.Context, proceso *entity.Proceso, faseActual *entity.FaseProceso, decision *entity.DecisionFase, notas, actor string) error {
	siguiente, ok := entity.SiguienteFase(proceso.Tipo, proceso.FaseActual)
	if !ok {
		return apperr.New(apperr.Validation,
			"la fase %s es terminal, use FINALIZAR", proceso.FaseActual)
	}
	if err := validarCompuertaFase(ctx, s.faseRepo, faseActual.ID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(decision).Error; err != nil {
			return err
		}
		if err := s.cerrarFaseTx(tx, faseActual, notas); err != nil {
			return err
		}
		ahora := time.Now()
		nueva := &entity.FaseProceso{
			ID:          uuid.New().String()[:32],
			ProcesoID:   proceso.ID,
			Fase:        siguiente,
			Estado:      entity.FaseEstadoAbierta,
			FechaInicio: &ahora,
		}
		if err := tx.Create(nueva).Error; err != nil {
			return err
		}
		if err := s.moverPunteroTx(tx, proceso, siguiente); err != nil {
			return err
		}
		return s.historialRepo.LogFase(ctx, tx, proceso.ID, faseActual.Fase, siguiente, &decision.ID, actor)
	})
	if err != nil {
		return updateErr(err, "aplicar CONTINUAR")
	}
	return nil
}

// retroceder cierra la fase actual y reabre una fase anterior existente
func (s *DecisionService) retroceder(ctx context.Context, proceso *entity.Proceso, faseActual *entity.FaseProceso, decision *entity.DecisionFase, req *CrearDecisionRequest, actor string) error {
	if req.FaseDestino == nil || *req.FaseDestino == "" {
		return apperr.New(apperr.Validation, "RETROCEDER requiere fase destino")
	}
	destino := *req.FaseDestino
	if !entity.FaseValida(proceso.Tipo, destino) {
		return apperr.New(apperr.Validation,
			"la fase %s no pertenece a la secuencia del tipo %s", destino, proceso.Tipo)
	}
	if destino == proceso.FaseActual {
		return apperr.New(apperr.Validation, "la fase destino es la fase actual")
	}

	objetivo, err := s.faseRepo.FindUltimaByFase(ctx, proceso.ID, destino)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.Validation,
				"la fase %s no tiene un ciclo previo en este proceso", destino)
		}
		return fmt.Errorf("buscar fase destino: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(decision).Error; err != nil {
			return err
		}
		if err := s.cerrarFaseTx(tx, faseActual, req.NotasCierre); err != nil {
			return err
		}
		// Reutiliza la fila existente, no crea un ciclo nuevo
		objetivo.Estado = entity.FaseEstadoAbierta
		objetivo.FechaFin = nil
		if err := optimisticUpdateTx(tx, objetivo); err != nil {
			return err
		}
		if err := s.moverPunteroTx(tx, proceso, destino); err != nil {
			return err
		}
		return s.historialRepo.LogFase(ctx, tx, proceso.ID, faseActual.Fase, destino, &decision.ID, actor)
	})
	if err != nil {
		return updateErr(err, "aplicar RETROCEDER")
	}
	return nil
}

// cambiarEstado registra la decisión y mueve el estado del proceso (PAUSAR, CANCELAR)
func (s *DecisionService) cambiarEstado(ctx context.Context, proceso *entity.Proceso, decision *entity.DecisionFase, nuevoEstado, actor string) error {
	anterior := proceso.Estado
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(decision).Error; err != nil {
			return err
		}
		proceso.Estado = nuevoEstado
		proceso.Responsable = nil
		if err := optimisticUpdateTx(tx, proceso); err != nil {
			return err
		}
		return s.historialRepo.LogEstado(ctx, tx, proceso.ID, anterior, nuevoEstado, decision.Justificacion, actor)
	})
	if err != nil {
		proceso.Estado = anterior
		return updateErr(err, "aplicar decisión de estado")
	}
	return nil
}

// finalizar cierra la fase terminal y marca el proceso FINALIZADO
func (s *DecisionService) finalizar(ctx context.Context, proceso *entity.Proceso, faseActual *entity.FaseProceso, decision *entity.DecisionFase, notas, actor string) error {
	terminal, _ := entity.FaseTerminal(proceso.Tipo)
	if proceso.FaseActual != terminal {
		return apperr.New(apperr.Validation,
			"solo se puede finalizar desde la fase %s, el proceso está en %s", terminal, proceso.FaseActual)
	}
	if err := validarCompuertaFase(ctx, s.faseRepo, faseActual.ID); err != nil {
		return err
	}

	anterior := proceso.Estado
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(decision).Error; err != nil {
			return err
		}
		if err := s.cerrarFaseTx(tx, faseActual, notas); err != nil {
			return err
		}
		proceso.Estado = entity.ProcesoEstadoFinalizado
		proceso.Responsable = nil
		if err := optimisticUpdateTx(tx, proceso); err != nil {
			return err
		}
		return s.historialRepo.LogEstado(ctx, tx, proceso.ID, anterior, entity.ProcesoEstadoFinalizado, decision.Justificacion, actor)
	})
	if err != nil {
		proceso.Estado = anterior
		return updateErr(err, "aplicar FINALIZAR")
	}
	return nil
}

// relanzarConvocatoria relanza la convocatoria del reto y devuelve el proceso a CONVOCATORIA
func (s *DecisionService) relanzarConvocatoria(ctx context.Context, proceso *entity.Proceso, faseActual *entity.FaseProceso, decision *entity.DecisionFase, notas, actor string) error {
	if proceso.Tipo != entity.TipoRequerimientoEmpresarial {
		return apperr.New(apperr.Validation, "solo un proceso de requerimiento empresarial puede relanzar convocatoria")
	}
	if proceso.FaseActual != entity.FaseSeleccion {
		return apperr.New(apperr.Validation,
			"el relanzamiento solo procede desde SELECCION, el proceso está en %s", proceso.FaseActual)
	}

	reto, err := s.convocatoriaRepo.FindRetoByProceso(ctx, proceso.ID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.Validation, "el proceso no tiene reto tecnológico")
		}
		return fmt.Errorf("buscar reto: %w", err)
	}
	cerrada, err := s.convocatoriaRepo.FindUltimaCerrada(ctx, reto.ID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.Validation, "el reto no tiene una convocatoria cerrada que relanzar")
		}
		return fmt.Errorf("buscar convocatoria cerrada: %w", err)
	}
	seleccionadas, err := s.convocatoriaRepo.CountSeleccionadas(ctx, cerrada.ID)
	if err != nil {
		return fmt.Errorf("contar postulaciones seleccionadas: %w", err)
	}
	if seleccionadas > 0 {
		return apperr.New(apperr.Validation, "la convocatoria cerrada tiene una postulación seleccionada")
	}

	destino := entity.FaseConvocatoria
	previa, err := s.faseRepo.FindUltimaByFase(ctx, proceso.ID, destino)
	if err != nil && err != repository.ErrNotFound {
		return fmt.Errorf("buscar fase convocatoria: %w", err)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.convocatoriaSvc.RelanzarTx(ctx, tx, reto.ID); err != nil {
			return err
		}
		if err := tx.Create(decision).Error; err != nil {
			return err
		}
		if err := s.cerrarFaseTx(tx, faseActual, notas); err != nil {
			return err
		}
		ahora := time.Now()
		if previa != nil {
			previa.Estado = entity.FaseEstadoAbierta
			previa.FechaFin = nil
			if err := optimisticUpdateTx(tx, previa); err != nil {
				return err
			}
		} else {
			nueva := &entity.FaseProceso{
				ID:          uuid.New().String()[:32],
				ProcesoID:   proceso.ID,
				Fase:        destino,
				Estado:      entity.FaseEstadoAbierta,
				FechaInicio: &ahora,
			}
			if err := tx.Create(nueva).Error; err != nil {
				return err
			}
		}
		if err := s.moverPunteroTx(tx, proceso, destino); err != nil {
			return err
		}
		return s.historialRepo.LogFase(ctx, tx, proceso.ID, faseActual.Fase, destino, &decision.ID, actor)
	})
	if txErr != nil {
		return updateErr(txErr, "aplicar RELANZAR_CONVOCATORIA")
	}
	return nil
}

// cerrarFaseTx cierra la fase con control de versión dentro de la transacción
func (s *DecisionService) cerrarFaseTx(tx *gorm.DB, fase *entity.FaseProceso, notas string) error {
	ahora := time.Now()
	fase.Estado = entity.FaseEstadoCerrada
	fase.FechaFin = &ahora
	if notas != "" {
		fase.NotasCierre = notas
	}
	return optimisticUpdateTx(tx, fase)
}

// moverPunteroTx actualiza la fase actual del proceso con control de versión
func (s *DecisionService) moverPunteroTx(tx *gorm.DB, proceso *entity.Proceso, fase string) error {
	proceso.FaseActual = fase
	proceso.Responsable = nil
	return optimisticUpdateTx(tx, proceso)
}
