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

// ActividadService máquina de estados de actividades
type ActividadService struct {
	actividadRepo *repository.ActividadRepository
	faseRepo      *repository.FaseRepository
	procesoRepo   *repository.ProcesoRepository
	evidenciaRepo *repository.EvidenciaRepository
	historialRepo *repository.HistorialRepository
	usuarioRepo   *repository.UsuarioRepository
	contadores    *contadoresRefresher
	db            *gorm.DB
}

// NewActividadService crea el servicio de actividades
func NewActividadService(
	actividadRepo *repository.ActividadRepository,
	faseRepo *repository.FaseRepository,
	procesoRepo *repository.ProcesoRepository,
	evidenciaRepo *repository.EvidenciaRepository,
	historialRepo *repository.HistorialRepository,
	usuarioRepo *repository.UsuarioRepository,
	contadores *contadoresRefresher,
	db *gorm.DB,
) *ActividadService {
	return &ActividadService{
		actividadRepo: actividadRepo,
		faseRepo:      faseRepo,
		procesoRepo:   procesoRepo,
		evidenciaRepo: evidenciaRepo,
		historialRepo: historialRepo,
		usuarioRepo:   usuarioRepo,
		contadores:    contadores,
		db:            db,
	}
}

// CrearActividadRequest crear actividad
type CrearActividadRequest struct {
	Titulo      string     `json:"titulo" binding:"required"`
	Descripcion string     `json:"descripcion"`
	Tipo        string     `json:"tipo"`
	Obligatoria bool       `json:"obligatoria"`
	Orden       int        `json:"orden"`
	FechaInicio *time.Time `json:"fecha_inicio"`
	FechaLimite *time.Time `json:"fecha_limite"`
}

// ActualizarActividadRequest actualizar actividad
type ActualizarActividadRequest struct {
	Titulo      *string    `json:"titulo"`
	Descripcion *string    `json:"descripcion"`
	Obligatoria *bool      `json:"obligatoria"`
	Orden       *int       `json:"orden"`
	FechaInicio *time.Time `json:"fecha_inicio"`
	FechaLimite *time.Time `json:"fecha_limite"`
}

// CrearRequisitoRequest crear requisito
type CrearRequisitoRequest struct {
	Nombre      string `json:"nombre" binding:"required"`
	Descripcion string `json:"descripcion"`
	Obligatorio *bool  `json:"obligatorio"`
}

// Get obtiene una actividad
func (s *ActividadService) Get(ctx context.Context, id string) (*entity.ActividadFase, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", id)
	}
	return actividad, nil
}

// ListByFase lista actividades de una fila de fase
func (s *ActividadService) ListByFase(ctx context.Context, faseID string, filters map[string]string) ([]entity.ActividadFase, error) {
	return s.actividadRepo.ListByFase(ctx, faseID, filters)
}

// Crear crea una actividad bajo una fase ABIERTA
func (s *ActividadService) Crear(ctx context.Context, faseID, actor string, req *CrearActividadRequest) (*entity.ActividadFase, error) {
	fase, err := s.faseRepo.FindByID(ctx, faseID)
	if err != nil {
		return nil, notFoundOr(err, "fase %s", faseID)
	}
	if fase.Estado != entity.FaseEstadoAbierta {
		return nil, apperr.New(apperr.Validation, "solo se pueden crear actividades en una fase abierta")
	}

	tipo := req.Tipo
	if tipo == "" {
		tipo = entity.ActividadTipoTarea
	}

	actividad := &entity.ActividadFase{
		ID:          uuid.New().String()[:32],
		ProcesoID:   fase.ProcesoID,
		FaseID:      fase.ID,
		Fase:        fase.Fase,
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Tipo:        tipo,
		Obligatoria: req.Obligatoria,
		Estado:      entity.ActividadEstadoCreada,
		Orden:       req.Orden,
		FechaInicio: req.FechaInicio,
		FechaLimite: req.FechaLimite,
		CreadaPor:   actor,
	}

	if err := s.actividadRepo.Create(ctx, actividad); err != nil {
		return nil, fmt.Errorf("crear actividad: %w", err)
	}

	s.contadores.Refrescar(ctx, fase.ProcesoID)
	return actividad, nil
}

// Actualizar actualiza una actividad no aprobada
func (s *ActividadService) Actualizar(ctx context.Context, id string, req *ActualizarActividadRequest) (*entity.ActividadFase, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", id)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return nil, apperr.New(apperr.Validation, "una actividad aprobada no puede modificarse")
	}

	if req.Titulo != nil {
		actividad.Titulo = *req.Titulo
	}
	if req.Descripcion != nil {
		actividad.Descripcion = *req.Descripcion
	}
	if req.Obligatoria != nil {
		actividad.Obligatoria = *req.Obligatoria
	}
	if req.Orden != nil {
		actividad.Orden = *req.Orden
	}
	if req.FechaInicio != nil {
		actividad.FechaInicio = req.FechaInicio
	}
	if req.FechaLimite != nil {
		actividad.FechaLimite = req.FechaLimite
	}

	if err := s.actividadRepo.Update(ctx, actividad); err != nil {
		return nil, updateErr(err, "actualizar actividad")
	}
	return actividad, nil
}

// Eliminar elimina (soft) una actividad sin evidencia pendiente
func (s *ActividadService) Eliminar(ctx context.Context, id string) error {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "actividad %s", id)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return apperr.New(apperr.Validation, "una actividad aprobada no puede eliminarse")
	}

	pendientes, err := s.actividadRepo.CountEvidenciasPendientes(ctx, id)
	if err != nil {
		return fmt.Errorf("contar evidencias pendientes: %w", err)
	}
	if pendientes > 0 {
		return apperr.New(apperr.Validation, "la actividad tiene %d evidencias pendientes de revisión", pendientes)
	}

	if err := s.actividadRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminar actividad: %w", err)
	}

	s.contadores.Refrescar(ctx, actividad.ProcesoID)
	return nil
}

// CambiarEstado transición explícita validada contra la tabla de transiciones
func (s *ActividadService) CambiarEstado(ctx context.Context, id, nuevoEstado, notas, actor string) (*entity.ActividadFase, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", id)
	}

	permitidos, ok := entity.TransicionesActividad[actividad.Estado]
	if !ok {
		return nil, apperr.New(apperr.Validation, "estado desconocido %s", actividad.Estado)
	}
	valido := false
	for _, e := range permitidos {
		if e == nuevoEstado {
			valido = true
			break
		}
	}
	if !valido {
		return nil, apperr.New(apperr.Validation, "transición inválida de %s a %s", actividad.Estado, nuevoEstado)
	}

	estadoAnterior := actividad.Estado
	actividad.Estado = nuevoEstado
	if nuevoEstado == entity.ActividadEstadoAprobada {
		now := time.Now()
		actividad.FechaCierre = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := optimisticUpdateTx(tx, actividad); err != nil {
			return err
		}
		return s.historialRepo.LogActividad(ctx, tx, actividad.ProcesoID, actividad.ID, nil,
			entity.AccionEstadoCambiado, estadoAnterior, nuevoEstado, notas, actor)
	})
	if err != nil {
		return nil, updateErr(err, "cambiar estado")
	}

	s.contadores.Refrescar(ctx, actividad.ProcesoID)
	return actividad, nil
}

// RecalcularEstado recomputa el estado derivado a partir del agregado de
// evidencias. Independiente de la tabla de transiciones: sobrescribe el
// estado, salvo APROBADA que nunca se pisa.
func (s *ActividadService) RecalcularEstado(ctx context.Context, id string) (*entity.ActividadFase, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", id)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return actividad, nil
	}

	evidencias, err := s.evidenciaRepo.ListByActividad(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listar evidencias: %w", err)
	}
	requisitos, err := s.actividadRepo.ListRequisitos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listar requisitos: %w", err)
	}
	tieneRevisor, err := s.actividadRepo.TieneRevisor(ctx, id)
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

// estadoDerivado regla de recomputación:
// se evalúa la evidencia vigente (mayor versión) de cada requisito más las
// evidencias extra individualmente; cualquier rechazo observa la actividad,
// cualquier pendiente la deja en revisión/progreso, y el cierre exige el
// predicado canónico de listaParaCierre.
func estadoDerivado(actual string, requisitos []entity.RequisitoActividad, evidencias []entity.EvidenciaActividad, tieneRevisor bool) string {
	vigentes := evidenciasVigentes(evidencias)

	anyRechazada := false
	anyPendiente := false
	for _, e := range vigentes {
		switch e.Estado {
		case entity.EvidenciaEstadoRechazada:
			anyRechazada = true
		case entity.EvidenciaEstadoPendiente:
			anyPendiente = true
		}
	}

	switch {
	case anyRechazada:
		return entity.ActividadEstadoObservada
	case anyPendiente:
		if tieneRevisor {
			return entity.ActividadEstadoEnRevision
		}
		return entity.ActividadEstadoEnProgreso
	case listaParaCierre(requisitos, evidencias):
		return entity.ActividadEstadoListaParaCierre
	case len(evidencias) > 0:
		return entity.ActividadEstadoEnProgreso
	default:
		if actual == entity.ActividadEstadoCreada {
			return entity.ActividadEstadoCreada
		}
		return entity.ActividadEstadoEnProgreso
	}
}

// evidenciasVigentes evidencia de mayor versión por requisito, más todas las extra
func evidenciasVigentes(evidencias []entity.EvidenciaActividad) []entity.EvidenciaActividad {
	porRequisito := make(map[string]entity.EvidenciaActividad)
	var vigentes []entity.EvidenciaActividad

	for _, e := range evidencias {
		if e.RequisitoID == nil {
			vigentes = append(vigentes, e)
			continue
		}
		actual, ok := porRequisito[*e.RequisitoID]
		if !ok || e.Version > actual.Version {
			porRequisito[*e.RequisitoID] = e
		}
	}
	for _, e := range porRequisito {
		vigentes = append(vigentes, e)
	}
	return vigentes
}

// listaParaCierre predicado canónico de "lista para cierre": toda la
// evidencia vigente en APROBADA y cada requisito obligatorio cubierto por
// una vigente APROBADA. Las versiones superadas de un requisito no cuentan.
// Se aplica igual desde la subida, la revisión y la aprobación final.
func listaParaCierre(requisitos []entity.RequisitoActividad, evidencias []entity.EvidenciaActividad) bool {
	vigentes := evidenciasVigentes(evidencias)
	if len(vigentes) == 0 {
		return false
	}
	porRequisito := make(map[string]entity.EvidenciaActividad)
	for _, e := range vigentes {
		if e.Estado != entity.EvidenciaEstadoAprobada {
			return false
		}
		if e.RequisitoID != nil {
			porRequisito[*e.RequisitoID] = e
		}
	}
	for _, req := range requisitos {
		if !req.Obligatorio {
			continue
		}
		if _, ok := porRequisito[req.ID]; !ok {
			return false
		}
	}
	return true
}

// Aprobar cierre final de la actividad. Solo legal desde LISTA_PARA_CIERRE
// y re-verifica el predicado de listaParaCierre sobre el estado persistido.
func (s *ActividadService) Aprobar(ctx context.Context, id, actor string) (*entity.ActividadFase, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", id)
	}
	if actividad.Estado != entity.ActividadEstadoListaParaCierre {
		return nil, apperr.New(apperr.Validation, "solo puede aprobarse una actividad en %s, estado actual: %s",
			entity.ActividadEstadoListaParaCierre, actividad.Estado)
	}

	evidencias, err := s.evidenciaRepo.ListByActividad(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listar evidencias: %w", err)
	}
	requisitos, err := s.actividadRepo.ListRequisitos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listar requisitos: %w", err)
	}
	if !listaParaCierre(requisitos, evidencias) {
		return nil, apperr.New(apperr.Validation, "la actividad no cumple las condiciones de cierre: toda la evidencia vigente debe estar aprobada y cada requisito obligatorio cubierto")
	}

	estadoAnterior := actividad.Estado
	now := time.Now()
	actividad.Estado = entity.ActividadEstadoAprobada
	actividad.FechaCierre = &now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := optimisticUpdateTx(tx, actividad); err != nil {
			return err
		}
		return s.historialRepo.LogActividad(ctx, tx, actividad.ProcesoID, actividad.ID, nil,
			entity.AccionActividadAprobada, estadoAnterior, entity.ActividadEstadoAprobada, "", actor)
	})
	if err != nil {
		return nil, updateErr(err, "aprobar actividad")
	}

	s.contadores.Refrescar(ctx, actividad.ProcesoID)
	return actividad, nil
}

// Asignar asigna un usuario a la actividad con un rol.
// Un usuario no puede ser RESPONSABLE y REVISOR de la misma actividad.
func (s *ActividadService) Asignar(ctx context.Context, actividadID, usuarioID, rol string) (*entity.AsignacionActividad, error) {
	if rol != entity.RolResponsable && rol != entity.RolRevisor && rol != entity.RolParticipante {
		return nil, apperr.New(apperr.Validation, "rol inválido: %s", rol)
	}

	if _, err := s.actividadRepo.FindByID(ctx, actividadID); err != nil {
		return nil, notFoundOr(err, "actividad %s", actividadID)
	}
	if _, err := s.usuarioRepo.FindByID(ctx, usuarioID); err != nil {
		return nil, notFoundOr(err, "usuario %s", usuarioID)
	}

	if _, err := s.actividadRepo.FindAsignacion(ctx, actividadID, usuarioID, rol); err == nil {
		return nil, apperr.New(apperr.Conflict, "el usuario ya tiene el rol %s en la actividad", rol)
	}

	excluyente := ""
	if rol == entity.RolRevisor {
		excluyente = entity.RolResponsable
	} else if rol == entity.RolResponsable {
		excluyente = entity.RolRevisor
	}
	if excluyente != "" {
		tiene, err := s.actividadRepo.TieneRol(ctx, actividadID, usuarioID, excluyente)
		if err != nil {
			return nil, fmt.Errorf("consultar asignaciones: %w", err)
		}
		if tiene {
			return nil, apperr.New(apperr.Conflict, "el usuario ya es %s de la actividad; %s y %s son excluyentes",
				excluyente, entity.RolResponsable, entity.RolRevisor)
		}
	}

	asignacion := &entity.AsignacionActividad{
		ID:          uuid.New().String()[:32],
		ActividadID: actividadID,
		UsuarioID:   usuarioID,
		Rol:         rol,
	}
	if err := s.actividadRepo.CreateAsignacion(ctx, asignacion); err != nil {
		return nil, fmt.Errorf("crear asignación: %w", err)
	}
	return asignacion, nil
}

// CrearRequisito agrega un requisito a una actividad no aprobada
func (s *ActividadService) CrearRequisito(ctx context.Context, actividadID string, req *CrearRequisitoRequest) (*entity.RequisitoActividad, error) {
	actividad, err := s.actividadRepo.FindByID(ctx, actividadID)
	if err != nil {
		return nil, notFoundOr(err, "actividad %s", actividadID)
	}
	if actividad.Estado == entity.ActividadEstadoAprobada {
		return nil, apperr.New(apperr.Validation, "una actividad aprobada no puede modificarse")
	}

	obligatorio := true
	if req.Obligatorio != nil {
		obligatorio = *req.Obligatorio
	}

	requisito := &entity.RequisitoActividad{
		ID:          uuid.New().String()[:32],
		ActividadID: actividadID,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Obligatorio: obligatorio,
	}
	if err := s.actividadRepo.CreateRequisito(ctx, requisito); err != nil {
		return nil, fmt.Errorf("crear requisito: %w", err)
	}
	return requisito, nil
}
