package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// ActividadHandler actividades de fase
type ActividadHandler struct {
	svc *service.ActividadService
}

// NewActividadHandler crea el handler de actividades
func NewActividadHandler(svc *service.ActividadService) *ActividadHandler {
	return &ActividadHandler{svc: svc}
}

// Get detalle de una actividad
func (h *ActividadHandler) Get(c *gin.Context) {
	actividad, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, actividad)
}

// ListByFase actividades de una fase
func (h *ActividadHandler) ListByFase(c *gin.Context) {
	filters := map[string]string{
		"estado": c.Query("estado"),
		"tipo":   c.Query("tipo"),
	}
	actividades, err := h.svc.ListByFase(c.Request.Context(), c.Param("id"), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": actividades})
}

// Create crea una actividad bajo la fase
func (h *ActividadHandler) Create(c *gin.Context) {
	var req service.CrearActividadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actividad, err := h.svc.Crear(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, actividad)
}

// Update actualiza una actividad
func (h *ActividadHandler) Update(c *gin.Context) {
	var req service.ActualizarActividadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actividad, err := h.svc.Actualizar(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, actividad)
}

// Delete elimina una actividad
func (h *ActividadHandler) Delete(c *gin.Context) {
	if err := h.svc.Eliminar(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

type cambiarEstadoRequest struct {
	Estado string `json:"estado" binding:"required"`
	Notas  string `json:"notas"`
}

// CambiarEstado aplica una transición explícita de estado
func (h *ActividadHandler) CambiarEstado(c *gin.Context) {
	var req cambiarEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actividad, err := h.svc.CambiarEstado(c.Request.Context(), c.Param("id"), req.Estado, req.Notas, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, actividad)
}

// Aprobar aprobación final de la actividad
func (h *ActividadHandler) Aprobar(c *gin.Context) {
	actividad, err := h.svc.Aprobar(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, actividad)
}

type asignarRequest struct {
	UsuarioID string `json:"usuario_id" binding:"required"`
	Rol       string `json:"rol" binding:"required"`
}

// Asignar asigna un usuario con rol a la actividad
func (h *ActividadHandler) Asignar(c *gin.Context) {
	var req asignarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	asignacion, err := h.svc.Asignar(c.Request.Context(), c.Param("id"), req.UsuarioID, req.Rol)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, asignacion)
}

// CreateRequisito agrega un requisito a la actividad
func (h *ActividadHandler) CreateRequisito(c *gin.Context) {
	var req service.CrearRequisitoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	requisito, err := h.svc.CrearRequisito(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, requisito)
}
