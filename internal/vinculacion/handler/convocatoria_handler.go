package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// ConvocatoriaHandler retos, convocatorias y postulaciones
type ConvocatoriaHandler struct {
	svc *service.ConvocatoriaService
}

// NewConvocatoriaHandler crea el handler de convocatorias
func NewConvocatoriaHandler(svc *service.ConvocatoriaService) *ConvocatoriaHandler {
	return &ConvocatoriaHandler{svc: svc}
}

// GetReto reto tecnológico del proceso
func (h *ConvocatoriaHandler) GetReto(c *gin.Context) {
	reto, err := h.svc.GetReto(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, reto)
}

// CreateReto crea el reto tecnológico del proceso
func (h *ConvocatoriaHandler) CreateReto(c *gin.Context) {
	var req service.CrearRetoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reto, err := h.svc.CrearReto(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, reto)
}

// ListByReto convocatorias del reto
func (h *ConvocatoriaHandler) ListByReto(c *gin.Context) {
	convocatorias, err := h.svc.ListByReto(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": convocatorias})
}

// Create abre una convocatoria contra el reto
func (h *ConvocatoriaHandler) Create(c *gin.Context) {
	var req service.CrearConvocatoriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	convocatoria, err := h.svc.Crear(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, convocatoria)
}

// Cerrar cierra una convocatoria abierta
func (h *ConvocatoriaHandler) Cerrar(c *gin.Context) {
	convocatoria, err := h.svc.Cerrar(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, convocatoria)
}

// ListPostulaciones postulaciones de la convocatoria
func (h *ConvocatoriaHandler) ListPostulaciones(c *gin.Context) {
	postulaciones, err := h.svc.ListPostulaciones(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": postulaciones})
}

// Postular registra una postulación
func (h *ConvocatoriaHandler) Postular(c *gin.Context) {
	var req service.CrearPostulacionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	postulacion, err := h.svc.Postular(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, postulacion)
}
