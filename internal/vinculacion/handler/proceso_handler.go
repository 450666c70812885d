package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// ProcesoHandler procesos de vinculación y decisiones de fase
type ProcesoHandler struct {
	svc         *service.ProcesoService
	decisionSvc *service.DecisionService
}

// NewProcesoHandler crea el handler de procesos
func NewProcesoHandler(svc *service.ProcesoService, decisionSvc *service.DecisionService) *ProcesoHandler {
	return &ProcesoHandler{svc: svc, decisionSvc: decisionSvc}
}

// List lista procesos
func (h *ProcesoHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"tipo":           c.Query("tipo"),
		"estado":         c.Query("estado"),
		"fase":           c.Query("fase"),
		"responsable_id": c.Query("responsable_id"),
	}

	procesos, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, gin.H{
		"items": procesos,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Get detalle de un proceso
func (h *ProcesoHandler) Get(c *gin.Context) {
	proceso, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, proceso)
}

// Create crea un proceso
func (h *ProcesoHandler) Create(c *gin.Context) {
	var req service.CrearProcesoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	proceso, err := h.svc.Crear(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, proceso)
}

// Update actualiza un proceso
func (h *ProcesoHandler) Update(c *gin.Context) {
	var req service.ActualizarProcesoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	proceso, err := h.svc.Actualizar(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, proceso)
}

// Delete elimina un proceso terminal
func (h *ProcesoHandler) Delete(c *gin.Context) {
	if err := h.svc.Eliminar(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// GetStats indicadores del proceso
func (h *ProcesoHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stats)
}

type updateTRLRequest struct {
	TRL           int    `json:"trl" binding:"required"`
	Justificacion string `json:"justificacion" binding:"required"`
}

// UpdateTRL actualiza el TRL de una patente
func (h *ProcesoHandler) UpdateTRL(c *gin.Context) {
	var req updateTRLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	proceso, err := h.svc.ActualizarTRL(c.Request.Context(), c.Param("id"), req.TRL, req.Justificacion, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, proceso)
}

// CreateDecision registra una decisión de fase
func (h *ProcesoHandler) CreateDecision(c *gin.Context) {
	var req service.CrearDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	decision, err := h.decisionSvc.Crear(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, decision)
}

// ListDecisiones decisiones del proceso
func (h *ProcesoHandler) ListDecisiones(c *gin.Context) {
	decisiones, err := h.decisionSvc.ListByProceso(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": decisiones})
}

// ListEmpresas vínculos de empresa del proceso
func (h *ProcesoHandler) ListEmpresas(c *gin.Context) {
	vinculos, err := h.svc.ListEmpresas(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": vinculos})
}

// VincularEmpresa vincula una empresa al proceso
func (h *ProcesoHandler) VincularEmpresa(c *gin.Context) {
	vinculo, err := h.svc.VincularEmpresa(c.Request.Context(), c.Param("id"), c.Param("empresaId"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, vinculo)
}

// DesvincularEmpresa desvincula una empresa del proceso
func (h *ProcesoHandler) DesvincularEmpresa(c *gin.Context) {
	if err := h.svc.DesvincularEmpresa(c.Request.Context(), c.Param("id"), c.Param("empresaId"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// HistorialTRL auditoría de cambios de TRL
func (h *ProcesoHandler) HistorialTRL(c *gin.Context) {
	items, err := h.svc.HistorialTRL(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// HistorialEstado auditoría de cambios de estado
func (h *ProcesoHandler) HistorialEstado(c *gin.Context) {
	items, err := h.svc.HistorialEstado(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// HistorialFase auditoría de cambios de fase
func (h *ProcesoHandler) HistorialFase(c *gin.Context) {
	items, err := h.svc.HistorialFase(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// HistorialActividad auditoría de eventos de actividad
func (h *ProcesoHandler) HistorialActividad(c *gin.Context) {
	items, err := h.svc.HistorialActividad(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// HistorialEmpresa auditoría de vínculos de empresa
func (h *ProcesoHandler) HistorialEmpresa(c *gin.Context) {
	items, err := h.svc.HistorialEmpresa(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
