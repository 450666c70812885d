package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// FaseHandler fases de proceso
type FaseHandler struct {
	svc *service.FaseService
}

// NewFaseHandler crea el handler de fases
func NewFaseHandler(svc *service.FaseService) *FaseHandler {
	return &FaseHandler{svc: svc}
}

// Get detalle de una fase
func (h *FaseHandler) Get(c *gin.Context) {
	fase, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, fase)
}

// ListByProceso historial de ciclos de fase del proceso
func (h *FaseHandler) ListByProceso(c *gin.Context) {
	fases, err := h.svc.ListByProceso(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": fases})
}

// PuedeCerrar consulta la compuerta de cierre de la fase
func (h *FaseHandler) PuedeCerrar(c *gin.Context) {
	ok, err := h.svc.PuedeCerrar(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"puede_cerrar": ok})
}

type cerrarFaseRequest struct {
	Notas string `json:"notas"`
}

// Cerrar cierra la fase si pasa la compuerta de actividades obligatorias
func (h *FaseHandler) Cerrar(c *gin.Context) {
	var req cerrarFaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	fase, err := h.svc.Cerrar(c.Request.Context(), c.Param("id"), req.Notas)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, fase)
}
