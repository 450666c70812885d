package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// UsuarioHandler usuarios del sistema
type UsuarioHandler struct {
	svc *service.UsuarioService
}

// NewUsuarioHandler crea el handler de usuarios
func NewUsuarioHandler(svc *service.UsuarioService) *UsuarioHandler {
	return &UsuarioHandler{svc: svc}
}

// List usuarios activos
func (h *UsuarioHandler) List(c *gin.Context) {
	usuarios, err := h.svc.ListActivos(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": usuarios})
}

// Get detalle de un usuario
func (h *UsuarioHandler) Get(c *gin.Context) {
	usuario, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, usuario)
}

// Create registra un usuario
func (h *UsuarioHandler) Create(c *gin.Context) {
	var req service.CrearUsuarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	usuario, err := h.svc.Crear(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, usuario)
}
