package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// EmpresaHandler catálogo de empresas
type EmpresaHandler struct {
	svc *service.EmpresaService
}

// NewEmpresaHandler crea el handler de empresas
func NewEmpresaHandler(svc *service.EmpresaService) *EmpresaHandler {
	return &EmpresaHandler{svc: svc}
}

// List lista empresas
func (h *EmpresaHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	empresas, total, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		HandleError(c, err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, gin.H{
		"items": empresas,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Get detalle de una empresa
func (h *EmpresaHandler) Get(c *gin.Context) {
	empresa, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, empresa)
}

// Create registra una empresa
func (h *EmpresaHandler) Create(c *gin.Context) {
	var req service.CrearEmpresaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	empresa, err := h.svc.Crear(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, empresa)
}

// Update actualiza una empresa
func (h *EmpresaHandler) Update(c *gin.Context) {
	var req service.ActualizarEmpresaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	empresa, err := h.svc.Actualizar(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, empresa)
}
