package handler

import (
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// EvidenciaHandler evidencias de actividad
type EvidenciaHandler struct {
	svc *service.EvidenciaService
}

// NewEvidenciaHandler crea el handler de evidencias
func NewEvidenciaHandler(svc *service.EvidenciaService) *EvidenciaHandler {
	return &EvidenciaHandler{svc: svc}
}

// Get detalle de una evidencia
func (h *EvidenciaHandler) Get(c *gin.Context) {
	evidencia, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, evidencia)
}

// ListByActividad evidencias de una actividad, por versión ascendente
func (h *EvidenciaHandler) ListByActividad(c *gin.Context) {
	evidencias, err := h.svc.ListByActividad(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": evidencias})
}

// Create registra una evidencia de tipo enlace o referencia externa
func (h *EvidenciaHandler) Create(c *gin.Context) {
	var req service.CrearEvidenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	evidencia, err := h.svc.Crear(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, evidencia)
}

// Upload sube un archivo de evidencia (multipart)
func (h *EvidenciaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required")
		return
	}

	var requisitoID *string
	if rid := c.PostForm("requisito_id"); rid != "" {
		requisitoID = &rid
	}

	src, err := file.Open()
	if err != nil {
		BadRequest(c, "Cannot open file: "+err.Error())
		return
	}
	defer src.Close()

	evidencia, err := h.svc.SubirArchivo(c.Request.Context(), c.Param("id"), GetUserID(c),
		requisitoID, src, file.Filename, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, evidencia)
}

// Revisar aprueba o rechaza una evidencia
func (h *EvidenciaHandler) Revisar(c *gin.Context) {
	var req service.RevisarEvidenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	evidencia, err := h.svc.Revisar(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, evidencia)
}

// Delete elimina una evidencia
func (h *EvidenciaHandler) Delete(c *gin.Context) {
	if err := h.svc.Eliminar(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
