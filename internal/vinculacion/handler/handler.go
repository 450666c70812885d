package handler

import (
	"strconv"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/service"
	"github.com/gin-gonic/gin"
)

// Handlers colección de handlers HTTP
type Handlers struct {
	Proceso      *ProcesoHandler
	Fase         *FaseHandler
	Actividad    *ActividadHandler
	Evidencia    *EvidenciaHandler
	Empresa      *EmpresaHandler
	Convocatoria *ConvocatoriaHandler
	Usuario      *UsuarioHandler
}

// NewHandlers crea la colección de handlers
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Proceso:      NewProcesoHandler(svc.Proceso, svc.Decision),
		Fase:         NewFaseHandler(svc.Fase),
		Actividad:    NewActividadHandler(svc.Actividad),
		Evidencia:    NewEvidenciaHandler(svc.Evidencia),
		Empresa:      NewEmpresaHandler(svc.Empresa),
		Convocatoria: NewConvocatoriaHandler(svc.Convocatoria),
		Usuario:      NewUsuarioHandler(svc.Usuario),
	}
}

// RegisterRoutes registra las rutas del API
func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	procesos := r.Group("/procesos")
	{
		procesos.GET("", h.Proceso.List)
		procesos.POST("", h.Proceso.Create)
		procesos.GET("/:id", h.Proceso.Get)
		procesos.PUT("/:id", h.Proceso.Update)
		procesos.DELETE("/:id", h.Proceso.Delete)
		procesos.GET("/:id/stats", h.Proceso.GetStats)
		procesos.PUT("/:id/trl", h.Proceso.UpdateTRL)
		procesos.GET("/:id/fases", h.Fase.ListByProceso)
		procesos.POST("/:id/decisiones", h.Proceso.CreateDecision)
		procesos.GET("/:id/decisiones", h.Proceso.ListDecisiones)
		procesos.GET("/:id/empresas", h.Proceso.ListEmpresas)
		procesos.POST("/:id/empresas/:empresaId", h.Proceso.VincularEmpresa)
		procesos.DELETE("/:id/empresas/:empresaId", h.Proceso.DesvincularEmpresa)
		procesos.GET("/:id/reto", h.Convocatoria.GetReto)
		procesos.POST("/:id/reto", h.Convocatoria.CreateReto)
		procesos.GET("/:id/historial/trl", h.Proceso.HistorialTRL)
		procesos.GET("/:id/historial/estado", h.Proceso.HistorialEstado)
		procesos.GET("/:id/historial/fases", h.Proceso.HistorialFase)
		procesos.GET("/:id/historial/actividades", h.Proceso.HistorialActividad)
		procesos.GET("/:id/historial/empresas", h.Proceso.HistorialEmpresa)
	}

	fases := r.Group("/fases")
	{
		fases.GET("/:id", h.Fase.Get)
		fases.GET("/:id/puede-cerrar", h.Fase.PuedeCerrar)
		fases.POST("/:id/cerrar", h.Fase.Cerrar)
		fases.GET("/:id/actividades", h.Actividad.ListByFase)
		fases.POST("/:id/actividades", h.Actividad.Create)
	}

	actividades := r.Group("/actividades")
	{
		actividades.GET("/:id", h.Actividad.Get)
		actividades.PUT("/:id", h.Actividad.Update)
		actividades.DELETE("/:id", h.Actividad.Delete)
		actividades.PUT("/:id/estado", h.Actividad.CambiarEstado)
		actividades.POST("/:id/aprobar", h.Actividad.Aprobar)
		actividades.POST("/:id/asignaciones", h.Actividad.Asignar)
		actividades.POST("/:id/requisitos", h.Actividad.CreateRequisito)
		actividades.GET("/:id/evidencias", h.Evidencia.ListByActividad)
		actividades.POST("/:id/evidencias", h.Evidencia.Create)
		actividades.POST("/:id/evidencias/archivo", h.Evidencia.Upload)
	}

	evidencias := r.Group("/evidencias")
	{
		evidencias.GET("/:id", h.Evidencia.Get)
		evidencias.PUT("/:id/revision", h.Evidencia.Revisar)
		evidencias.DELETE("/:id", h.Evidencia.Delete)
	}

	empresas := r.Group("/empresas")
	{
		empresas.GET("", h.Empresa.List)
		empresas.POST("", h.Empresa.Create)
		empresas.GET("/:id", h.Empresa.Get)
		empresas.PUT("/:id", h.Empresa.Update)
	}

	retos := r.Group("/retos")
	{
		retos.GET("/:id/convocatorias", h.Convocatoria.ListByReto)
		retos.POST("/:id/convocatorias", h.Convocatoria.Create)
	}

	convocatorias := r.Group("/convocatorias")
	{
		convocatorias.POST("/:id/cerrar", h.Convocatoria.Cerrar)
		convocatorias.GET("/:id/postulaciones", h.Convocatoria.ListPostulaciones)
		convocatorias.POST("/:id/postulaciones", h.Convocatoria.Postular)
	}

	usuarios := r.Group("/usuarios")
	{
		usuarios.GET("", h.Usuario.List)
		usuarios.POST("", h.Usuario.Create)
		usuarios.GET("/:id", h.Usuario.Get)
	}
}

// Response estructura común de respuesta
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination datos de paginación
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success respuesta exitosa
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created respuesta de creación
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// BadRequest error de parámetros
func BadRequest(c *gin.Context, message string) {
	c.JSON(400, Response{Code: 40000, Message: message})
}

// HandleError traduce el kind del error a un código HTTP
func HandleError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		c.JSON(404, Response{Code: 40400, Message: err.Error()})
	case apperr.Validation:
		c.JSON(400, Response{Code: 40000, Message: err.Error()})
	case apperr.Forbidden:
		c.JSON(403, Response{Code: 40300, Message: err.Error()})
	case apperr.Conflict:
		c.JSON(409, Response{Code: 40900, Message: err.Error()})
	default:
		c.JSON(500, Response{Code: 50000, Message: err.Error()})
	}
}

// GetUserID usuario autenticado de la petición
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination parámetros de paginación de la petición
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
