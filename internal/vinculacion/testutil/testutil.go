// Package testutil arma una base de datos sqlite en memoria con el esquema
// completo del dominio, para pruebas de servicios sin dependencias externas.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB abre una base sqlite en memoria y migra todas las entidades
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// DSN con cache compartido: con ":memory:" cada conexión del pool recibe
	// una base vacía distinta y las consultas fuera de una transacción abierta
	// fallan con "no such table". El nombre único aísla cada prueba.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&entity.Usuario{},
		&entity.Proceso{},
		&entity.FaseProceso{},
		&entity.ActividadFase{},
		&entity.RequisitoActividad{},
		&entity.AsignacionActividad{},
		&entity.EvidenciaActividad{},
		&entity.DecisionFase{},
		&entity.Empresa{},
		&entity.ProcesoEmpresa{},
		&entity.RetoTecnologico{},
		&entity.Convocatoria{},
		&entity.Postulacion{},
		&entity.HistorialTRL{},
		&entity.HistorialEstado{},
		&entity.HistorialFase{},
		&entity.HistorialEmpresa{},
		&entity.HistorialActividad{},
	); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	return db
}

// SeedUsuario crea un usuario de prueba
func SeedUsuario(t *testing.T, db *gorm.DB, id, nombre string) *entity.Usuario {
	t.Helper()
	usuario := &entity.Usuario{
		ID:     id,
		Email:  fmt.Sprintf("%s@test.local", id),
		Nombre: nombre,
		Rol:    entity.UsuarioRolGestor,
		Activo: true,
	}
	if err := db.Create(usuario).Error; err != nil {
		t.Fatalf("Failed to seed usuario: %v", err)
	}
	return usuario
}

// SeedProceso crea un proceso con su fase inicial abierta
func SeedProceso(t *testing.T, db *gorm.DB, tipo, responsableID string) (*entity.Proceso, *entity.FaseProceso) {
	t.Helper()

	faseInicial, ok := entity.FaseInicial(tipo)
	if !ok {
		t.Fatalf("Unknown process type %q", tipo)
	}

	prefijo := "PV"
	if tipo == entity.TipoRequerimientoEmpresarial {
		prefijo = "RE"
	}

	proceso := &entity.Proceso{
		ID:            uuid.New().String()[:32],
		Codigo:        fmt.Sprintf("%s-TEST-%s", prefijo, uuid.New().String()[:6]),
		Titulo:        "Proceso de prueba",
		Tipo:          tipo,
		Estado:        entity.ProcesoEstadoActivo,
		FaseActual:    faseInicial,
		ResponsableID: responsableID,
		CreadoPor:     responsableID,
	}
	if err := db.Create(proceso).Error; err != nil {
		t.Fatalf("Failed to seed proceso: %v", err)
	}

	fase := SeedFase(t, db, proceso.ID, faseInicial, entity.FaseEstadoAbierta)
	return proceso, fase
}

// SeedFase crea un ciclo de fase
func SeedFase(t *testing.T, db *gorm.DB, procesoID, nombre, estado string) *entity.FaseProceso {
	t.Helper()
	ahora := time.Now()
	fase := &entity.FaseProceso{
		ID:          uuid.New().String()[:32],
		ProcesoID:   procesoID,
		Fase:        nombre,
		Estado:      estado,
		FechaInicio: &ahora,
	}
	if estado == entity.FaseEstadoCerrada {
		fase.FechaFin = &ahora
	}
	if err := db.Create(fase).Error; err != nil {
		t.Fatalf("Failed to seed fase: %v", err)
	}
	return fase
}

// SeedActividad crea una actividad bajo una fase
func SeedActividad(t *testing.T, db *gorm.DB, fase *entity.FaseProceso, titulo, estado string, obligatoria bool) *entity.ActividadFase {
	t.Helper()
	actividad := &entity.ActividadFase{
		ID:          uuid.New().String()[:32],
		ProcesoID:   fase.ProcesoID,
		FaseID:      fase.ID,
		Fase:        fase.Fase,
		Titulo:      titulo,
		Tipo:        entity.ActividadTipoTarea,
		Obligatoria: obligatoria,
		Estado:      estado,
		CreadaPor:   "seed",
	}
	if err := db.Create(actividad).Error; err != nil {
		t.Fatalf("Failed to seed actividad: %v", err)
	}
	return actividad
}

// SeedAsignacion asigna un usuario con rol a una actividad
func SeedAsignacion(t *testing.T, db *gorm.DB, actividadID, usuarioID, rol string) *entity.AsignacionActividad {
	t.Helper()
	asignacion := &entity.AsignacionActividad{
		ID:          uuid.New().String()[:32],
		ActividadID: actividadID,
		UsuarioID:   usuarioID,
		Rol:         rol,
	}
	if err := db.Create(asignacion).Error; err != nil {
		t.Fatalf("Failed to seed asignacion: %v", err)
	}
	return asignacion
}

// SeedRequisito agrega un requisito a una actividad
func SeedRequisito(t *testing.T, db *gorm.DB, actividadID, nombre string, obligatorio bool) *entity.RequisitoActividad {
	t.Helper()
	requisito := &entity.RequisitoActividad{
		ID:          uuid.New().String()[:32],
		ActividadID: actividadID,
		Nombre:      nombre,
		Obligatorio: obligatorio,
	}
	if err := db.Create(requisito).Error; err != nil {
		t.Fatalf("Failed to seed requisito: %v", err)
	}
	return requisito
}

// SeedEmpresa crea una empresa
func SeedEmpresa(t *testing.T, db *gorm.DB, ruc, razonSocial string) *entity.Empresa {
	t.Helper()
	empresa := &entity.Empresa{
		ID:          uuid.New().String()[:32],
		RUC:         ruc,
		RazonSocial: razonSocial,
	}
	if err := db.Create(empresa).Error; err != nil {
		t.Fatalf("Failed to seed empresa: %v", err)
	}
	return empresa
}
