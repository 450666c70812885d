package service

import (
	"context"
	"strings"
	"testing"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
)

func TestCrearProcesoInicializaFase(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")

	trl := 2
	proceso, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo:        "Sensor de humedad patentado",
		Tipo:          entity.TipoPatente,
		ResponsableID: user.ID,
		TRLInicial:    &trl,
	})
	if err != nil {
		t.Fatalf("Crear proceso: %v", err)
	}
	if !strings.HasPrefix(proceso.Codigo, "PV-") {
		t.Errorf("Expected PV- code prefix, got %s", proceso.Codigo)
	}
	if !strings.HasSuffix(proceso.Codigo, "-001") {
		t.Errorf("Expected first sequence number, got %s", proceso.Codigo)
	}
	if proceso.Estado != entity.ProcesoEstadoActivo {
		t.Errorf("Expected ACTIVO, got %s", proceso.Estado)
	}
	if proceso.FaseActual != entity.FaseCaracterizacion {
		t.Errorf("Expected pointer at CARACTERIZACION, got %s", proceso.FaseActual)
	}
	if proceso.TRLActual == nil || *proceso.TRLActual != 2 {
		t.Errorf("Expected initial TRL 2, got %v", proceso.TRLActual)
	}

	fases, err := env.Fase.ListByProceso(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("List fases: %v", err)
	}
	if len(fases) != 1 || fases[0].Estado != entity.FaseEstadoAbierta || fases[0].Fase != entity.FaseCaracterizacion {
		t.Fatalf("Expected one open CARACTERIZACION row, got %+v", fases)
	}

	historial, err := env.Proceso.HistorialFase(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Historial fase: %v", err)
	}
	if len(historial) != 1 {
		t.Fatalf("Expected 1 phase history entry for creation, got %d", len(historial))
	}

	// codes are sequential within the type
	segundo, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "Otro proceso", Tipo: entity.TipoPatente, ResponsableID: user.ID,
	})
	if err != nil {
		t.Fatalf("Crear segundo proceso: %v", err)
	}
	if !strings.HasSuffix(segundo.Codigo, "-002") {
		t.Errorf("Expected second sequence number, got %s", segundo.Codigo)
	}

	// company-requirement processes get their own prefix and sequence
	re, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "Requerimiento minero", Tipo: entity.TipoRequerimientoEmpresarial, ResponsableID: user.ID,
	})
	if err != nil {
		t.Fatalf("Crear proceso RE: %v", err)
	}
	if !strings.HasPrefix(re.Codigo, "RE-") || !strings.HasSuffix(re.Codigo, "-001") {
		t.Errorf("Expected RE-...-001 code, got %s", re.Codigo)
	}
	if re.FaseActual != entity.FaseFormulacionReto {
		t.Errorf("Expected pointer at FORMULACION_RETO, got %s", re.FaseActual)
	}
}

func TestCrearProcesoValidaciones(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")

	if _, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "Tipo raro", Tipo: "SPIN_OFF", ResponsableID: user.ID,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for unknown type, got %v", err)
	}

	trl := 3
	if _, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "RE con TRL", Tipo: entity.TipoRequerimientoEmpresarial, ResponsableID: user.ID, TRLInicial: &trl,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for TRL on non-patent, got %v", err)
	}

	fueraDeBanda := 5 // CARACTERIZACION admits [1,3]
	if _, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "TRL alto", Tipo: entity.TipoPatente, ResponsableID: user.ID, TRLInicial: &fueraDeBanda,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for TRL outside band, got %v", err)
	}
}

func TestActualizarTRL(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")

	trl := 2
	proceso, err := env.Proceso.Crear(ctx, user.ID, &CrearProcesoRequest{
		Titulo: "Patente", Tipo: entity.TipoPatente, ResponsableID: user.ID, TRLInicial: &trl,
	})
	if err != nil {
		t.Fatalf("Crear proceso: %v", err)
	}

	// non-patent processes have no TRL
	re, _ := testutil.SeedProceso(t, env.DB, entity.TipoRequerimientoEmpresarial, user.ID)
	if _, err := env.Proceso.ActualizarTRL(ctx, re.ID, 4, "no aplica", user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for non-patent, got %v", err)
	}

	// justification is mandatory
	if _, err := env.Proceso.ActualizarTRL(ctx, proceso.ID, 3, "", user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation without justification, got %v", err)
	}

	// no regression
	if _, err := env.Proceso.ActualizarTRL(ctx, proceso.ID, 1, "bajó", user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation on regression, got %v", err)
	}

	// outside [1,9]
	if _, err := env.Proceso.ActualizarTRL(ctx, proceso.ID, 10, "fuera de rango", user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation outside range, got %v", err)
	}

	// outside the phase band (CARACTERIZACION admits up to 3)
	if _, err := env.Proceso.ActualizarTRL(ctx, proceso.ID, 5, "salta la banda", user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation outside band, got %v", err)
	}

	got, err := env.Proceso.ActualizarTRL(ctx, proceso.ID, 3, "prototipo validado en laboratorio", user.ID)
	if err != nil {
		t.Fatalf("ActualizarTRL: %v", err)
	}
	if got.TRLActual == nil || *got.TRLActual != 3 {
		t.Fatalf("Expected TRL 3, got %v", got.TRLActual)
	}

	historial, err := env.Proceso.HistorialTRL(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Historial TRL: %v", err)
	}
	// failed attempts must not leave rows behind
	if len(historial) != 1 {
		t.Fatalf("Expected exactly 1 TRL history row, got %d", len(historial))
	}
	if historial[0].TRLNuevo != 3 {
		t.Errorf("Expected history row with new TRL 3, got %d", historial[0].TRLNuevo)
	}
}

func TestGetStatsAgregaActividades(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	testutil.SeedActividad(t, env.DB, fase, "Hecha", entity.ActividadEstadoAprobada, true)
	testutil.SeedActividad(t, env.DB, fase, "En curso", entity.ActividadEstadoEnProgreso, true)
	testutil.SeedActividad(t, env.DB, fase, "Nueva", entity.ActividadEstadoCreada, false)
	testutil.SeedActividad(t, env.DB, fase, "Observada", entity.ActividadEstadoObservada, true)
	empresa := testutil.SeedEmpresa(t, env.DB, "20123456789", "ACME S.A.C.")
	if _, err := env.Proceso.VincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID); err != nil {
		t.Fatalf("Vincular empresa: %v", err)
	}

	stats, err := env.Proceso.GetStats(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.ActividadesTotal != 4 {
		t.Errorf("Expected 4 total, got %d", stats.ActividadesTotal)
	}
	if stats.ActividadesCompletadas != 1 {
		t.Errorf("Expected 1 completed, got %d", stats.ActividadesCompletadas)
	}
	if stats.ActividadesPendientes != 2 {
		t.Errorf("Expected 2 pending, got %d", stats.ActividadesPendientes)
	}
	if stats.ActividadesObservadas != 1 {
		t.Errorf("Expected 1 observed, got %d", stats.ActividadesObservadas)
	}
	if stats.EmpresasVinculadas != 1 {
		t.Errorf("Expected 1 linked company, got %d", stats.EmpresasVinculadas)
	}
}

func TestVincularYDesvincularEmpresa(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, _ := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	empresa := testutil.SeedEmpresa(t, env.DB, "20123456789", "ACME S.A.C.")

	vinculo, err := env.Proceso.VincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID)
	if err != nil {
		t.Fatalf("Vincular: %v", err)
	}
	if vinculo.Estado != entity.VinculoEstadoActiva {
		t.Fatalf("Expected ACTIVA, got %s", vinculo.Estado)
	}

	// an active link cannot be created twice
	if _, err := env.Proceso.VincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("Expected Conflict on duplicate link, got %v", err)
	}

	if err := env.Proceso.DesvincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID); err != nil {
		t.Fatalf("Desvincular: %v", err)
	}
	if err := env.Proceso.DesvincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation unlinking twice, got %v", err)
	}

	// relinking reuses the existing row
	reactivado, err := env.Proceso.VincularEmpresa(ctx, proceso.ID, empresa.ID, user.ID)
	if err != nil {
		t.Fatalf("Re-vincular: %v", err)
	}
	if reactivado.ID != vinculo.ID {
		t.Errorf("Expected the original link row reused, got %s vs %s", reactivado.ID, vinculo.ID)
	}
	if reactivado.FechaDesvinculacion != nil {
		t.Error("Expected fecha_desvinculacion cleared on relink")
	}

	historial, err := env.Proceso.HistorialEmpresa(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Historial empresa: %v", err)
	}
	if len(historial) != 3 {
		t.Fatalf("Expected 3 company history entries, got %d", len(historial))
	}
}

func TestEliminarProcesoGuardias(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)

	// an active process cannot be deleted
	if err := env.Proceso.Eliminar(ctx, proceso.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation deleting active process, got %v", err)
	}

	if err := env.DB.Model(&entity.Proceso{}).Where("id = ?", proceso.ID).
		Update("estado", entity.ProcesoEstadoCancelado).Error; err != nil {
		t.Fatalf("Cancel proceso: %v", err)
	}

	// still holds an open phase
	if err := env.Proceso.Eliminar(ctx, proceso.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation with open phase, got %v", err)
	}
	if err := env.DB.Model(&entity.FaseProceso{}).Where("id = ?", fase.ID).
		Update("estado", entity.FaseEstadoCerrada).Error; err != nil {
		t.Fatalf("Close fase: %v", err)
	}

	// activities also block deletion
	actividad := testutil.SeedActividad(t, env.DB, fase, "Resto", entity.ActividadEstadoCreada, false)
	if err := env.Proceso.Eliminar(ctx, proceso.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation with activities, got %v", err)
	}
	if err := env.DB.Delete(&entity.ActividadFase{}, "id = ?", actividad.ID).Error; err != nil {
		t.Fatalf("Delete actividad: %v", err)
	}

	if err := env.Proceso.Eliminar(ctx, proceso.ID); err != nil {
		t.Fatalf("Eliminar: %v", err)
	}
	if _, err := env.Proceso.Get(ctx, proceso.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("Expected NotFound after delete, got %v", err)
	}
}
