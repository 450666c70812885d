package service

import (
	"context"
	"testing"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
)

// flujoEvidencia arma una actividad con requisito obligatorio, responsable y revisor
func flujoEvidencia(t *testing.T, env *testEnv) (*entity.ActividadFase, *entity.RequisitoActividad, *entity.Usuario, *entity.Usuario) {
	t.Helper()
	responsable := testutil.SeedUsuario(t, env.DB, "user-resp", "Responsable")
	revisor := testutil.SeedUsuario(t, env.DB, "user-rev", "Revisor")
	_, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, responsable.ID)
	actividad := testutil.SeedActividad(t, env.DB, fase, "Informe de caracterización", entity.ActividadEstadoCreada, true)
	requisito := testutil.SeedRequisito(t, env.DB, actividad.ID, "Informe PDF", true)
	testutil.SeedAsignacion(t, env.DB, actividad.ID, responsable.ID, entity.RolResponsable)
	testutil.SeedAsignacion(t, env.DB, actividad.ID, revisor.ID, entity.RolRevisor)
	return actividad, requisito, responsable, revisor
}

func TestCrearEvidenciaSoloResponsable(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	actividad, requisito, _, revisor := flujoEvidencia(t, env)
	intruso := testutil.SeedUsuario(t, env.DB, "user-x", "Sin rol")

	req := &CrearEvidenciaRequest{RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo}
	if _, err := env.Evidencia.Crear(ctx, actividad.ID, intruso.ID, req); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("Expected Forbidden for unassigned user, got %v", err)
	}
	// the reviewer is assigned, but not as RESPONSABLE
	if _, err := env.Evidencia.Crear(ctx, actividad.ID, revisor.ID, req); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("Expected Forbidden for reviewer, got %v", err)
	}
}

func TestRevisarEvidenciaSoloRevisor(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	actividad, requisito, responsable, _ := flujoEvidencia(t, env)
	intruso := testutil.SeedUsuario(t, env.DB, "user-x", "Sin rol")

	evidencia, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID,
		Tipo:        entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear evidencia: %v", err)
	}

	req := &RevisarEvidenciaRequest{Estado: entity.EvidenciaEstadoAprobada}
	if _, err := env.Evidencia.Revisar(ctx, evidencia.ID, intruso.ID, req); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("Expected Forbidden for unassigned user, got %v", err)
	}
	if _, err := env.Evidencia.Revisar(ctx, evidencia.ID, responsable.ID, req); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("Expected Forbidden for responsable, got %v", err)
	}
	if _, err := env.Evidencia.Revisar(ctx, evidencia.ID, "user-rev", &RevisarEvidenciaRequest{Estado: "OTRO"}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for unknown review state, got %v", err)
	}
}

func TestVersionMonotonicaPorActividad(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	actividad, requisito, responsable, _ := flujoEvidencia(t, env)

	v1, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear v1: %v", err)
	}
	if v1.Version != 1 {
		t.Fatalf("Expected version 1, got %d", v1.Version)
	}

	// extra evidence shares the same per-activity counter
	v2, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		Tipo: entity.EvidenciaTipoEnlace, URL: "https://example.test/extra",
	})
	if err != nil {
		t.Fatalf("Crear v2: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("Expected version 2, got %d", v2.Version)
	}

	// deleting never frees a version number
	if err := env.Evidencia.Eliminar(ctx, v2.ID); err != nil {
		t.Fatalf("Eliminar v2: %v", err)
	}
	v3, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear v3: %v", err)
	}
	if v3.Version != 3 {
		t.Fatalf("Expected version 3 after delete, got %d", v3.Version)
	}
}

func TestCicloRevisionRecomputaEstado(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	actividad, requisito, responsable, revisor := flujoEvidencia(t, env)

	// upload with a reviewer assigned puts the activity in review
	v1, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear v1: %v", err)
	}
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoEnRevision)

	// rejection observes the activity
	if _, err := env.Evidencia.Revisar(ctx, v1.ID, revisor.ID, &RevisarEvidenciaRequest{
		Estado: entity.EvidenciaEstadoRechazada, Comentario: "falta la sección de resultados",
	}); err != nil {
		t.Fatalf("Revisar rechazo: %v", err)
	}
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoObservada)

	// a new version supersedes the rejected one and reenters review
	v2, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear v2: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("Expected version 2, got %d", v2.Version)
	}
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoEnRevision)

	// approving the current version readies the activity for closure,
	// even though v1 remains RECHAZADA in the record
	if _, err := env.Evidencia.Revisar(ctx, v2.ID, revisor.ID, &RevisarEvidenciaRequest{
		Estado: entity.EvidenciaEstadoAprobada,
	}); err != nil {
		t.Fatalf("Revisar aprobación: %v", err)
	}
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoListaParaCierre)
}

func TestEliminarEvidenciaNoRecomputa(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	actividad, requisito, responsable, _ := flujoEvidencia(t, env)

	v1, err := env.Evidencia.Crear(ctx, actividad.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &requisito.ID, Tipo: entity.EvidenciaTipoArchivo,
	})
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoEnRevision)

	if err := env.Evidencia.Eliminar(ctx, v1.ID); err != nil {
		t.Fatalf("Eliminar: %v", err)
	}
	// the activity keeps its state until the next explicit recompute
	assertEstado(t, env, actividad.ID, entity.ActividadEstadoEnRevision)
}

func TestCrearEvidenciaGuardias(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	responsable := testutil.SeedUsuario(t, env.DB, "user-resp", "Responsable")
	_, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, responsable.ID)

	// no evidence against an already approved activity
	aprobada := testutil.SeedActividad(t, env.DB, fase, "Cerrada", entity.ActividadEstadoAprobada, true)
	testutil.SeedAsignacion(t, env.DB, aprobada.ID, responsable.ID, entity.RolResponsable)
	if _, err := env.Evidencia.Crear(ctx, aprobada.ID, responsable.ID, &CrearEvidenciaRequest{
		Tipo: entity.EvidenciaTipoEnlace, URL: "https://example.test/doc",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation on APROBADA activity, got %v", err)
	}

	// the requisito must belong to the activity
	otra := testutil.SeedActividad(t, env.DB, fase, "Otra", entity.ActividadEstadoCreada, true)
	testutil.SeedAsignacion(t, env.DB, otra.ID, responsable.ID, entity.RolResponsable)
	ajeno := testutil.SeedRequisito(t, env.DB, aprobada.ID, "De otra actividad", true)
	if _, err := env.Evidencia.Crear(ctx, otra.ID, responsable.ID, &CrearEvidenciaRequest{
		RequisitoID: &ajeno.ID, Tipo: entity.EvidenciaTipoArchivo,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation on foreign requisito, got %v", err)
	}
}

func assertEstado(t *testing.T, env *testEnv, actividadID, esperado string) {
	t.Helper()
	got, err := env.Actividad.Get(context.Background(), actividadID)
	if err != nil {
		t.Fatalf("Get actividad: %v", err)
	}
	if got.Estado != esperado {
		t.Fatalf("Expected estado %s, got %s", esperado, got.Estado)
	}
}
