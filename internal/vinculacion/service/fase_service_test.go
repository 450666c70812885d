package service

import (
	"context"
	"strings"
	"testing"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
)

func TestPuedeCerrarSoloSinObligatoriasPendientes(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	_, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)

	// an empty phase can close
	ok, err := env.Fase.PuedeCerrar(ctx, fase.ID)
	if err != nil {
		t.Fatalf("PuedeCerrar: %v", err)
	}
	if !ok {
		t.Fatal("Expected empty phase to be closable")
	}

	pendiente := testutil.SeedActividad(t, env.DB, fase, "Obligatoria", entity.ActividadEstadoEnProgreso, true)
	testutil.SeedActividad(t, env.DB, fase, "Opcional", entity.ActividadEstadoCreada, false)

	ok, err = env.Fase.PuedeCerrar(ctx, fase.ID)
	if err != nil {
		t.Fatalf("PuedeCerrar: %v", err)
	}
	if ok {
		t.Fatal("Expected gate closed with a pending mandatory activity")
	}

	// only mandatory activities count
	if err := env.DB.Model(&entity.ActividadFase{}).Where("id = ?", pendiente.ID).
		Update("estado", entity.ActividadEstadoAprobada).Error; err != nil {
		t.Fatalf("Approve actividad: %v", err)
	}
	ok, err = env.Fase.PuedeCerrar(ctx, fase.ID)
	if err != nil {
		t.Fatalf("PuedeCerrar: %v", err)
	}
	if !ok {
		t.Fatal("Expected gate open once mandatory activities are approved")
	}
}

func TestCerrarFase(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	testutil.SeedActividad(t, env.DB, fase, "Informe de mercado", entity.ActividadEstadoEnRevision, true)

	// gate failure names the pending activity
	_, err := env.Fase.Cerrar(ctx, fase.ID, "")
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation with open gate, got %v", err)
	}
	if !strings.Contains(err.Error(), "Informe de mercado") {
		t.Errorf("Expected error naming the pending activity, got %q", err.Error())
	}

	if err := env.DB.Model(&entity.ActividadFase{}).Where("fase_id = ?", fase.ID).
		Update("estado", entity.ActividadEstadoAprobada).Error; err != nil {
		t.Fatalf("Approve actividades: %v", err)
	}

	cerrada, err := env.Fase.Cerrar(ctx, fase.ID, "fase completada")
	if err != nil {
		t.Fatalf("Cerrar: %v", err)
	}
	if cerrada.Estado != entity.FaseEstadoCerrada || cerrada.FechaFin == nil {
		t.Fatalf("Expected closed phase with fecha_fin, got %+v", cerrada)
	}
	if cerrada.NotasCierre != "fase completada" {
		t.Errorf("Expected closing notes stored, got %q", cerrada.NotasCierre)
	}

	// closing does not touch the process pointer
	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.FaseActual != entity.FaseCaracterizacion {
		t.Errorf("Expected pointer untouched, got %s", got.FaseActual)
	}

	// a closed phase cannot close again
	if _, err := env.Fase.Cerrar(ctx, fase.ID, ""); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation closing twice, got %v", err)
	}
}
