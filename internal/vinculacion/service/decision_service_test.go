package service

import (
	"context"
	"testing"
	"time"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/entity"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
)

// avanzarA cierra la fase abierta y posiciona el proceso en otra fase
func avanzarA(t *testing.T, env *testEnv, proceso *entity.Proceso, abierta *entity.FaseProceso, destino string) *entity.FaseProceso {
	t.Helper()
	ahora := time.Now()
	if err := env.DB.Model(&entity.FaseProceso{}).Where("id = ?", abierta.ID).
		Updates(map[string]interface{}{"estado": entity.FaseEstadoCerrada, "fecha_fin": ahora}).Error; err != nil {
		t.Fatalf("Close phase: %v", err)
	}
	fase := testutil.SeedFase(t, env.DB, proceso.ID, destino, entity.FaseEstadoAbierta)
	if err := env.DB.Model(&entity.Proceso{}).Where("id = ?", proceso.ID).
		Update("fase_actual", destino).Error; err != nil {
		t.Fatalf("Move phase pointer: %v", err)
	}
	proceso.FaseActual = destino
	return fase
}

func TestContinuarAvanzaALaSiguienteFase(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	testutil.SeedActividad(t, env.DB, fase, "Obligatoria cumplida", entity.ActividadEstadoAprobada, true)

	decision, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision:      entity.DecisionContinuar,
		Justificacion: "caracterización completa",
		NotasCierre:   "sin observaciones",
	})
	if err != nil {
		t.Fatalf("CONTINUAR: %v", err)
	}
	if decision.Decision != entity.DecisionContinuar {
		t.Errorf("Expected CONTINUAR decision, got %s", decision.Decision)
	}

	got, err := env.Proceso.Get(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Get proceso: %v", err)
	}
	if got.FaseActual != entity.FaseEnriquecimiento {
		t.Fatalf("Expected pointer at ENRIQUECIMIENTO, got %s", got.FaseActual)
	}

	fases, err := env.Fase.ListByProceso(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("List fases: %v", err)
	}
	if len(fases) != 2 {
		t.Fatalf("Expected 2 phase rows, got %d", len(fases))
	}
	for _, f := range fases {
		switch f.Fase {
		case entity.FaseCaracterizacion:
			if f.Estado != entity.FaseEstadoCerrada || f.FechaFin == nil {
				t.Errorf("Expected CARACTERIZACION closed with fecha_fin, got %s", f.Estado)
			}
			if f.NotasCierre != "sin observaciones" {
				t.Errorf("Expected closing notes recorded, got %q", f.NotasCierre)
			}
		case entity.FaseEnriquecimiento:
			if f.Estado != entity.FaseEstadoAbierta {
				t.Errorf("Expected ENRIQUECIMIENTO open, got %s", f.Estado)
			}
		default:
			t.Errorf("Unexpected phase row %s", f.Fase)
		}
	}

	historial, err := env.Proceso.HistorialFase(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Historial fase: %v", err)
	}
	// seed writes no history, so only the decision entry is expected
	if len(historial) != 1 {
		t.Fatalf("Expected 1 phase history entry, got %d", len(historial))
	}
}

func TestContinuarFallaConCompuertaAbierta(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, fase := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	testutil.SeedActividad(t, env.DB, fase, "Obligatoria pendiente", entity.ActividadEstadoEnProgreso, true)
	testutil.SeedActividad(t, env.DB, fase, "Opcional pendiente", entity.ActividadEstadoCreada, false)

	_, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision:      entity.DecisionContinuar,
		Justificacion: "intento prematuro",
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation with open gate, got %v", err)
	}

	// nothing moved
	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.FaseActual != entity.FaseCaracterizacion {
		t.Fatalf("Expected pointer unchanged, got %s", got.FaseActual)
	}
	fases, _ := env.Fase.ListByProceso(ctx, proceso.ID)
	if len(fases) != 1 || fases[0].Estado != entity.FaseEstadoAbierta {
		t.Fatal("Expected the single phase row still open")
	}
}

func TestContinuarFallaEnFaseTerminal(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	avanzarA(t, env, proceso, inicial, entity.FaseTransferencia)

	_, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision:      entity.DecisionContinuar,
		Justificacion: "no hay siguiente",
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation at terminal phase, got %v", err)
	}
}

func TestRetrocederReutilizaElCicloAnterior(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	avanzarA(t, env, proceso, inicial, entity.FaseEnriquecimiento)

	destino := entity.FaseCaracterizacion
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision:      entity.DecisionRetroceder,
		Justificacion: "faltó caracterizar el activo",
		FaseDestino:   &destino,
	}); err != nil {
		t.Fatalf("RETROCEDER: %v", err)
	}

	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.FaseActual != entity.FaseCaracterizacion {
		t.Fatalf("Expected pointer back at CARACTERIZACION, got %s", got.FaseActual)
	}

	// the original row is reopened, no new cycle row appears
	reabierta, err := env.Fase.Get(ctx, inicial.ID)
	if err != nil {
		t.Fatalf("Get fase: %v", err)
	}
	if reabierta.Estado != entity.FaseEstadoAbierta {
		t.Fatalf("Expected original row reopened, got %s", reabierta.Estado)
	}
	if reabierta.FechaFin != nil {
		t.Error("Expected fecha_fin cleared on reopen")
	}
	fases, _ := env.Fase.ListByProceso(ctx, proceso.ID)
	if len(fases) != 2 {
		t.Fatalf("Expected 2 phase rows, got %d", len(fases))
	}
}

func TestRetrocederValidaciones(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)
	avanzarA(t, env, proceso, inicial, entity.FaseEnriquecimiento)

	// destination is mandatory
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRetroceder, Justificacion: "sin destino",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation without destination, got %v", err)
	}

	// destination outside the type's sequence
	ajena := entity.FaseSeleccion
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRetroceder, Justificacion: "fase ajena", FaseDestino: &ajena,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for foreign phase, got %v", err)
	}

	// destination equal to the current phase
	actual := entity.FaseEnriquecimiento
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRetroceder, Justificacion: "misma fase", FaseDestino: &actual,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for current phase, got %v", err)
	}

	// destination never visited
	futura := entity.FaseMatch
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRetroceder, Justificacion: "sin ciclo previo", FaseDestino: &futura,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for unvisited phase, got %v", err)
	}
}

func TestPausarYCancelar(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, _ := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionPausar, Justificacion: "a la espera de presupuesto",
	}); err != nil {
		t.Fatalf("PAUSAR: %v", err)
	}
	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.Estado != entity.ProcesoEstadoPausado {
		t.Fatalf("Expected PAUSADO, got %s", got.Estado)
	}

	// a paused process rejects everything except CANCELAR
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionContinuar, Justificacion: "sigue pausado",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation on paused process, got %v", err)
	}

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionCancelar, Justificacion: "proyecto descartado",
	}); err != nil {
		t.Fatalf("CANCELAR: %v", err)
	}
	got, _ = env.Proceso.Get(ctx, proceso.ID)
	if got.Estado != entity.ProcesoEstadoCancelado {
		t.Fatalf("Expected CANCELADO, got %s", got.Estado)
	}

	// terminal: even CANCELAR is rejected now
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionCancelar, Justificacion: "otra vez",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation cancelling a cancelled process, got %v", err)
	}

	historial, err := env.Proceso.HistorialEstado(ctx, proceso.ID)
	if err != nil {
		t.Fatalf("Historial estado: %v", err)
	}
	if len(historial) != 2 {
		t.Fatalf("Expected 2 state history entries, got %d", len(historial))
	}
}

func TestFinalizarSoloDesdeFaseTerminal(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionFinalizar, Justificacion: "demasiado pronto",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation outside terminal phase, got %v", err)
	}

	terminal := avanzarA(t, env, proceso, inicial, entity.FaseTransferencia)
	testutil.SeedActividad(t, env.DB, terminal, "Contrato firmado", entity.ActividadEstadoAprobada, true)

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionFinalizar, Justificacion: "transferencia completada",
	}); err != nil {
		t.Fatalf("FINALIZAR: %v", err)
	}

	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.Estado != entity.ProcesoEstadoFinalizado {
		t.Fatalf("Expected FINALIZADO, got %s", got.Estado)
	}
	cerrada, _ := env.Fase.Get(ctx, terminal.ID)
	if cerrada.Estado != entity.FaseEstadoCerrada {
		t.Fatalf("Expected terminal phase closed, got %s", cerrada.Estado)
	}
}

func TestRelanzarConvocatoria(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoRequerimientoEmpresarial, user.ID)

	// previous cycle through CONVOCATORIA, now sitting at SELECCION
	convFase := avanzarA(t, env, proceso, inicial, entity.FaseConvocatoria)
	seleccion := avanzarA(t, env, proceso, convFase, entity.FaseSeleccion)

	reto := &entity.RetoTecnologico{ID: "reto-001", ProcesoID: proceso.ID, Codigo: "RETO-2025-001", Titulo: "Optimización de planta"}
	if err := env.DB.Create(reto).Error; err != nil {
		t.Fatalf("Seed reto: %v", err)
	}
	cierre := time.Now()
	conv := &entity.Convocatoria{
		ID: "conv-001", RetoID: reto.ID, Codigo: "CONV-2025-003",
		Estado: entity.ConvocatoriaEstadoCerrada, FechaApertura: cierre.AddDate(0, -1, 0), FechaCierre: &cierre,
	}
	if err := env.DB.Create(conv).Error; err != nil {
		t.Fatalf("Seed convocatoria: %v", err)
	}

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRelanzarConvocatoria, Justificacion: "ninguna propuesta viable",
	}); err != nil {
		t.Fatalf("RELANZAR_CONVOCATORIA: %v", err)
	}

	got, _ := env.Proceso.Get(ctx, proceso.ID)
	if got.FaseActual != entity.FaseConvocatoria {
		t.Fatalf("Expected pointer at CONVOCATORIA, got %s", got.FaseActual)
	}
	cerradaSeleccion, _ := env.Fase.Get(ctx, seleccion.ID)
	if cerradaSeleccion.Estado != entity.FaseEstadoCerrada {
		t.Fatalf("Expected SELECCION closed, got %s", cerradaSeleccion.Estado)
	}
	reabierta, _ := env.Fase.Get(ctx, convFase.ID)
	if reabierta.Estado != entity.FaseEstadoAbierta {
		t.Fatalf("Expected CONVOCATORIA row reopened, got %s", reabierta.Estado)
	}

	convocatorias, err := env.Convocatoria.ListByReto(ctx, reto.ID)
	if err != nil {
		t.Fatalf("List convocatorias: %v", err)
	}
	if len(convocatorias) != 2 {
		t.Fatalf("Expected 2 convocatorias, got %d", len(convocatorias))
	}
	var nueva *entity.Convocatoria
	for i := range convocatorias {
		if convocatorias[i].ID != conv.ID {
			nueva = &convocatorias[i]
		}
	}
	if nueva == nil {
		t.Fatal("Expected a relaunched convocatoria")
	}
	if nueva.Codigo != "CONV-2025-003-R1" {
		t.Errorf("Expected code CONV-2025-003-R1, got %s", nueva.Codigo)
	}
	if nueva.Estado != entity.ConvocatoriaEstadoAbierta {
		t.Errorf("Expected relaunched convocatoria open, got %s", nueva.Estado)
	}
	if nueva.Relanzamientos != 1 {
		t.Errorf("Expected relaunch counter 1, got %d", nueva.Relanzamientos)
	}
}

func TestRelanzarBloqueadoConSeleccionada(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, inicial := testutil.SeedProceso(t, env.DB, entity.TipoRequerimientoEmpresarial, user.ID)
	convFase := avanzarA(t, env, proceso, inicial, entity.FaseConvocatoria)
	avanzarA(t, env, proceso, convFase, entity.FaseSeleccion)

	reto := &entity.RetoTecnologico{ID: "reto-001", ProcesoID: proceso.ID, Codigo: "RETO-2025-001", Titulo: "Reto"}
	env.DB.Create(reto)
	cierre := time.Now()
	conv := &entity.Convocatoria{
		ID: "conv-001", RetoID: reto.ID, Codigo: "CONV-2025-003",
		Estado: entity.ConvocatoriaEstadoCerrada, FechaApertura: cierre.AddDate(0, -1, 0), FechaCierre: &cierre,
	}
	env.DB.Create(conv)
	empresa := testutil.SeedEmpresa(t, env.DB, "20123456789", "ACME S.A.C.")
	env.DB.Create(&entity.Postulacion{
		ID: "post-001", ConvocatoriaID: conv.ID, EmpresaID: empresa.ID,
		Estado: entity.PostulacionEstadoSeleccionada,
	})

	_, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRelanzarConvocatoria, Justificacion: "no procede",
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation with selected postulation, got %v", err)
	}
}

func TestDecisionValidacionesGenerales(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	user := testutil.SeedUsuario(t, env.DB, "user-001", "Gestor Uno")
	proceso, _ := testutil.SeedProceso(t, env.DB, entity.TipoPatente, user.ID)

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionContinuar,
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation without justification, got %v", err)
	}

	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: "SALTAR", Justificacion: "no existe",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation for unknown decision, got %v", err)
	}

	// RELANZAR only applies to company-requirement processes
	if _, err := env.Decision.Crear(ctx, proceso.ID, user.ID, &CrearDecisionRequest{
		Decision: entity.DecisionRelanzarConvocatoria, Justificacion: "tipo equivocado",
	}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("Expected Validation relaunching a patent process, got %v", err)
	}
}
