package service

import (
	"testing"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/repository"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv servicios armados sobre una base sqlite en memoria
type testEnv struct {
	DB           *gorm.DB
	Repos        *repository.Repositories
	Proceso      *ProcesoService
	Fase         *FaseService
	Actividad    *ActividadService
	Evidencia    *EvidenciaService
	Decision     *DecisionService
	Empresa      *EmpresaService
	Convocatoria *ConvocatoriaService
	Usuario      *UsuarioService
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	contadores := newContadoresRefresher(repos.Proceso, nil, zap.NewNop())
	convocatoriaSvc := NewConvocatoriaService(repos.Convocatoria, repos.Proceso, db)

	return &testEnv{
		DB:        db,
		Repos:     repos,
		Proceso:   NewProcesoService(repos.Proceso, repos.Fase, repos.Empresa, repos.Historial, contadores, nil, db),
		Fase:      NewFaseService(repos.Fase, repos.Proceso),
		Actividad: NewActividadService(repos.Actividad, repos.Fase, repos.Proceso, repos.Evidencia, repos.Historial, repos.Usuario, contadores, db),
		Evidencia: NewEvidenciaService(repos.Evidencia, repos.Actividad, repos.Fase, repos.Historial, contadores, nil, "", db),
		Decision: NewDecisionService(repos.Decision, repos.Proceso, repos.Fase, repos.Convocatoria,
			repos.Historial, convocatoriaSvc, contadores, db),
		Empresa:      NewEmpresaService(repos.Empresa),
		Convocatoria: convocatoriaSvc,
		Usuario:      NewUsuarioService(repos.Usuario),
	}
}
