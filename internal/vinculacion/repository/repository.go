package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Errores de repositorio
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
)

// Repositories colección de repositorios
type Repositories struct {
	Proceso      *ProcesoRepository
	Fase         *FaseRepository
	Actividad    *ActividadRepository
	Evidencia    *EvidenciaRepository
	Decision     *DecisionRepository
	Historial    *HistorialRepository
	Empresa      *EmpresaRepository
	Convocatoria *ConvocatoriaRepository
	Usuario      *UsuarioRepository
}

// NewRepositories crea la colección de repositorios
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Proceso:      NewProcesoRepository(db),
		Fase:         NewFaseRepository(db),
		Actividad:    NewActividadRepository(db),
		Evidencia:    NewEvidenciaRepository(db),
		Decision:     NewDecisionRepository(db),
		Historial:    NewHistorialRepository(db),
		Empresa:      NewEmpresaRepository(db),
		Convocatoria: NewConvocatoriaRepository(db),
		Usuario:      NewUsuarioRepository(db),
	}
}
