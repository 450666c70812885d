package service

import (
	"context"
	"testing"

	"github.com/EduardoKstillo/sivtt/internal/vinculacion/apperr"
	"github.com/EduardoKstillo/sivtt/internal/vinculacion/testutil"
)

func TestCrearEmpresaRUCUnico(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	empresa, err := env.Empresa.Crear(ctx, &CrearEmpresaRequest{
		RUC: "20123456789", RazonSocial: "ACME S.A.C.", Sector: "manufactura",
	})
	if err != nil {
		t.Fatalf("Crear empresa: %v", err)
	}

	if _, err := env.Empresa.Crear(ctx, &CrearEmpresaRequest{
		RUC: "20123456789", RazonSocial: "Otra S.A.",
	}); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("Expected Conflict on duplicate RUC, got %v", err)
	}

	got, err := env.Empresa.Get(ctx, empresa.ID)
	if err != nil {
		t.Fatalf("Get empresa: %v", err)
	}
	if got.RazonSocial != "ACME S.A.C." {
		t.Errorf("Expected razón social preserved, got %s", got.RazonSocial)
	}
}

func TestCrearUsuarioEmailUnico(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	usuario, err := env.Usuario.Crear(ctx, &CrearUsuarioRequest{
		Email: "gestor@uni.edu.pe", Nombre: "Gestora Principal",
	})
	if err != nil {
		t.Fatalf("Crear usuario: %v", err)
	}
	if usuario.Rol == "" {
		t.Error("Expected a default role assigned")
	}

	if _, err := env.Usuario.Crear(ctx, &CrearUsuarioRequest{
		Email: "gestor@uni.edu.pe", Nombre: "Duplicada",
	}); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("Expected Conflict on duplicate email, got %v", err)
	}

	_ = testutil.SeedUsuario(t, env.DB, "user-002", "Otro")
	activos, err := env.Usuario.ListActivos(ctx)
	if err != nil {
		t.Fatalf("ListActivos: %v", err)
	}
	if len(activos) != 2 {
		t.Fatalf("Expected 2 active users, got %d", len(activos))
	}
}
