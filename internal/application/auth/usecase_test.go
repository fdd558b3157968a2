package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/auth"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/jwt"
)

var tokens = jwt.NewSigner(jwt.Config{
	Secret: "secreto-de-prueba", Issuer: "ibs-cbs-estimator", TTL: 5 * time.Minute, Roles: entity.Roles(),
})

func setup(t *testing.T) (*auth.AuthUseCase, string) {
	t.Helper()
	companies := memory.NewCompanyRepo()
	company := &entity.Company{Name: "Acme", CNPJ: "11222333000181", UF: "SP", Status: "active"}
	require.NoError(t, companies.Create(context.Background(), company))
	uc := auth.NewAuthUseCase(memory.NewUserRepo(), companies, tokens).WithHashCost(bcrypt.MinCost)
	return uc, company.ID
}

// ── Registro ──

func TestRegisterUser_RolPorDefecto(t *testing.T) {
	uc, companyID := setup(t)
	user, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: " Ana@Example.com ", Password: "segura123", CompanyID: companyID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, entity.RoleAnalista, user.Role)
	assert.Equal(t, entity.UserStatusActive, user.Status)
	assert.Equal(t, "ana@example.com", user.Name)
}

func TestRegisterUser_Validacion(t *testing.T) {
	uc, _ := setup(t)
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "no-es-email", Password: "corta", Role: "vendedor",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Len(t, domain.FieldErrors(err), 4)
}

func TestRegisterUser_EmailDuplicado(t *testing.T) {
	uc, companyID := setup(t)
	req := dto.RegisterRequest{Email: "ana@example.com", Password: "segura123", CompanyID: companyID, Role: entity.RoleAdmin}
	_, err := uc.RegisterUser(context.Background(), req)
	require.NoError(t, err)
	_, err = uc.RegisterUser(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrEmailAlreadyExists))
}

func TestRegisterUser_EmpresaInexistente(t *testing.T) {
	uc, _ := setup(t)
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "ana@example.com", Password: "segura123", CompanyID: "no-existe",
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ── Login ──

func TestLogin_EmiteTokenConClaims(t *testing.T) {
	uc, companyID := setup(t)
	created, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "ana@example.com", Password: "segura123", CompanyID: companyID, Role: entity.RoleConsulta,
	})
	require.NoError(t, err)

	resp, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ANA@example.com", Password: "segura123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.User.ID)

	sess, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.Session{UserID: created.ID, CompanyID: companyID, Role: entity.RoleConsulta}, sess)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, companyID := setup(t)
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "ana@example.com", Password: "segura123", CompanyID: companyID,
	})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "otra-clave"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@example.com", Password: "segura123"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
