package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/jwt"
)

// minPasswordLen longitud mínima de contraseña en el registro.
const minPasswordLen = 8

// TokenSigner emite el token de sesión (jwt.Signer lo implementa).
type TokenSigner interface {
	Sign(sess jwt.Session) (string, error)
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	tokens      TokenSigner
	hashCost    int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, tokens TokenSigner) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, tokens: tokens, hashCost: bcrypt.DefaultCost}
}

// WithHashCost ajusta el costo de bcrypt (tests usan bcrypt.MinCost).
func (uc *AuthUseCase) WithHashCost(cost int) *AuthUseCase {
	uc.hashCost = cost
	return uc
}

// RegisterUser crea un usuario: hashea password con bcrypt y persiste.
// Devuelve ErrEmailAlreadyExists si el email ya existe en esa company.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role == "" {
		role = entity.RoleAnalista
	}

	var errs []error
	if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, domain.Invalid("email", "email inválido"))
	}
	if len(in.Password) < minPasswordLen {
		errs = append(errs, domain.Invalid("password", fmt.Sprintf("mínimo %d caracteres", minPasswordLen)))
	}
	if in.CompanyID == "" {
		errs = append(errs, domain.Invalid("company_id", "requerido"))
	}
	if !entity.IsValidRole(role) {
		errs = append(errs, domain.Invalid("role", fmt.Sprintf("rol desconocido %q", role)))
	}
	if err := domain.JoinInvalid(errs); err != nil {
		return nil, err
	}

	existing, err := uc.userRepo.GetByEmailAndCompany(ctx, email, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound // empresa no existe
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.hashCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    in.CompanyID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Usuario inexistente y contraseña incorrecta devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	token, err := uc.tokens.Sign(jwt.Session{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
