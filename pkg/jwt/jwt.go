// Package jwt emite y verifica los tokens de sesión de la API.
//
// Todo token queda acotado a una empresa: documentos, cálculos y reglas por
// empresa se filtran con el claim cid, así que un token sin empresa no se acepta.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("jwt: secret vacío")
	ErrNoSubject   = errors.New("jwt: token sin usuario")
	ErrNoCompany   = errors.New("jwt: token sin empresa")
	ErrUnknownRole = errors.New("jwt: rol desconocido")
)

// Session identidad autenticada que viaja en el token.
type Session struct {
	UserID    string
	CompanyID string
	Role      string // vacío = el middleware RBAC responde MISSING_ROLE
}

// claims formato en el cable: sub = usuario, cid = empresa.
type claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"cid"`
	Role      string `json:"role,omitempty"`
}

// Config parámetros del firmante.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Roles  []string // roles aceptados al verificar; vacío = cualquiera
}

// Signer firma y verifica tokens HS256 de una misma instalación.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	roles  map[string]bool
	now    func() time.Time
}

// NewSigner construye el firmante. Un secret vacío no falla aquí sino al firmar o verificar.
func NewSigner(cfg Config) *Signer {
	roles := make(map[string]bool, len(cfg.Roles))
	for _, r := range cfg.Roles {
		roles[r] = true
	}
	return &Signer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, roles: roles, now: time.Now}
}

// Sign emite un token para la sesión.
func (s *Signer) Sign(sess Session) (string, error) {
	if err := s.check(sess); err != nil {
		return "", err
	}
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		CompanyID: sess.CompanyID,
		Role:      sess.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify valida firma, emisor y expiración y devuelve la sesión.
// Token sin usuario o sin empresa, o con un rol fuera de Config.Roles, se rechaza.
func (s *Signer) Verify(token string) (Session, error) {
	if len(s.secret) == 0 {
		return Session{}, ErrEmptySecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	var c claims
	if _, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return Session{}, err
	}
	sess := Session{UserID: c.Subject, CompanyID: c.CompanyID, Role: c.Role}
	if err := s.check(sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Signer) check(sess Session) error {
	switch {
	case len(s.secret) == 0:
		return ErrEmptySecret
	case sess.UserID == "":
		return ErrNoSubject
	case sess.CompanyID == "":
		return ErrNoCompany
	case sess.Role != "" && len(s.roles) > 0 && !s.roles[sess.Role]:
		return ErrUnknownRole
	}
	return nil
}
