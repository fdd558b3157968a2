package jwt_test

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/jwt"
)

const secret = "secreto-de-prueba"

func firmante(ttl time.Duration) *jwt.Signer {
	return jwt.NewSigner(jwt.Config{
		Secret: secret, Issuer: "ibs-cbs-estimator", TTL: ttl, Roles: []string{"admin", "analista", "consulta"},
	})
}

func TestSignVerify_SesionDeEmpresa(t *testing.T) {
	s := firmante(time.Minute)
	sess := jwt.Session{UserID: "u1", CompanyID: "c1", Role: "analista"}
	tok, err := s.Sign(sess)
	require.NoError(t, err)

	got, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestSign_SinEmpresaOUsuarioFalla(t *testing.T) {
	s := firmante(time.Minute)
	_, err := s.Sign(jwt.Session{UserID: "u1", Role: "admin"})
	assert.ErrorIs(t, err, jwt.ErrNoCompany)
	_, err = s.Sign(jwt.Session{CompanyID: "c1", Role: "admin"})
	assert.ErrorIs(t, err, jwt.ErrNoSubject)
	_, err = s.Sign(jwt.Session{UserID: "u1", CompanyID: "c1", Role: "vendedor"})
	assert.ErrorIs(t, err, jwt.ErrUnknownRole)
}

func TestVerify_ClaimsDeOtroFirmante(t *testing.T) {
	s := firmante(time.Minute)
	exp := time.Now().Add(time.Minute).Unix()
	firmar := func(c gojwt.MapClaims) string {
		tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}

	_, err := s.Verify(firmar(gojwt.MapClaims{"sub": "u1", "role": "admin", "iss": "ibs-cbs-estimator", "exp": exp}))
	assert.ErrorIs(t, err, jwt.ErrNoCompany)

	_, err = s.Verify(firmar(gojwt.MapClaims{"sub": "u1", "cid": "c1", "role": "root", "iss": "ibs-cbs-estimator", "exp": exp}))
	assert.ErrorIs(t, err, jwt.ErrUnknownRole)

	_, err = s.Verify(firmar(gojwt.MapClaims{"sub": "u1", "cid": "c1", "role": "admin", "iss": "ibs-cbs-estimator"}))
	assert.Error(t, err, "el vencimiento es obligatorio")
}

func TestVerify_TokenRechazado(t *testing.T) {
	sess := jwt.Session{UserID: "u1", CompanyID: "c1", Role: "admin"}

	vencido, err := firmante(-time.Minute).Sign(sess)
	require.NoError(t, err)
	_, err = firmante(time.Minute).Verify(vencido)
	assert.True(t, errors.Is(err, gojwt.ErrTokenExpired))

	tok, err := firmante(time.Minute).Sign(sess)
	require.NoError(t, err)
	_, err = jwt.NewSigner(jwt.Config{Secret: "otro-secret", Issuer: "ibs-cbs-estimator"}).Verify(tok)
	assert.True(t, errors.Is(err, gojwt.ErrTokenSignatureInvalid))
	_, err = jwt.NewSigner(jwt.Config{Secret: secret, Issuer: "otro-emisor"}).Verify(tok)
	assert.True(t, errors.Is(err, gojwt.ErrTokenInvalidIssuer))

	_, err = jwt.NewSigner(jwt.Config{}).Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}
