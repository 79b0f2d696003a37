package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims son los claims que exponemos del access token, sin verificar.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

var errNotJWT = errors.New("session: el token no es un JWT parseable")

// Peek decodifica el access token SIN verificar la firma.
//
// Sirve únicamente para mostrar información (p.ej. "sesión expira a las X")
// en /api/session. El route guard NO usa esto: la autorización real la
// decide siempre el upstream, y el guard se queda con presencia-de-cookie.
func Peek(token string) (Claims, error) {
	parser := jwt.NewParser()
	var mc jwt.MapClaims
	if _, _, err := parser.ParseUnverified(token, &mc); err != nil {
		return Claims{}, errNotJWT
	}

	var out Claims
	if sub, err := mc.GetSubject(); err == nil {
		out.Subject = sub
	}
	if v, ok := mc["email"].(string); ok {
		out.Email = v
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}
