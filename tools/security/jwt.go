package security

import (
	"strings"
	"time"

	errs "Linkup/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options controls signing algorithm and token lifetime.
type Options struct {
	Secret []byte
	Alg    string        // HS256/HS384/HS512, default HS256
	TTL    time.Duration // default 2h
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// Principal is the authenticated identity the core expects from the auth
// boundary: just an id and a display name.
type Principal struct {
	ID   string
	Name string
}

func (o Options) method() jwtlib.SigningMethod {
	switch strings.ToUpper(o.Alg) {
	case "HS384":
		return jwtlib.SigningMethodHS384
	case "HS512":
		return jwtlib.SigningMethodHS512
	default:
		return jwtlib.SigningMethodHS256
	}
}

// Sign issues a token for the given principal.
func Sign(p Principal, opts Options) (string, error) {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub":  p.ID,
		"name": p.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(opts.TTL).Unix(),
	}
	return jwtlib.NewWithClaims(opts.method(), claims).SignedString(opts.Secret)
}

// Parse validates the token and extracts the principal. Any failure maps to
// ErrUnauthorized; the caller never sees jwt library internals.
func Parse(token string, opts Options) (Principal, error) {
	tok, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errs.ErrUnauthorized.WithDetail("unexpected signing method")
		}
		return opts.Secret, nil
	})
	if err != nil || !tok.Valid {
		return Principal{}, errs.ErrUnauthorized.WithDetail("invalid token")
	}
	claims, ok := tok.Claims.(jwtlib.MapClaims)
	if !ok {
		return Principal{}, errs.ErrUnauthorized.WithDetail("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, errs.ErrUnauthorized.WithDetail("missing subject")
	}
	name, _ := claims["name"].(string)
	return Principal{ID: sub, Name: name}, nil
}
