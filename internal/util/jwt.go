package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the bearer token fields the API reads. The user id is the subject.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMissingSubject   = errors.New("token has no subject")
	ErrUnsupportedAlg   = errors.New("unsupported signing algorithm")
	errNotPEM           = errors.New("failed to decode PEM block containing public key")
	errUnexpectedKeyAlg = errors.New("unexpected public key type")
)

func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errNotPEM
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// keyFuncFor picks verification material from the token's alg header. HS* use keyMaterial
// as a shared secret, RS* and ES* parse it as a PEM public key.
func keyFuncFor(alg, keyMaterial string) (jwt.Keyfunc, error) {
	switch alg {
	case "HS256", "HS384", "HS512":
		if strings.Contains(keyMaterial, "-----BEGIN") {
			return nil, fmt.Errorf("%w: %s with a public key", ErrUnsupportedAlg, alg)
		}
		secret := []byte(keyMaterial)
		return func(*jwt.Token) (any, error) { return secret, nil }, nil
	case "RS256", "RS384", "RS512":
		pub, err := parsePublicKey(keyMaterial)
		if err != nil {
			return nil, err
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: want RSA", errUnexpectedKeyAlg)
		}
		return func(*jwt.Token) (any, error) { return rsaPub, nil }, nil
	case "ES256", "ES384", "ES512":
		pub, err := parsePublicKey(keyMaterial)
		if err != nil {
			return nil, err
		}
		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: want ECDSA", errUnexpectedKeyAlg)
		}
		return func(*jwt.Token) (any, error) { return ecPub, nil }, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, alg)
	}
}

// ValidateJWT verifies tokenString against keyMaterial and returns its claims.
func ValidateJWT(tokenString, keyMaterial string) (*Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token header: %w", err)
	}
	alg, _ := unverified.Header["alg"].(string)
	keyFunc, err := keyFuncFor(alg, keyMaterial)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	// Pinning the parser to the header's alg keeps an HS token from being checked against a public key.
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc, jwt.WithValidMethods([]string{alg}))
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
