package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// HMACSigner issues and verifies HS256 credentials with a shared secret.
type HMACSigner struct {
	secret []byte
	parser *jwt.Parser
}

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret []byte) *HMACSigner {
	return &HMACSigner{
		secret: secret,
		// Expiry is checked by Verify, which keeps exp == now valid.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

// Sign stamps exp = now + ttl on a copy of claims and returns the signed credential.
// Any exp supplied by the caller is overwritten.
func (h *HMACSigner) Sign(claims Claims, ttl time.Duration) (string, error) {
	payload := jwt.MapClaims{}
	for k, v := range claims {
		payload[k] = v
	}
	payload[ClaimExpiresAt] = NowTimeFunc().Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

// Verify returns the claims of a well-formed, correctly signed, unexpired credential.
// The second result is false for every other input.
func (h *HMACSigner) Verify(raw string) (Claims, bool) {
	parsed, err := h.parser.ParseWithClaims(raw, jwt.MapClaims{}, h.verificationKey)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	claims := Claims(mapClaims)
	exp, ok := claims.ExpiresAt()
	if !ok || exp < NowTimeFunc().Unix() {
		return nil, false
	}
	return claims, true
}

func (h *HMACSigner) verificationKey(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return h.secret, nil
}
