// Package token implements the member credential: a compact
// header.payload.signature string, base64url encoded without padding and
// signed with HMAC-SHA256.
package token

import (
	"encoding/json"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultTTL is the lifetime of a credential issued at login.
const DefaultTTL = time.Hour

// Claim keys carried in every member credential.
const (
	ClaimMemberID  = "member_id"
	ClaimName      = "name"
	ClaimExpiresAt = "exp"
)

// Claims is the payload of a credential. Values must be JSON serialisable.
type Claims map[string]any

// MemberID returns the member_id claim, or "" when absent.
func (c Claims) MemberID() string {
	s, _ := c[ClaimMemberID].(string)
	return s
}

// Name returns the name claim, or "" when absent.
func (c Claims) Name() string {
	s, _ := c[ClaimName].(string)
	return s
}

// ExpiresAt returns the exp claim as unix seconds.
func (c Claims) ExpiresAt() (int64, bool) {
	switch v := c[ClaimExpiresAt].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// Issue signs claims with secret. The credential expires ttl after now.
func Issue(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	return NewHMACSigner(secret).Sign(claims, ttl)
}

// Verify checks a credential against secret. A credential whose exp equals
// the current second is still accepted; invalid input never panics.
func Verify(raw string, secret []byte) (Claims, bool) {
	return NewHMACSigner(secret).Verify(raw)
}
