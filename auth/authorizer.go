// Package auth authenticates bearer credentials and gates routes by the
// clearance level stored on the member record.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
	"github.com/robodex/robodex-backend/members"
	"github.com/robodex/robodex-backend/token"
	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// MemberLookup finds a member by id. A missing record is
// apperrors.ErrNotFound.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (*members.Member, error)
}

// ClearanceCache stores resolved clearance levels by member id. Only present
// levels are cached.
type ClearanceCache interface {
	Get(ctx context.Context, memberID string) (level int, ok bool, err error)
	Set(ctx context.Context, memberID string, level int) error
	Delete(ctx context.Context, memberID string) error
}

// ExtractCredential returns the token of an "Authorization: Bearer <token>"
// header. The scheme is case sensitive and followed by exactly one space.
func ExtractCredential(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := header[len(bearerPrefix):]
	if raw == "" {
		return "", false
	}
	return raw, true
}

// Authenticate verifies the credential carried by header.
func Authenticate(header string, secret []byte) (token.Claims, error) {
	raw, ok := ExtractCredential(header)
	if !ok {
		return nil, ErrUnauthenticated
	}
	claims, ok := token.Verify(raw, secret)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// ResolveClearance looks the member up once. ok is false when no record
// matches or the record has no clearance; store failures are returned as
// errors.
func ResolveClearance(ctx context.Context, memberID string, lookup MemberLookup) (level int, ok bool, err error) {
	m, err := lookup.GetByID(ctx, memberID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if m == nil || m.Clearance == nil {
		return 0, false, nil
	}
	return *m.Clearance, true, nil
}

// Authorize returns nil when the member named by claims holds at least the
// required level and ErrInsufficientClearance when it does not, including
// when no clearance resolves.
func Authorize(ctx context.Context, claims token.Claims, lookup MemberLookup, required Level) error {
	level, ok, err := ResolveClearance(ctx, claims.MemberID(), lookup)
	if err != nil {
		return err
	}
	if !ok || !required.Admits(level) {
		return ErrInsufficientClearance
	}
	return nil
}

// Authorizer binds the signing secret, the member store and an optional
// clearance cache.
type Authorizer struct {
	secret  []byte
	members MemberLookup
	cache   ClearanceCache
	ttl     time.Duration
}

type AuthorizerOption func(*Authorizer)

// WithClearanceCache enables caching of resolved clearances.
func WithClearanceCache(c ClearanceCache) AuthorizerOption {
	return func(a *Authorizer) {
		a.cache = c
	}
}

// WithTokenTTL sets the lifetime of issued credentials.
func WithTokenTTL(ttl time.Duration) AuthorizerOption {
	return func(a *Authorizer) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

func NewAuthorizer(secret []byte, lookup MemberLookup, options ...AuthorizerOption) (*Authorizer, error) {
	if len(secret) == 0 {
		return nil, errors.New("[NewAuthorizer] secret is required")
	}
	if lookup == nil {
		return nil, errors.New("[NewAuthorizer] member lookup is required")
	}
	a := &Authorizer{
		secret:  secret,
		members: lookup,
		ttl:     token.DefaultTTL,
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

// Issue signs a credential for the member.
func (a *Authorizer) Issue(memberID, name string) (string, error) {
	return token.Issue(token.Claims{
		token.ClaimMemberID: memberID,
		token.ClaimName:     name,
	}, a.secret, a.ttl)
}

func (a *Authorizer) Authenticate(header string) (token.Claims, error) {
	return Authenticate(header, a.secret)
}

// ResolveClearance consults the cache before the member store. Cache
// failures are logged and fall through to the store.
func (a *Authorizer) ResolveClearance(ctx context.Context, memberID string) (int, bool, error) {
	if a.cache == nil {
		return ResolveClearance(ctx, memberID, a.members)
	}
	log := zerolog.Ctx(ctx)

	level, ok, err := a.cache.Get(ctx, memberID)
	if err != nil {
		log.Warn().Err(err).Str("member_id", memberID).Msg("clearance cache read failed")
	} else if ok {
		return level, true, nil
	}

	level, ok, err = ResolveClearance(ctx, memberID, a.members)
	if err != nil || !ok {
		return level, ok, err
	}
	if err := a.cache.Set(ctx, memberID, level); err != nil {
		log.Warn().Err(err).Str("member_id", memberID).Msg("clearance cache write failed")
	}
	return level, true, nil
}

func (a *Authorizer) Authorize(ctx context.Context, claims token.Claims, required Level) error {
	level, ok, err := a.ResolveClearance(ctx, claims.MemberID())
	if err != nil {
		return err
	}
	if !ok || !required.Admits(level) {
		return ErrInsufficientClearance
	}
	return nil
}

// Invalidate drops any cached clearance for the member.
func (a *Authorizer) Invalidate(ctx context.Context, memberID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Delete(ctx, memberID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("member_id", memberID).Msg("clearance cache invalidation failed")
	}
}
