package members

import (
	"context"

	"github.com/robodex/robodex-backend/gateway"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

const (
	Table = "members"

	colMemberID  = "member_id"
	colName      = "name"
	colPassword  = "password"
	colClearance = "clearance"
)

type Repo interface {
	// GetByID returns the first member with id, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Member, error)
	// FindByName returns every member named name including the stored
	// password. Names are not unique; no match is an empty slice.
	FindByName(ctx context.Context, name string) ([]Member, error)
	// GetCredentials is GetByID including the stored password.
	GetCredentials(ctx context.Context, id string) (*Member, error)
	UpdatePassword(ctx context.Context, id, stored string) error
	List(ctx context.Context) ([]Member, error)
}

// GatewayRepo reads and writes members through the database gateway.
type GatewayRepo struct {
	api gateway.API
}

var _ Repo = (*GatewayRepo)(nil)

func NewGatewayRepo(api gateway.API) *GatewayRepo {
	return &GatewayRepo{api: api}
}

func (r *GatewayRepo) GetByID(ctx context.Context, id string) (*Member, error) {
	q := gateway.NewQuery().Select(colMemberID, colName, colClearance).Eq(colMemberID, id)
	return r.first(ctx, q)
}

func (r *GatewayRepo) FindByName(ctx context.Context, name string) ([]Member, error) {
	var list []Member
	q := gateway.NewQuery().Select(colMemberID, colName, colPassword, colClearance).Eq(colName, name)
	if err := r.api.Select(ctx, Table, q, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GatewayRepo) GetCredentials(ctx context.Context, id string) (*Member, error) {
	q := gateway.NewQuery().Select(colMemberID, colName, colPassword, colClearance).Eq(colMemberID, id)
	return r.first(ctx, q)
}

func (r *GatewayRepo) UpdatePassword(ctx context.Context, id, stored string) error {
	q := gateway.NewQuery().Eq(colMemberID, id)
	return r.api.Patch(ctx, Table, q, map[string]any{colPassword: stored}, nil)
}

func (r *GatewayRepo) List(ctx context.Context) ([]Member, error) {
	var list []Member
	q := gateway.NewQuery().Select(colMemberID, colName, colClearance)
	if err := r.api.Select(ctx, Table, q, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GatewayRepo) first(ctx context.Context, q *gateway.Query) (*Member, error) {
	var rows []Member
	if err := r.api.Select(ctx, Table, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &rows[0], nil
}
