package repofake

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/robodex/robodex-backend/internal/errors"
	"github.com/robodex/robodex-backend/members"
)

var _ members.Repo = (*FakeMemberRepo)(nil)

type FakeMemberRepo struct {
	members map[string]members.Member
	lock    sync.RWMutex
	lookups int
	err     error
}

func NewFakeMemberRepo(list ...members.Member) *FakeMemberRepo {
	r := &FakeMemberRepo{members: make(map[string]members.Member)}
	for _, m := range list {
		r.members[m.MemberID] = m
	}
	return r
}

// Upsert adds or replaces a member.
func (r *FakeMemberRepo) Upsert(m members.Member) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.members[m.MemberID] = m
}

// SetClearance changes the stored clearance of id; nil removes it.
func (r *FakeMemberRepo) SetClearance(id string, level *int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	m := r.members[id]
	m.Clearance = level
	r.members[id] = m
}

// FailWith makes every call return err until cleared with nil.
func (r *FakeMemberRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

// Lookups counts GetByID calls.
func (r *FakeMemberRepo) Lookups() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.lookups
}

func (r *FakeMemberRepo) Stored(id string) (members.Member, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	m, ok := r.members[id]
	return m, ok
}

func (r *FakeMemberRepo) GetByID(_ context.Context, id string) (*members.Member, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lookups++
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.members[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	public := m.Public()
	return &public, nil
}

func (r *FakeMemberRepo) GetCredentials(_ context.Context, id string) (*members.Member, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.members[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (r *FakeMemberRepo) FindByName(_ context.Context, name string) ([]members.Member, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	var found []members.Member
	for _, m := range r.sorted() {
		if m.Name == name {
			found = append(found, m)
		}
	}
	return found, nil
}

func (r *FakeMemberRepo) UpdatePassword(_ context.Context, id, stored string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return r.err
	}
	m, ok := r.members[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	m.Password = stored
	r.members[id] = m
	return nil
}

func (r *FakeMemberRepo) List(_ context.Context) ([]members.Member, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	list := r.sorted()
	for i := range list {
		list[i] = list[i].Public()
	}
	return list, nil
}

func (r *FakeMemberRepo) sorted() []members.Member {
	list := make([]members.Member, 0, len(r.members))
	for _, m := range r.members {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].MemberID < list[j].MemberID })
	return list
}
