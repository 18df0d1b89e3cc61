package members

import (
	"context"

	"github.com/pkg/errors"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

const defaultMinPasswordLength = 6

// Service holds the credential checks on top of a Repo.
type Service struct {
	repo              Repo
	hashPasswords     bool
	minPasswordLength int
}

type ServiceOption func(*Service)

// WithHashedPasswords stores changed passwords as bcrypt hashes.
func WithHashedPasswords(enabled bool) ServiceOption {
	return func(s *Service) {
		s.hashPasswords = enabled
	}
}

func WithMinPasswordLength(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.minPasswordLength = n
		}
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[members NewService] repo is required")
	}
	s := &Service{
		repo:              repo,
		minPasswordLength: defaultMinPasswordLength,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) Repo() Repo {
	return s.repo
}

// CheckCredentials returns the public record of the first member named name
// whose password matches. Unknown names and wrong passwords both yield
// apperrors.ErrInvalidCredentials.
func (s *Service) CheckCredentials(ctx context.Context, name, password string) (*Member, error) {
	if name == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	candidates, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, m := range candidates {
		if CheckPassword(m.Password, password) {
			public := m.Public()
			return &public, nil
		}
	}
	return nil, apperrors.ErrInvalidCredentials
}

// ChangePassword verifies current for the member and stores next.
func (s *Service) ChangePassword(ctx context.Context, memberID, current, next string) (*Member, error) {
	m, err := s.repo.GetCredentials(ctx, memberID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(m.Password, current) {
		return nil, apperrors.ErrPasswordMismatch
	}
	if err := ValidateNewPassword(current, next, s.minPasswordLength); err != nil {
		return nil, err
	}

	stored := next
	if s.hashPasswords {
		if stored, err = HashPassword(next); err != nil {
			return nil, errors.Wrap(err, "[members ChangePassword] hash")
		}
	}
	if err := s.repo.UpdatePassword(ctx, m.MemberID, stored); err != nil {
		return nil, err
	}
	public := m.Public()
	return &public, nil
}
