package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/repository"
	"authservice/internal/domain/service"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memUserStore is an in-memory credential store with a unique email constraint.
type memUserStore struct {
	mu    sync.Mutex
	users []*entity.User
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (s *memUserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return domainerrors.ErrDuplicateUser.WithDetails(user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	s.users = append(s.users, &clone)

	return nil
}

func (s *memUserStore) FindAll(_ context.Context) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		users = append(users, &clone)
	}

	return users, nil
}

func (s *memUserStore) UserRepo() repository.UserRepository {
	return s
}

// Execute runs fn directly; the store's unique check stands in for the database constraint.
func (s *memUserStore) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(s)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.UserRegisteredEvent
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, event *service.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}
