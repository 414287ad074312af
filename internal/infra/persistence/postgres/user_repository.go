// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/repository"
	"authservice/internal/infra/persistence/model"
	"authservice/internal/infra/persistence/postgres/query"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	q *query.Query
}

// NewUserRepository is the constructor for userRepository.
// It initializes the repository with the GORM Gen query builder bound to db, which may be an open transaction.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		q: query.Use(db),
	}
}

// FindByEmail retrieves a single user by exact email match.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	userM, err := repo.q.UserModel.WithContext(ctx).
		Where(repo.q.UserModel.Email.Eq(email)).
		Take()
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(userM), nil
}

// Create persists a new user entity.
// The unique index on email turns a lost registration race into ErrDuplicateUser.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	if err := repo.q.UserModel.WithContext(ctx).Create(userM); err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDuplicateUser.WithDetails(user.Email)
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated timestamps
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// FindAll returns every user ordered by creation time.
func (repo *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	userMs, err := repo.q.UserModel.WithContext(ctx).
		Order(repo.q.UserModel.CreatedAt).
		Find()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(userMs))
	for _, userM := range userMs {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         entity.Role(data.Role),
		Provider:     entity.ProviderType(data.Provider),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         data.Role.String(),
		Provider:     data.Provider.String(),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
