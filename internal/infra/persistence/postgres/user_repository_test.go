package postgres

import (
	"context"
	"testing"
	"time"

	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "password_hash", "role", "provider", "created_at", "updated_at"}

const (
	selectByEmailQuery = `SELECT \* FROM "users" WHERE "users"."email" = \$1`
	insertUserQuery    = `INSERT INTO "users"`
	selectAllQuery     = `SELECT \* FROM "users" ORDER BY "users"."created_at"`
)

func TestUserRepository_FindByEmail_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	mock.ExpectQuery(selectByEmailQuery).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), "a@x.com", "$2a$hash", "ROLE_USER", "LOCAL", now, now))

	user, err := repo.FindByEmail(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "$2a$hash", user.PasswordHash)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, entity.ProviderTypeLocal, user.Provider)
	assert.Equal(t, now, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectByEmailQuery).
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "ghost@x.com")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectByEmailQuery).
		WillReturnError(errors.New("db down"))

	user, err := repo.FindByEmail(context.Background(), "a@x.com")

	assert.Nil(t, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Create_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &entity.User{
		Email:        "a@x.com",
		PasswordHash: "$2a$hash",
		Role:         entity.RoleUser,
		Provider:     entity.ProviderTypeLocal,
	}
	err := repo.Create(context.Background(), user)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.False(t, user.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_KeepsPresetID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	mock.ExpectExec(insertUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &entity.User{ID: id, Email: "a@x.com", PasswordHash: "h", Role: entity.RoleUser, Provider: entity.ProviderTypeLocal}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, id, user.ID)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})

	user := &entity.User{Email: "a@x.com", PasswordHash: "h", Role: entity.RoleUser, Provider: entity.ProviderTypeLocal}
	err := repo.Create(context.Background(), user)

	assert.ErrorIs(t, err, domainerrors.ErrDuplicateUser)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQuery).
		WillReturnError(errors.New("connection reset"))

	user := &entity.User{Email: "a@x.com", PasswordHash: "h", Role: entity.RoleUser, Provider: entity.ProviderTypeLocal}
	err := repo.Create(context.Background(), user)

	require.Error(t, err)
	var dbErr *domainerrors.DatabaseExecuteError
	assert.ErrorAs(t, err, &dbErr)
	assert.NotErrorIs(t, err, domainerrors.ErrDuplicateUser)
}

func TestUserRepository_FindAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	first, second := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(selectAllQuery).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(first.String(), "a@x.com", "h1", "ROLE_ADMIN", "LOCAL", now, now).
			AddRow(second.String(), "b@x.com", "h2", "ROLE_USER", "GOOGLE", now.Add(time.Minute), now))

	users, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first, users[0].ID)
	assert.Equal(t, entity.RoleAdmin, users[0].Role)
	assert.Equal(t, second, users[1].ID)
	assert.Equal(t, entity.ProviderTypeGoogle, users[1].Provider)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindAll_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectAllQuery).
		WillReturnRows(sqlmock.NewRows(userColumns))

	users, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_FindByEmail_BindsEmailArgument(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectByEmailQuery).
		WithArgs("a+b@x.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByEmail(context.Background(), "a+b@x.com")

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
