// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strings"

	"authservice/config"
	deliverycontext "authservice/internal/delivery/context"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/repository"
	"authservice/internal/domain/service"
	"authservice/internal/infra/metrics"
	"authservice/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface. It holds no mutable state.
type authService struct {
	txManager          repository.TransactionManager
	userRepo           repository.UserRepository
	authenticator      service.Authenticator
	hasher             service.PasswordHasher
	tokenService       service.TokenService
	oauthService       service.OAuthAuthService
	publisher          service.EventPublisher
	metrics            *metrics.Prom
	caseSensitiveEmail bool
	logger             *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	UserRepo      repository.UserRepository
	Authenticator service.Authenticator
	Hasher        service.PasswordHasher
	TokenService  service.TokenService
	OAuthService  service.OAuthAuthService
	Publisher     service.EventPublisher
	Metrics       *metrics.Prom `optional:"true"`
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	caseSensitive := false
	if params.Config != nil && params.Config.Auth != nil {
		caseSensitive = params.Config.Auth.CaseSensitiveEmail
	}

	return &authService{
		txManager:          params.TxManager,
		userRepo:           params.UserRepo,
		authenticator:      params.Authenticator,
		hasher:             params.Hasher,
		tokenService:       params.TokenService,
		oauthService:       params.OAuthService,
		publisher:          params.Publisher,
		metrics:            params.Metrics,
		caseSensitiveEmail: caseSensitive,
		logger:             params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// normalizeEmail trims the address and, unless configured otherwise, lowercases it.
// Every write and lookup goes through here so uniqueness is decided on one form.
func (srv *authService) normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if srv.caseSensitiveEmail {
		return email
	}

	return strings.ToLower(email)
}

// Authenticate verifies the credentials and issues a token whose subject is the email.
func (srv *authService) Authenticate(ctx context.Context, req usecase.LoginRequest) (string, error) {
	provider := entity.ProviderTypeLocal.String()

	email := srv.normalizeEmail(req.Email)
	if email == "" {
		srv.metrics.ObserveLogin(provider, metrics.ResultError)

		return "", domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		srv.metrics.ObserveLogin(provider, metrics.ResultUserNotFound)
		srv.log(ctx).Info("Login for unknown email", slog.String("email", email))

		return "", domainerrors.ErrUserNotFound.WithDetails(email)
	}
	if err != nil {
		srv.metrics.ObserveLogin(provider, metrics.ResultError)

		return "", errors.Wrap(err, "failed to find user")
	}

	// Past this point unknown-principal and wrong-password must be indistinguishable.
	if err := srv.authenticator.Authenticate(ctx, email, req.Password); err != nil {
		if errors.Is(err, service.ErrPrincipalNotFound) || errors.Is(err, service.ErrBadCredentials) {
			srv.metrics.ObserveLogin(provider, metrics.ResultInvalidCredentials)
			srv.log(ctx).Info("Login rejected", slog.String("userID", user.ID.String()))

			return "", domainerrors.ErrInvalidCredentials
		}
		srv.metrics.ObserveLogin(provider, metrics.ResultError)

		return "", errors.Wrap(err, "failed to verify credentials")
	}

	token, err := srv.issueToken(user)
	if err != nil {
		srv.metrics.ObserveLogin(provider, metrics.ResultError)

		return "", err
	}

	srv.metrics.ObserveLogin(provider, metrics.ResultSuccess)
	srv.log(ctx).Info("User logged in", slog.String("userID", user.ID.String()))

	return token, nil
}

// CreateUser registers a new account with the default role.
func (srv *authService) CreateUser(ctx context.Context, req usecase.LoginRequest, provider entity.ProviderType) (*entity.User, error) {
	email := srv.normalizeEmail(req.Email)
	if email == "" {
		srv.metrics.ObserveRegistration(provider.String(), metrics.ResultError)

		return nil, domainerrors.ErrValidationFailed.WithDetails("email is required")
	}
	if !provider.IsValid() {
		srv.metrics.ObserveRegistration(provider.String(), metrics.ResultError)

		return nil, domainerrors.ErrValidationFailed.WithDetails("unsupported provider")
	}

	user, err := srv.register(ctx, email, req.Password, entity.DefaultRole, provider)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, domainerrors.ErrDuplicateUser) {
			result = metrics.ResultDuplicate
		}
		srv.metrics.ObserveRegistration(provider.String(), result)

		return nil, err
	}

	srv.metrics.ObserveRegistration(provider.String(), metrics.ResultSuccess)

	return user, nil
}

// FindAll lists every registered user in store order.
func (srv *authService) FindAll(ctx context.Context) ([]*entity.User, error) {
	users, err := srv.userRepo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

// FindUser returns the user with this email, or nil when none exists.
func (srv *authService) FindUser(ctx context.Context, email string) (*entity.User, error) {
	email = srv.normalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// ExistsUser reports whether FindUser would return a user.
func (srv *authService) ExistsUser(ctx context.Context, email string) (bool, error) {
	user, err := srv.FindUser(ctx, email)
	if err != nil {
		return false, err
	}

	return user != nil, nil
}

// GoogleLogin verifies a Google ID token and signs the account in, creating it on first use.
func (srv *authService) GoogleLogin(ctx context.Context, idToken string) (string, error) {
	provider := srv.oauthService.GetProvider()

	if strings.TrimSpace(idToken) == "" {
		srv.metrics.ObserveLogin(provider.String(), metrics.ResultError)

		return "", domainerrors.ErrValidationFailed.WithDetails("id token is required")
	}

	oauthUser, err := srv.oauthService.VerifyIDToken(ctx, idToken)
	if err != nil {
		srv.metrics.ObserveLogin(provider.String(), metrics.ResultInvalidCredentials)

		return "", err
	}

	user, err := srv.findOrProvisionFederated(ctx, srv.normalizeEmail(oauthUser.Email), provider)
	if err != nil {
		srv.metrics.ObserveLogin(provider.String(), metrics.ResultError)

		return "", err
	}

	// An email owned by a password account is not silently linked to the external identity.
	if user.Provider != provider {
		srv.metrics.ObserveLogin(provider.String(), metrics.ResultDuplicate)

		return "", domainerrors.ErrDuplicateUser.WithDetails("email is registered with provider " + user.Provider.String())
	}

	token, err := srv.issueToken(user)
	if err != nil {
		srv.metrics.ObserveLogin(provider.String(), metrics.ResultError)

		return "", err
	}

	srv.metrics.ObserveLogin(provider.String(), metrics.ResultSuccess)
	srv.log(ctx).Info("User logged in", slog.String("userID", user.ID.String()), slog.String("provider", provider.String()))

	return token, nil
}

// EnsureAdmin creates a LOCAL administrator unless the email is already registered.
func (srv *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = srv.normalizeEmail(email)
	if email == "" || password == "" {
		return domainerrors.ErrValidationFailed.WithDetails("admin email and password are required")
	}

	_, err := srv.register(ctx, email, password, entity.RoleAdmin, entity.ProviderTypeLocal)
	if errors.Is(err, domainerrors.ErrDuplicateUser) {
		srv.log(ctx).Info("Admin account already present", slog.String("email", email))

		return nil
	}
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Admin account created", slog.String("email", email))

	return nil
}

// register runs the existence check and the insert in one transaction, then announces the account.
func (srv *authService) register(
	ctx context.Context,
	email, password string,
	role entity.Role,
	provider entity.ProviderType,
) (*entity.User, error) {
	var created *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrDuplicateUser.WithDetails(email)
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check existing user")
		}

		hash, err := srv.hasher.Hash(password)
		if err != nil {
			return domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
		}

		user := &entity.User{
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			Provider:     provider,
		}
		// The unique index on email reports a lost race as ErrDuplicateUser.
		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}
		created = user

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateUser) {
			srv.log(ctx).Info("Registration for existing email", slog.String("email", email))
		} else {
			srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))
		}

		return nil, err
	}

	srv.log(ctx).Info("User registered",
		slog.String("userID", created.ID.String()),
		slog.String("role", created.Role.String()),
		slog.String("provider", created.Provider.String()),
	)
	srv.publishRegistered(ctx, created)

	return created, nil
}

func (srv *authService) findOrProvisionFederated(ctx context.Context, email string, provider entity.ProviderType) (*entity.User, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user")
	}

	// Federated accounts get a random secret that is never disclosed.
	user, err = srv.register(ctx, email, rand.Text(), entity.DefaultRole, provider)
	if err == nil {
		srv.metrics.ObserveRegistration(provider.String(), metrics.ResultSuccess)

		return user, nil
	}
	if !errors.Is(err, domainerrors.ErrDuplicateUser) {
		return nil, err
	}

	// A concurrent first login won the insert.
	user, err = srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

func (srv *authService) issueToken(user *entity.User) (string, error) {
	token, err := srv.tokenService.GenerateToken(user.Email, user.Role.String())
	if err != nil {
		return "", domainerrors.ErrTokenIssueFailed.WrapMessage(err.Error())
	}

	return token, nil
}

// publishRegistered emits UserRegistered. A broker failure never undoes the registration.
func (srv *authService) publishRegistered(ctx context.Context, user *entity.User) {
	event := &service.UserRegisteredEvent{
		RequestID:    deliverycontext.GetRequestIDFromContext(ctx),
		UserID:       user.ID.String(),
		Email:        user.Email,
		Role:         user.Role.String(),
		Provider:     user.Provider.String(),
		RegisteredAt: user.CreatedAt,
	}

	if err := srv.publisher.PublishUserRegistered(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish UserRegistered event",
			slog.String("userID", event.UserID),
			slog.Any("error", err),
		)
	}
}
