package auth

import (
	"time"

	"authservice/config"
	"authservice/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const defaultTokenTTL = 24 * time.Hour

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte        // Secret key for signing access tokens.
	issuer string        // Value of the iss claim.
	ttl    time.Duration // Time-to-live for issued tokens.
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	ttl := defaultTokenTTL
	issuer := ""
	if cfg.Token != nil {
		if cfg.Token.TTL > 0 {
			ttl = cfg.Token.TTL
		}
		issuer = cfg.Token.Issuer
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Access),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// GenerateToken creates a signed HS256 token whose subject is the user's email.
func (s *jwtService) GenerateToken(subjectEmail string, role string) (string, error) {
	if subjectEmail == "" {
		return "", errors.New("token subject must not be empty")
	}

	issuedAt := s.now()
	claims := service.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return signed, nil
}

// ValidateToken checks the signature, expiry and issuer of a token and returns its claims.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetTokenDuration returns the configured duration for issued tokens.
func (s *jwtService) GetTokenDuration() time.Duration {
	return s.ttl
}
