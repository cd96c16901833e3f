package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type authServiceImpl struct {
	logger        zerolog.Logger
	jwtIssuer     string
	jwtSigningKey []byte
}

// NewAuthService verifies HS256 tokens signed with jwtSigningKey. An empty
// jwtIssuer accepts any issuer.
func NewAuthService(
	logger zerolog.Logger,
	jwtIssuer string,
	jwtSigningKey []byte,
) AuthService {
	return &authServiceImpl{
		logger:        logger,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: jwtSigningKey,
	}
}

func (s *authServiceImpl) Authenticate(token string) (*Identity, error) {
	// Never verify against an empty key.
	if len(s.jwtSigningKey) == 0 {
		s.logger.Error().Msg("no signing key configured, rejecting token")
		return nil, ErrUnauthorized
	}

	claims, err := s.parseJWTToken(token)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("rejected token")
		return nil, ErrUnauthorized
	}

	if claims.Subject == "" {
		s.logger.Debug().Msg("token has no subject")
		return nil, ErrUnauthorized
	}
	return &Identity{UserID: claims.Subject}, nil
}

func (s *authServiceImpl) parseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if s.jwtIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.jwtIssuer))
	}

	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}
