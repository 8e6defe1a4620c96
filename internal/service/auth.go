package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gameia/engine/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService verifies the bearer tokens API callers present. Tokens are
// issued by the platform's identity service; GenerateJWT exists for tooling.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *AuthService) GenerateJWT(actor model.Actor) (string, error) {
	claims := jwt.MapClaims{
		"user_id": actor.UserID,
		"role":    actor.Role,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyJWT validates the token and returns the actor it names.
func (s *AuthService) VerifyJWT(tokenString string) (model.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Actor{}, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return model.Actor{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin, model.RoleSystem:
	default:
		return model.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}

	return model.Actor{UserID: userID, Role: role}, nil
}
