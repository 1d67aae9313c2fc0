package auth

import (
	"errors"
	"time"

	"telegram-catalog/internal/config"
	"telegram-catalog/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and checks admin JWTs.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{secret: []byte(cfg.Secret), ttl: cfg.TTL}
}

// Generate signs a token for the admin. The bot claim carries the tenant.
func (m *TokenManager) Generate(admin models.AdminUser) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   float64(admin.ID),
		"bot":   admin.BotIdentifier,
		"super": admin.IsSuper,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token and returns the admin principal it was issued for.
func (m *TokenManager) Validate(tokenString string) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil, ErrInvalidToken
	}
	bot, _ := claims["bot"].(string)
	super, _ := claims["super"].(bool)

	return &Principal{
		AdminID:       uint(sub),
		BotIdentifier: bot,
		IsSuper:       super,
	}, nil
}
