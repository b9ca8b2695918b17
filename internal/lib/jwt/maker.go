// Package jwt реализует выпуск и проверку токенов провайдера идентификации.
//
// Сервис не хранит учётные данные: токен подписывается внешним провайдером
// общим секретом, а claims несут профиль субъекта (sub, name, email, picture).
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// CustomClaims описывает профиль субъекта, хранящийся в токене.
type CustomClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity переводит claims в доменную структуру.
func (c *CustomClaims) Identity() models.Identity {
	return models.Identity{
		TokenIdentifier: c.Subject,
		Name:            c.Name,
		Email:           c.Email,
		ImageURL:        c.Picture,
	}
}

// MakerImpl подписывает и проверяет токены алгоритмом HS256.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// GenerateToken выпускает токен для субъекта. Используется локальной утилитой devtoken
// и тестами вместо внешнего провайдера.
func (j *MakerImpl) GenerateToken(identity models.Identity) (string, error) {
	const op = "jwt.GenerateToken"
	if identity.TokenIdentifier == "" {
		return "", fmt.Errorf("%s: empty subject", op)
	}
	now := time.Now()
	claims := CustomClaims{
		Name:    identity.Name,
		Email:   identity.Email,
		Picture: identity.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.TokenIdentifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает его claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("token has no subject"))
	}
	return claims, nil
}
