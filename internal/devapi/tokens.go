package devapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "scholardesk-devapi"

// Claims: claims access токена
type Claims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// UserID возвращает id пользователя из subject
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Tokens выпускает и проверяет токены
type Tokens struct {
	now        func() time.Time
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokens создает выпускающий сервис с HS256 секретом
func NewTokens(secret []byte, accessTTL, refreshTTL time.Duration, now func() time.Time) *Tokens {
	return &Tokens{
		now:        now,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Access создает новый JWT access token
func (t *Tokens) Access(userID int64, userType string) (string, error) {
	now := t.now()
	claims := Claims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			// jti делает токены уникальными в пределах одной секунды
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Refresh создает непрозрачный refresh token и срок его действия
func (t *Tokens) Refresh() (string, time.Time) {
	return uuid.NewString(), t.now().Add(t.refreshTTL)
}

// Validate валидирует и парсит JWT access token
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
