package adminauth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator проверяет общий секрет администратора и выпускает короткоживущие токены.
type Authenticator struct {
	secret     []byte
	secretHash []byte
	jwtSecret  []byte
	tokenTTL   time.Duration

	compareHash func(hash, secret []byte) error
}

// New создаёт Authenticator. Если secretHash не пустой, секрет сверяется с bcrypt-хэшем.
func New(secret, secretHash, jwtSecret string, tokenTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		secretHash: []byte(secretHash),
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,

		compareHash: bcrypt.CompareHashAndPassword,
	}
}

// CheckSecret сравнивает переданный секрет с настроенным за постоянное время.
func (a *Authenticator) CheckSecret(secret string) bool {
	if secret == "" {
		return false
	}
	if len(a.secretHash) > 0 {
		return a.compareHash(a.secretHash, []byte(secret)) == nil
	}
	if len(a.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.secret, []byte(secret)) == 1
}

// Authorize проверяет заголовок Authorization: принимается сам секрет или выпущенный токен.
// Токен проверяется первым, с bcrypt-хэшем сверяется только то, что не похоже на JWT.
func (a *Authenticator) Authorize(header string) bool {
	credential, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	credential = strings.TrimSpace(credential)
	if a.VerifyToken(credential) == nil {
		return true
	}
	if looksLikeJWT(credential) {
		return false
	}
	return a.CheckSecret(credential)
}

// looksLikeJWT: три сегмента, заголовок начинается с base64url от `{"`
func looksLikeJWT(s string) bool {
	return strings.HasPrefix(s, "eyJ") && strings.Count(s, ".") == 2
}
