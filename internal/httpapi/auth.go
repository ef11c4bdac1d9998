package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/store"
)

var errInvalidCredentials = errors.New("invalid workspace or pin")

// AuthManager exchanges a workspace name and the shared access PIN for a
// signed session token scoped to that workspace.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	pinHash  string
	now      func() time.Time
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
}

func NewAuthManager(secret string, tokenTTL time.Duration, accessPIN string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	manager := &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
	if pin := strings.TrimSpace(accessPIN); pin != "" {
		if hashed, err := hashPassword(pin); err == nil {
			manager.pinHash = hashed
		}
	}
	return manager
}

func (a *AuthManager) OpenSession(req domain.SessionRequest) (domain.SessionResponse, error) {
	workspace, err := store.WorkspaceKey(req.Workspace)
	if err != nil {
		return domain.SessionResponse{}, errInvalidCredentials
	}
	if !verifyPassword(a.pinHash, req.PIN) {
		return domain.SessionResponse{}, errInvalidCredentials
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(workspace, expiresAt)
	if err != nil {
		return domain.SessionResponse{}, err
	}
	return domain.SessionResponse{
		AccessToken: token,
		Workspace:   workspace,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Workspace: sub}, nil
}

func (a *AuthManager) sign(workspace string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   workspace,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "sweetlive",
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(strings.TrimSpace(input))) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
