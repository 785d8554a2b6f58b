package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront_back_end/internal/models"
)

const (
	// CookieName est le cookie httpOnly qui transporte le jeton de session.
	CookieName = "token"
	DefaultTTL = time.Hour
)

var ErrMissingEmail = errors.New("claim email manquant ou invalide")

// Manager signe et vérifie les jetons de session (HS256).
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signe les claims fournis par l'appelant. exp et iat sont toujours
// fixés par le serveur.
func (m *Manager) Issue(claims map[string]interface{}) (string, time.Time, error) {
	if _, err := EmailFrom(claims); err != nil {
		return "", time.Time{}, err
	}

	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	now := m.now()
	expiresAt := now.Add(m.ttl)
	mc["iat"] = now.Unix()
	mc["exp"] = expiresAt.Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signature du jeton: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse vérifie la signature, l'algorithme et l'expiration du jeton.
func (m *Manager) Parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// EmailFrom extrait le claim email.
func EmailFrom(claims map[string]interface{}) (string, error) {
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", ErrMissingEmail
	}
	return email, nil
}

// Session est le contexte authentifié transmis aux handlers protégés.
type Session struct {
	Email  string
	Claims jwt.MapClaims
	User   *models.User
}
