// Package guard gates admin operations behind a stored session. A session is
// a JWT plus the role it was issued for, persisted in the workspace .env file
// so the CLI stays signed in between invocations.
package guard

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenEnv = "UTSAVYA_TOKEN"
	RoleEnv  = "UTSAVYA_ROLE"
)

// AllowedRoles are the roles admitted to the panel.
var AllowedRoles = []string{"admin", "super-admin"}

var (
	ErrNoSession  = errors.New("no session, sign in first")
	ErrRoleDenied = errors.New("role not allowed")
	ErrExpired    = errors.New("session expired")
)

// Credentials is one stored session.
type Credentials struct {
	Token string
	Role  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Issue signs a session token for subject with the given role.
func Issue(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses and validates a session token, returning its subject and
// role. Expired tokens report ErrExpired.
func Verify(token, secret string) (subject, role string, err error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrExpired
		}
		return "", "", err
	}
	if !parsed.Valid {
		return "", "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", "", errors.New("subject claim required")
	}
	return claims.Subject, claims.Role, nil
}

// Check validates a stored session against the signing secret and the role
// allow-list. A missing token is ErrNoSession, a disallowed role
// ErrRoleDenied.
func Check(c Credentials, secret string) error {
	if c.Token == "" {
		return ErrNoSession
	}
	_, role, err := Verify(c.Token, secret)
	if err != nil {
		return err
	}
	if role == "" {
		role = c.Role
	}
	if !roleAllowed(role) {
		return fmt.Errorf("%w: %q", ErrRoleDenied, role)
	}
	return nil
}

// Allowed reports whether a role is admitted to the panel.
func Allowed(role string) bool { return roleAllowed(role) }

func roleAllowed(role string) bool {
	for _, r := range AllowedRoles {
		if role == r {
			return true
		}
	}
	return false
}

// Load reads the session from the workspace .env file. A missing file or
// missing token key is ErrNoSession.
func Load(workspace string) (Credentials, error) {
	f, err := os.Open(envPath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNoSession
		}
		return Credentials{}, err
	}
	defer f.Close()

	var c Credentials
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, TokenEnv+"="); ok {
			c.Token = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, RoleEnv+"="); ok {
			c.Role = strings.TrimSpace(v)
		}
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, err
	}
	if c.Token == "" {
		return Credentials{}, ErrNoSession
	}
	return c, nil
}

// Save writes the session into the workspace .env file, preserving unrelated
// keys.
func Save(workspace string, c Credentials) error {
	if err := setEnvValue(envPath(workspace), TokenEnv, c.Token); err != nil {
		return err
	}
	return setEnvValue(envPath(workspace), RoleEnv, c.Role)
}

// Clear signs out by emptying the session keys.
func Clear(workspace string) error {
	return Save(workspace, Credentials{})
}

func envPath(workspace string) string {
	return filepath.Join(workspace, ".env")
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o600)
}
