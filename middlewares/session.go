// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"errors"
	"marketquery-server/commons"
	"marketquery-server/models"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const SessionValidity = 7 * 24 * time.Hour

// SessionAuth is the dashboard authentication plane: stateless HS256 bearer
// tokens carrying the user's identifier and role. It never participates in
// API-key lifecycle decisions beyond supplying that pair.
type SessionAuth struct {
	Secret []byte
}

func NewSessionAuth() *SessionAuth {
	return &SessionAuth{
		Secret: []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")),
	}
}

func (s *SessionAuth) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  "https://marketquery-server.com",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(SessionValidity).Unix(),
		"uid":  user.ID,
		"role": string(user.Role),
	})
	return token.SignedString(s.Secret)
}

// Verify authenticates the session bearer token and attaches the
// (userId, role) pair to the request context.
func (s *SessionAuth) Verify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			logger.Error("Authorization header missing or invalid.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Authorization token is required, please login",
			}
		}
		sessionToken := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(sessionToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.Secret, nil
		})
		if err != nil || !token.Valid {
			logger.Error("JWT Failed to parse or is invalid: ", err)
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			logger.Error("Failed to parse JWT claims.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		uid, uidOK := claims["uid"].(float64)
		role, roleOK := claims["role"].(string)
		if !uidOK || !roleOK {
			logger.Error("Session token claims are malformed.")
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Invalid or expired session token, please login again",
			}
		}

		c.Set("session_user_id", uint(uid))
		c.Set("session_role", models.Role(role))
		return next(c)
	}
}

// RequireAdmin runs after Verify and rejects non-admin sessions.
func (s *SessionAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, ok := c.Get("session_role").(models.Role); ok && role == models.RoleAdmin {
			return next(c)
		}
		c.Logger().Error("Admin-only route rejected for non-admin session.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Access denied: admin only",
		}
	}
}

// SessionUserID returns the authenticated user ID set by Verify.
func SessionUserID(c echo.Context) (uint, error) {
	if id, ok := c.Get("session_user_id").(uint); ok {
		return id, nil
	}
	return 0, errors.New("no authenticated session found")
}

// SessionRole returns the authenticated role set by Verify.
func SessionRole(c echo.Context) (models.Role, error) {
	if role, ok := c.Get("session_role").(models.Role); ok {
		return role, nil
	}
	return "", errors.New("no authenticated session found")
}
