// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"fmt"
	"marketquery-server/apikeys"
	"marketquery-server/crypto"
	"marketquery-server/middlewares"
	"marketquery-server/models"
	"marketquery-server/passwordcheck"
	"marketquery-server/store"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Store    *store.Store
	Issuer   *apikeys.Issuer
	Sessions *middlewares.SessionAuth
}

// RegisterHandler godoc
// @Summary      Register a new account
// @Description  Creates a user account. Accounts with role "user" are issued an API key immediately; admins never hold one.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body  RegisterRequest  true  "Registration payload"
// @Success      201 {object} AuthResponse      "Registration successful"
// @Failure      400 {object} echo.HTTPError    "Bad request, missing required fields"
// @Failure      409 {object} echo.HTTPError    "Duplicate email"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/register [post]
func (h *AuthHandler) RegisterHandler(c echo.Context) error {
	logger := c.Logger()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid register request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Name == "" {
		logger.Error("Name is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "name field is required",
		}
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		logger.Error("Unknown role requested.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "role must be either \"admin\" or \"user\"",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.Password); err != nil {
		logger.Error("Password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid password: %v", err.Error()),
		}
	}

	existing, err := h.Store.FindUserByEmail(req.Email)
	if err != nil {
		logger.Errorf("Failed to check for existing user: %v", err)
		return echo.ErrInternalServerError
	}
	if existing != nil {
		logger.Error("This email is already registered.")
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "This email is already registered, please try another one.",
		}
	}

	hash, err := crypto.NewCrypto().HashPassword(req.Password)
	if err != nil {
		logger.Errorf("Failed to hash password: %v", err)
		return echo.ErrInternalServerError
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     role,
	}
	if err := h.Store.CreateUser(&user); err != nil {
		logger.Errorf("Failed to create user: %v", err)
		return echo.ErrInternalServerError
	}

	userData := UserData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}

	if user.Role == models.RoleUser {
		key, err := h.Issuer.IssueOrRotate(user.ID)
		if err != nil {
			logger.Errorf("Failed to issue API key: %v", err)
			return echo.ErrInternalServerError
		}
		userData.APIKey = &key.Key
	}

	token, err := h.Sessions.IssueToken(&user)
	if err != nil {
		logger.Errorf("Failed to sign session token: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User registered successfully")
	return c.JSON(http.StatusCreated, AuthResponse{
		Token:   token,
		User:    userData,
		Message: "Registration successful",
	})
}

// LoginHandler godoc
// @Summary      Login
// @Description  Authenticates a user and returns a 7-day session token. "user"-role accounts with no API key are issued one on the spot.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login payload"
// @Success      200 {object} AuthResponse      "Login successful"
// @Failure      400 {object} echo.HTTPError    "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError    "Unauthorized"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/login [post]
func (h *AuthHandler) LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email field is required",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	user, err := h.Store.FindUserByEmail(req.Email)
	if err != nil {
		logger.Errorf("Failed to find user: %v", err)
		return echo.ErrInternalServerError
	}
	if user == nil {
		logger.Error("User not found.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Credentials are incorrect, please check your email and password",
		}
	}

	if err := crypto.NewCrypto().VerifyPassword(req.Password, user.Password); err != nil {
		logger.Error("Password verification failed.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Credentials are incorrect, please check your email and password",
		}
	}

	userData := UserData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}

	if user.Role == models.RoleUser {
		key, err := h.Store.FindCredentialByOwner(user.ID)
		if err != nil {
			logger.Errorf("Failed to fetch API key: %v", err)
			return echo.ErrInternalServerError
		}
		if key == nil {
			// Accounts created before auto-issuance heal here.
			key, err = h.Issuer.IssueOrRotate(user.ID)
			if err != nil {
				logger.Errorf("Failed to issue API key: %v", err)
				return echo.ErrInternalServerError
			}
		}
		userData.APIKey = &key.Key
	}

	token, err := h.Sessions.IssueToken(user)
	if err != nil {
		logger.Errorf("Failed to sign session token: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token:   token,
		User:    userData,
		Message: "Login successful",
	})
}
