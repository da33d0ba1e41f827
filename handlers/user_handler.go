// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"marketquery-server/apikeys"
	"marketquery-server/crypto"
	"marketquery-server/middlewares"
	"marketquery-server/models"
	"marketquery-server/passwordcheck"
	"marketquery-server/store"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	Store     *store.Store
	Issuer    *apikeys.Issuer
	Evaluator *apikeys.Evaluator
}

// ProfileHandler godoc
// @Summary      Get the authenticated user's profile
// @Description  Admins get the plain identity view. "user"-role accounts additionally get their API key with its status reconciled against the expiry deadline.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserProfileView   "Profile retrieved successfully"
// @Failure      401 {object} echo.HTTPError    "Unauthorized, invalid or expired session token"
// @Failure      404 {object} echo.HTTPError    "User not found"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/profile [get]
func (h *UserHandler) ProfileHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := h.sessionUser(c)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		return c.JSON(http.StatusOK, AdminProfileView{
			ID:      user.ID,
			Name:    user.Name,
			Email:   user.Email,
			Role:    string(user.Role),
			Message: "Profile retrieved successfully",
		})
	}

	view := UserProfileView{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    string(user.Role),
		Status:  string(models.APIKeyInactive),
		Message: "Profile retrieved successfully",
	}

	key, err := h.Store.FindCredentialByOwner(user.ID)
	if err != nil {
		logger.Errorf("Failed to fetch API key: %v", err)
		return echo.ErrInternalServerError
	}
	if key != nil {
		status, err := h.Evaluator.Reconcile(key, time.Now())
		if err != nil {
			logger.Errorf("Failed to reconcile API key status: %v", err)
			return echo.ErrInternalServerError
		}
		view.APIKey = &key.Key
		view.Status = string(status)
		if key.ExpiresAt != nil {
			expires := key.ExpiresAt.Format(time.RFC3339)
			view.ExpiresAt = &expires
		}
	}

	return c.JSON(http.StatusOK, view)
}

// UpdateProfileHandler godoc
// @Summary      Update name and email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updateProfileRequest  body  UpdateProfileRequest  true  "Profile update payload"
// @Success      200 {object} GenericResponse   "Profile updated successfully"
// @Failure      400 {object} echo.HTTPError    "Bad request"
// @Failure      409 {object} echo.HTTPError    "Email already in use"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/profile [put]
func (h *UserHandler) UpdateProfileHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := h.sessionUser(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid update profile request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Email != "" && req.Email != user.Email {
		taken, err := h.Store.EmailTaken(req.Email, user.ID)
		if err != nil {
			logger.Errorf("Failed to check email uniqueness: %v", err)
			return echo.ErrInternalServerError
		}
		if taken {
			logger.Error("Email already in use.")
			return &echo.HTTPError{
				Code:    http.StatusConflict,
				Message: "This email is already in use, please try another one.",
			}
		}
		user.Email = req.Email
	}
	if req.Name != "" {
		user.Name = req.Name
	}

	if err := h.Store.SaveUser(user); err != nil {
		logger.Errorf("Failed to update profile: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Profile updated successfully",
	})
}

// ChangePasswordHandler godoc
// @Summary      Change the account password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Password change payload"
// @Success      200 {object} GenericResponse   "Password changed successfully"
// @Failure      400 {object} echo.HTTPError    "Bad request, missing fields or weak new password"
// @Failure      401 {object} echo.HTTPError    "Unauthorized, wrong current password"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/password [put]
func (h *UserHandler) ChangePasswordHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := h.sessionUser(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid change password request payload:", err)
		return echo.ErrBadRequest
	}

	if req.OldPassword == "" {
		logger.Error("Current password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "old_password field is required",
		}
	}

	if req.NewPassword == "" {
		logger.Error("New password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "new_password field is required",
		}
	}

	newCrypto := crypto.NewCrypto()
	if err := newCrypto.VerifyPassword(req.OldPassword, user.Password); err != nil {
		logger.Error("Current password verification failed.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Current password is incorrect, please check your password",
		}
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid new password: " + err.Error(),
		}
	}

	hash, err := newCrypto.HashPassword(req.NewPassword)
	if err != nil {
		logger.Errorf("Failed to hash new password: %v", err)
		return echo.ErrInternalServerError
	}

	if err := h.Store.UpdateUserPassword(user, hash); err != nil {
		logger.Errorf("Failed to update password: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Info("Password changed successfully.")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password changed successfully",
	})
}

// ResetAPIKeyHandler godoc
// @Summary      Regenerate the account's API key
// @Description  Rotates the credential: a new secret with a fresh 30-day window replaces the old one, which stops resolving immediately.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ResetAPIKeyResponse "API key regenerated successfully"
// @Failure      401 {object} echo.HTTPError      "Unauthorized, invalid or expired session token"
// @Failure      403 {object} echo.HTTPError      "Admins do not hold API keys"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /api/auth/reset-apikey [put]
func (h *UserHandler) ResetAPIKeyHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := h.sessionUser(c)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		logger.Error("Admin requested an API key.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Admin accounts do not hold API keys",
		}
	}

	key, err := h.Issuer.IssueOrRotate(user.ID)
	if err != nil {
		logger.Errorf("Failed to rotate API key: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, ResetAPIKeyResponse{
		APIKey:    key.Key,
		Status:    string(key.Status),
		ExpiresAt: key.ExpiresAt.Format(time.RFC3339),
		Message:   "API key regenerated successfully",
	})
}

// sessionUser resolves the session's user ID to a full user record,
// translating absence to a 404.
func (h *UserHandler) sessionUser(c echo.Context) (*models.User, error) {
	logger := c.Logger()

	userID, err := middlewares.SessionUserID(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return nil, &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}

	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		logger.Errorf("Failed to fetch user: %v", err)
		return nil, echo.ErrInternalServerError
	}
	if user == nil {
		logger.Error("Session references a deleted user.")
		return nil, &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "User not found",
		}
	}
	return user, nil
}
