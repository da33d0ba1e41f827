// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"marketquery-server/middlewares"
	"marketquery-server/models"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ListUsersHandler godoc
// @Summary      List all "user"-role accounts (admin only)
// @Description  Returns every user with their API key and its status reconciled against the expiry deadline.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} AdminUserListResponse "Users retrieved successfully"
// @Failure      401 {object} echo.HTTPError        "Unauthorized"
// @Failure      403 {object} echo.HTTPError        "Admin only"
// @Failure      500 {object} echo.HTTPError        "Internal server error"
// @Router       /api/auth/admin/users [get]
func (h *UserHandler) ListUsersHandler(c echo.Context) error {
	logger := c.Logger()

	users, err := h.Store.ListUsersByRole(models.RoleUser)
	if err != nil {
		logger.Errorf("Failed to list users: %v", err)
		return echo.ErrInternalServerError
	}

	now := time.Now()
	details := make([]AdminUserDetails, 0, len(users))
	for i := range users {
		user := &users[i]
		detail := AdminUserDetails{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
			Status:    string(models.APIKeyInactive),
		}

		key, err := h.Store.FindCredentialByOwner(user.ID)
		if err != nil {
			logger.Errorf("Failed to fetch API key for user: %v", err)
			return echo.ErrInternalServerError
		}
		if key != nil {
			status, err := h.Evaluator.Reconcile(key, now)
			if err != nil {
				logger.Errorf("Failed to reconcile API key status: %v", err)
				return echo.ErrInternalServerError
			}
			detail.APIKey = &key.Key
			detail.Status = string(status)
			if key.ExpiresAt != nil {
				expires := key.ExpiresAt.Format(time.RFC3339)
				detail.ExpiresAt = &expires
			}
		}

		details = append(details, detail)
	}

	return c.JSON(http.StatusOK, AdminUserListResponse{
		Data:    details,
		Message: "Users retrieved successfully",
	})
}

// DeleteUserHandler godoc
// @Summary      Delete a user account (admin only)
// @Description  Removes the account and its API key. Admin accounts cannot be deleted, nor can the caller delete themselves. Historical request logs are kept with a null actor.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      200 {object} GenericResponse   "User deleted successfully"
// @Failure      400 {object} echo.HTTPError    "Cannot delete own account"
// @Failure      403 {object} echo.HTTPError    "Cannot delete admin accounts"
// @Failure      404 {object} echo.HTTPError    "User not found"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/admin/users/{id} [delete]
func (h *UserHandler) DeleteUserHandler(c echo.Context) error {
	logger := c.Logger()

	callerID, err := middlewares.SessionUserID(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		logger.Error("Invalid user ID parameter:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "id must be a numeric user ID",
		}
	}
	targetID := uint(id)

	if targetID == callerID {
		logger.Error("Admin attempted to delete their own account.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Cannot delete your own account",
		}
	}

	user, err := h.Store.FindUserByID(targetID)
	if err != nil {
		logger.Errorf("Failed to fetch user: %v", err)
		return echo.ErrInternalServerError
	}
	if user == nil {
		logger.Error("User to delete not found.")
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "User not found",
		}
	}

	if user.Role == models.RoleAdmin {
		logger.Error("Attempted to delete an admin account.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Cannot delete admin accounts",
		}
	}

	if err := h.Store.DeleteUser(user); err != nil {
		logger.Errorf("Failed to delete user: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User account deleted successfully.")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "User deleted successfully",
	})
}
