// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"marketquery-server/apikeys"
	"marketquery-server/middlewares"
	"marketquery-server/models"
	"marketquery-server/store"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type StatsHandler struct {
	Store     *store.Store
	Evaluator *apikeys.Evaluator
}

// StatsHandler godoc
// @Summary      Dashboard statistics
// @Description  Admins get system-wide counts and the 15 newest request logs with actor identity; users get their own request count, their 10 newest logs and their key's effective status.
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserStatsResponse "Stats retrieved successfully"
// @Failure      401 {object} echo.HTTPError    "Unauthorized"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/auth/stats [get]
func (h *StatsHandler) StatsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.SessionUserID(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}
	role, err := middlewares.SessionRole(c)
	if err != nil {
		logger.Error("Failed to get session role:", err)
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired session token, please login again",
		}
	}

	if role == models.RoleAdmin {
		return h.adminStats(c)
	}
	return h.userStats(c, userID)
}

func (h *StatsHandler) adminStats(c echo.Context) error {
	logger := c.Logger()

	totalProducts, err := h.Store.CountProducts()
	if err != nil {
		logger.Errorf("Failed to count products: %v", err)
		return echo.ErrInternalServerError
	}
	totalUsers, err := h.Store.CountUsersByRole(models.RoleUser)
	if err != nil {
		logger.Errorf("Failed to count users: %v", err)
		return echo.ErrInternalServerError
	}
	totalKeys, err := h.Store.CountCredentials()
	if err != nil {
		logger.Errorf("Failed to count API keys: %v", err)
		return echo.ErrInternalServerError
	}
	entries, err := h.Store.RecentRequestLogs(15)
	if err != nil {
		logger.Errorf("Failed to fetch request logs: %v", err)
		return echo.ErrInternalServerError
	}

	logs := make([]RequestLogDetails, 0, len(entries))
	for i := range entries {
		detail := logDetails(&entries[i])
		if entries[i].User != nil {
			name := entries[i].User.Name
			detail.ActorName = &name
		}
		logs = append(logs, detail)
	}

	return c.JSON(http.StatusOK, AdminStatsResponse{
		Role:          string(models.RoleAdmin),
		TotalProducts: totalProducts,
		TotalUsers:    totalUsers,
		TotalAPIKeys:  totalKeys,
		RecentLogs:    logs,
		Message:       "Stats retrieved successfully",
	})
}

func (h *StatsHandler) userStats(c echo.Context, userID uint) error {
	logger := c.Logger()

	totalRequests, err := h.Store.CountRequestsByUser(userID)
	if err != nil {
		logger.Errorf("Failed to count request logs: %v", err)
		return echo.ErrInternalServerError
	}
	entries, err := h.Store.RecentRequestLogsByUser(userID, 10)
	if err != nil {
		logger.Errorf("Failed to fetch request logs: %v", err)
		return echo.ErrInternalServerError
	}

	logs := make([]RequestLogDetails, 0, len(entries))
	for i := range entries {
		logs = append(logs, logDetails(&entries[i]))
	}

	resp := UserStatsResponse{
		Role:          string(models.RoleUser),
		TotalRequests: totalRequests,
		Status:        string(models.APIKeyInactive),
		RecentLogs:    logs,
		Message:       "Stats retrieved successfully",
	}

	key, err := h.Store.FindCredentialByOwner(userID)
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
		resp.APIKey = &key.Key
		resp.Status = string(status)
	}

	return c.JSON(http.StatusOK, resp)
}

func logDetails(entry *models.RequestLog) RequestLogDetails {
	return RequestLogDetails{
		LID:        entry.LID.String(),
		Endpoint:   entry.Endpoint,
		Method:     entry.Method,
		StatusCode: entry.StatusCode,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
}
