// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"marketquery-server/apikeys"
	"marketquery-server/models"
	"marketquery-server/store"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey carries the opaque credential on external API requests.
const HeaderAPIKey = "X-API-Key"

// Gate is the sole enforcement point for API-key authenticated routes and
// the exclusive writer of request-log entries. Every request through it is
// logged with the final response status, whether it was allowed or not.
type Gate struct {
	Store     *store.Store
	Evaluator *apikeys.Evaluator
}

func NewGate(s *store.Store, e *apikeys.Evaluator) *Gate {
	return &Gate{Store: s, Evaluator: e}
}

// APIUser returns the user resolved by the gate for the current request.
func APIUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("api_user").(models.User)
	if !ok {
		return nil, false
	}
	return &user, true
}

func (g *Gate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		var actorID *uint
		err := func() error {
			secret := c.Request().Header.Get(HeaderAPIKey)
			if secret == "" {
				logger.Error("API key header missing.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Unauthorized: API key is missing",
				}
			}

			key, err := g.Store.FindCredentialBySecret(secret)
			if err != nil {
				logger.Error("API key lookup failed: ", err)
				return echo.ErrInternalServerError
			}
			if key == nil {
				logger.Error("API key does not resolve to a credential.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Unauthorized: invalid API key",
				}
			}

			user, err := g.Store.FindUserByID(key.UserID)
			if err != nil {
				logger.Error("API key owner lookup failed: ", err)
				return echo.ErrInternalServerError
			}
			if user == nil {
				// Same message as an unknown key on purpose: the caller
				// must not learn which case applied.
				logger.Error("API key has no owning user.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Unauthorized: invalid API key",
				}
			}

			verdict, err := g.Evaluator.EvaluateForAccess(key, time.Now())
			if err != nil {
				logger.Error("API key evaluation failed: ", err)
				return echo.ErrInternalServerError
			}
			switch verdict {
			case apikeys.VerdictExpired:
				logger.Error("API key expired.")
				return &echo.HTTPError{
					Code:    http.StatusForbidden,
					Message: "API key expired",
				}
			case apikeys.VerdictInactive:
				logger.Error("API key is inactive.")
				return &echo.HTTPError{
					Code:    http.StatusForbidden,
					Message: "API key is inactive, please regenerate",
				}
			}

			if err := g.Store.TouchLastUsed(key); err != nil {
				logger.Error("Failed to update API key LastUsedAt: ", err)
			}

			actorID = &user.ID
			c.Set("api_user", *user)
			return next(c)
		}()

		status := c.Response().Status
		if err != nil {
			status = http.StatusInternalServerError
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}
		}

		endpoint := c.Request().URL.RequestURI()
		method := c.Request().Method
		if logErr := g.Store.AppendRequestLog(actorID, endpoint, method, status); logErr != nil {
			// Logging must never change the outcome of the request.
			logger.Error("Failed to append request log: ", logErr)
		}

		return err
	}
}
