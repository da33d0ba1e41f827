// SPDX-License-Identifier: GPL-3.0-only

// Package apikeys owns the API-key lifecycle: issuing and rotating secrets,
// and deciding whether a stored credential is usable at a point in time.
package apikeys

import (
	"fmt"
	"marketquery-server/commons"
	"marketquery-server/crypto"
	"marketquery-server/models"
	"marketquery-server/store"
	"time"
)

const DefaultValidity = 30 * 24 * time.Hour

type Issuer struct {
	Store    *store.Store
	Prefix   string
	Validity time.Duration
}

func NewIssuer(s *store.Store) *Issuer {
	return &Issuer{
		Store:    s,
		Prefix:   commons.GetEnv("API_KEY_PREFIX", "mk_"),
		Validity: DefaultValidity,
	}
}

// IssueOrRotate gives the user a fresh active credential valid for the
// configured window, replacing any existing one in place. Each call yields
// a different secret; any previous secret stops resolving immediately,
// with no overlap window for in-flight requests.
func (i *Issuer) IssueOrRotate(userID uint) (*models.APIKey, error) {
	secret, err := crypto.GenerateRandomString(i.Prefix, 16, "hex")
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key secret: %w", err)
	}
	expiresAt := time.Now().Add(i.Validity)
	return i.Store.UpsertCredential(userID, secret, &expiresAt, models.APIKeyActive)
}
