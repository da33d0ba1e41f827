// SPDX-License-Identifier: GPL-3.0-only

package apikeys

import (
	"marketquery-server/models"
	"marketquery-server/store"
	"time"
)

type Verdict int

const (
	VerdictUsable Verdict = iota
	VerdictExpired
	VerdictInactive
)

// Evaluator decides whether a credential is usable at a point in time and
// lazily reconciles the stored status against the expiry deadline. The
// stored status field is a cache of the expiry truth, except for explicit
// deactivations, which only EvaluateForAccess respects.
type Evaluator struct {
	Store *store.Store
}

func NewEvaluator(s *store.Store) *Evaluator {
	return &Evaluator{Store: s}
}

func expired(key *models.APIKey, now time.Time) bool {
	return key.ExpiresAt != nil && now.After(*key.ExpiresAt)
}

// EvaluateForAccess is the gate's decision path. An expired key is
// downgraded to inactive exactly once; a stored inactive status on an
// unexpired key is honored as an explicit deactivation and never flipped
// back here.
func (e *Evaluator) EvaluateForAccess(key *models.APIKey, now time.Time) (Verdict, error) {
	if expired(key, now) {
		if key.Status == models.APIKeyActive {
			if err := e.Store.SetCredentialStatus(key, models.APIKeyInactive); err != nil {
				return VerdictExpired, err
			}
		}
		return VerdictExpired, nil
	}
	if key.Status == models.APIKeyInactive {
		return VerdictInactive, nil
	}
	return VerdictUsable, nil
}

// Reconcile is the informational-read path (profile fetch, admin listing).
// It corrects the stored status in both directions: expired keys become
// inactive, unexpired keys marked inactive are restored to active. The
// corrected status is persisted before it is returned.
func (e *Evaluator) Reconcile(key *models.APIKey, now time.Time) (models.APIKeyStatus, error) {
	if expired(key, now) {
		if key.Status == models.APIKeyActive {
			if err := e.Store.SetCredentialStatus(key, models.APIKeyInactive); err != nil {
				return key.Status, err
			}
		}
		return models.APIKeyInactive, nil
	}
	if key.Status == models.APIKeyInactive {
		if err := e.Store.SetCredentialStatus(key, models.APIKeyActive); err != nil {
			return key.Status, err
		}
	}
	return models.APIKeyActive, nil
}
