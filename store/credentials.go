// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"errors"
	"fmt"
	"marketquery-server/models"
	"time"

	"gorm.io/gorm"
)

// FindCredentialBySecret resolves an API key by its opaque secret value.
// Returns nil without error when no key matches.
func (s *Store) FindCredentialBySecret(secret string) (*models.APIKey, error) {
	key := models.APIKey{}
	err := s.conn.Where("key = ?", secret).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}
	return &key, nil
}

// FindCredentialByOwner returns the single live credential of a user, or
// nil when the user has never been issued one.
func (s *Store) FindCredentialByOwner(userID uint) (*models.APIKey, error) {
	key := models.APIKey{}
	err := s.conn.Where("user_id = ?", userID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key for user: %w", err)
	}
	return &key, nil
}

// UpsertCredential replaces the owner's credential in place, keeping the
// row identity, or creates the row when the owner has none yet. The
// previous secret stops resolving the moment this commits.
func (s *Store) UpsertCredential(userID uint, secret string, expiresAt *time.Time, status models.APIKeyStatus) (*models.APIKey, error) {
	key, err := s.FindCredentialByOwner(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if key == nil {
		key = &models.APIKey{
			Key:       secret,
			Status:    status,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
			UserID:    userID,
		}
		if err := s.conn.Create(key).Error; err != nil {
			return nil, fmt.Errorf("failed to create API key: %w", err)
		}
		return key, nil
	}

	key.Key = secret
	key.Status = status
	key.IssuedAt = now
	key.ExpiresAt = expiresAt
	key.LastUsedAt = nil
	if err := s.conn.Save(key).Error; err != nil {
		return nil, fmt.Errorf("failed to rotate API key: %w", err)
	}
	return key, nil
}

// SetCredentialStatus persists a status transition decided by the evaluator.
func (s *Store) SetCredentialStatus(key *models.APIKey, status models.APIKeyStatus) error {
	if err := s.conn.Model(key).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update API key status: %w", err)
	}
	key.Status = status
	return nil
}

// TouchLastUsed records activity on a credential. Best-effort: callers log
// the returned error but never fail the request on it.
func (s *Store) TouchLastUsed(key *models.APIKey) error {
	now := time.Now()
	if err := s.conn.Model(key).Update("last_used_at", &now).Error; err != nil {
		return fmt.Errorf("failed to update API key LastUsedAt: %w", err)
	}
	key.LastUsedAt = &now
	return nil
}

// DeleteCredentialByOwner removes a user's credential outright, used when
// the owning account is deleted.
func (s *Store) DeleteCredentialByOwner(userID uint) error {
	if err := s.conn.Unscoped().Where("user_id = ?", userID).Delete(&models.APIKey{}).Error; err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return nil
}

func (s *Store) CountCredentials() (int64, error) {
	var total int64
	if err := s.conn.Model(&models.APIKey{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count API keys: %w", err)
	}
	return total, nil
}
