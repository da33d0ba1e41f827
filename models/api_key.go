// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"
)

type APIKeyStatus string

const (
	APIKeyActive   APIKeyStatus = "active"
	APIKeyInactive APIKeyStatus = "inactive"
)

// APIKey is the single live API credential of a user. Re-issuing replaces
// the row's secret and expiry in place; there is never more than one row
// per owner.
type APIKey struct {
	ID         uint         `gorm:"primaryKey"`
	Key        string       `gorm:"size:255;not null;uniqueIndex"`
	Status     APIKeyStatus `gorm:"size:10;not null;default:active"`
	IssuedAt   time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint `gorm:"not null;uniqueIndex"`
	User       User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func init() {
	AllModels = append(AllModels, &APIKey{})
}
