// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestLog is an append-only record of one completed gated request.
// UserID stays null for unauthenticated or rejected requests, and is kept
// as an informational reference only: deleting a user does not delete its
// historical log rows.
type RequestLog struct {
	ID         uint      `gorm:"primaryKey"`
	LID        uuid.UUID `gorm:"type:uuid;not null"`
	Endpoint   string    `gorm:"size:255;not null"`
	Method     string    `gorm:"size:10;not null"`
	StatusCode int       `gorm:"not null"`
	CreatedAt  time.Time
	UserID     *uint `gorm:"index;default:null"`
	User       *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (requestLog *RequestLog) BeforeCreate(tx *gorm.DB) (err error) {
	requestLog.LID = uuid.New()
	return
}

func init() {
	AllModels = append(AllModels, &RequestLog{})
}
