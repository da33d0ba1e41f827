// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;not null"`
	Price       float64 `gorm:"not null"`
	Category    string  `gorm:"size:100;not null"`
	Description *string `gorm:"type:text;default:null"`
	ImageURL    *string `gorm:"size:255;default:null"`
	Stock       uint    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &Product{})
}
