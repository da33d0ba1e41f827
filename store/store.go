// SPDX-License-Identifier: GPL-3.0-only

// Package store is the single shared persistence layer. A Store is
// constructed once at startup around the database handle and passed to
// every component that needs it; absence of a record is reported as a nil
// result, not an error.
package store

import (
	"gorm.io/gorm"
)

type Store struct {
	conn *gorm.DB
}

func New(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}
