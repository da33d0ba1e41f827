// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"fmt"
	"marketquery-server/models"
)

// AppendRequestLog writes one append-only row for a completed gated
// request. userID is nil for unauthenticated or rejected requests.
func (s *Store) AppendRequestLog(userID *uint, endpoint, method string, statusCode int) error {
	entry := models.RequestLog{
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: statusCode,
		UserID:     userID,
	}
	if err := s.conn.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

func (s *Store) CountRequestsByUser(userID uint) (int64, error) {
	var total int64
	err := s.conn.Model(&models.RequestLog{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count request logs: %w", err)
	}
	return total, nil
}

// RecentRequestLogs returns the newest entries across all users, with the
// actor preloaded where one still exists.
func (s *Store) RecentRequestLogs(limit int) ([]models.RequestLog, error) {
	var entries []models.RequestLog
	err := s.conn.Preload("User").Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request logs: %w", err)
	}
	return entries, nil
}

func (s *Store) RecentRequestLogsByUser(userID uint, limit int) ([]models.RequestLog, error) {
	var entries []models.RequestLog
	err := s.conn.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request logs: %w", err)
	}
	return entries, nil
}
