// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"errors"
	"fmt"
	"marketquery-server/models"

	"gorm.io/gorm"
)

func (s *Store) CreateUser(user *models.User) error {
	if err := s.conn.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail returns nil without error when no user has the address.
func (s *Store) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	err := s.conn.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return &user, nil
}

// FindUserByID returns nil without error when the user does not exist.
func (s *Store) FindUserByID(id uint) (*models.User, error) {
	user := models.User{}
	err := s.conn.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// EmailTaken reports whether another user already owns the address.
func (s *Store) EmailTaken(email string, excludeUserID uint) (bool, error) {
	var count int64
	err := s.conn.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, excludeUserID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	return count > 0, nil
}

func (s *Store) SaveUser(user *models.User) error {
	if err := s.conn.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUserPassword(user *models.User, hash string) error {
	if err := s.conn.Model(user).Update("password", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.Password = hash
	return nil
}

// ListUsersByRole returns users of the given role, newest first.
func (s *Store) ListUsersByRole(role models.Role) ([]models.User, error) {
	var users []models.User
	err := s.conn.Where("role = ?", role).Order("id DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes the account and its credential in one transaction.
// Historical request logs are left in place with a null actor.
func (s *Store) DeleteUser(user *models.User) error {
	return s.conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.APIKey{}).Error; err != nil {
			return fmt.Errorf("failed to delete user API key: %w", err)
		}
		if err := tx.Model(&models.RequestLog{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach user request logs: %w", err)
		}
		if err := tx.Unscoped().Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

func (s *Store) CountUsersByRole(role models.Role) (int64, error) {
	var total int64
	if err := s.conn.Model(&models.User{}).Where("role = ?", role).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}
