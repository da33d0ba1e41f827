// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"errors"
	"fmt"
	"marketquery-server/models"
	"strings"

	"gorm.io/gorm"
)

var productSortColumns = map[string]bool{
	"name":     true,
	"price":    true,
	"stock":    true,
	"category": true,
}

// ListProducts returns products filtered by an optional search term over
// name and category. sortBy is checked against a whitelist; anything else
// falls back to name ascending.
func (s *Store) ListProducts(search, sortBy, order string) ([]models.Product, error) {
	query := s.conn.Model(&models.Product{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR category LIKE ?", like, like)
	}

	if !productSortColumns[sortBy] {
		sortBy = "name"
	}
	if strings.ToUpper(order) != "DESC" {
		order = "ASC"
	}

	var products []models.Product
	if err := query.Order(sortBy + " " + order).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *Store) FindProductByID(id uint) (*models.Product, error) {
	product := models.Product{}
	err := s.conn.Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	return &product, nil
}

func (s *Store) CreateProduct(product *models.Product) error {
	if err := s.conn.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *Store) SaveProduct(product *models.Product) error {
	if err := s.conn.Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (s *Store) DeleteProduct(product *models.Product) error {
	if err := s.conn.Unscoped().Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *Store) CountProducts() (int64, error) {
	var total int64
	if err := s.conn.Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}
