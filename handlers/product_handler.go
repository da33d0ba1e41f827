// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"marketquery-server/models"
	"marketquery-server/store"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ProductHandler serves both the dashboard (session-authenticated) and the
// external (API-key gated) product reads; writes are admin-only.
type ProductHandler struct {
	Store *store.Store
}

// ListProductsHandler godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search   query  string  false  "Filter over name and category"
// @Param        sort_by  query  string  false  "Sort column: name, price, stock or category"
// @Param        order    query  string  false  "ASC or DESC"
// @Success      200 {object} ProductListResponse "Products retrieved successfully"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /api/products [get]
func (h *ProductHandler) ListProductsHandler(c echo.Context) error {
	logger := c.Logger()

	products, err := h.Store.ListProducts(
		c.QueryParam("search"),
		c.QueryParam("sort_by"),
		c.QueryParam("order"),
	)
	if err != nil {
		logger.Errorf("Failed to list products: %v", err)
		return echo.ErrInternalServerError
	}

	details := make([]ProductDetails, 0, len(products))
	for i := range products {
		details = append(details, productDetails(&products[i]))
	}

	return c.JSON(http.StatusOK, ProductListResponse{
		Data:    details,
		Message: "Products retrieved successfully",
	})
}

// GetProductHandler godoc
// @Summary      Get one product
// @Tags         products
// @Produce      json
// @Param        id  path  int  true  "Product ID"
// @Success      200 {object} ProductResponse   "Product retrieved successfully"
// @Failure      404 {object} echo.HTTPError    "Product not found"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProductHandler(c echo.Context) error {
	product, err := h.findProduct(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProductResponse{
		Data:    productDetails(product),
		Message: "Product retrieved successfully",
	})
}

// CreateProductHandler godoc
// @Summary      Create a product (admin only)
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productRequest  body  ProductRequest  true  "Product payload"
// @Success      201 {object} ProductResponse   "Product created successfully"
// @Failure      400 {object} echo.HTTPError    "Bad request"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/products [post]
func (h *ProductHandler) CreateProductHandler(c echo.Context) error {
	logger := c.Logger()

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid product request payload:", err)
		return echo.ErrBadRequest
	}
	if req.Name == "" {
		logger.Error("Product name is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "name field is required",
		}
	}
	if req.Category == "" {
		logger.Error("Product category is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "category field is required",
		}
	}

	product := models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
	if err := h.Store.CreateProduct(&product); err != nil {
		logger.Errorf("Failed to create product: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusCreated, ProductResponse{
		Data:    productDetails(&product),
		Message: "Product created successfully",
	})
}

// UpdateProductHandler godoc
// @Summary      Update a product (admin only)
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Product ID"
// @Param        productRequest  body  ProductRequest  true  "Product payload"
// @Success      200 {object} ProductResponse   "Product updated successfully"
// @Failure      404 {object} echo.HTTPError    "Product not found"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProductHandler(c echo.Context) error {
	logger := c.Logger()

	product, err := h.findProduct(c)
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid product request payload:", err)
		return echo.ErrBadRequest
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	product.Stock = req.Stock

	if err := h.Store.SaveProduct(product); err != nil {
		logger.Errorf("Failed to update product: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, ProductResponse{
		Data:    productDetails(product),
		Message: "Product updated successfully",
	})
}

// DeleteProductHandler godoc
// @Summary      Delete a product (admin only)
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Product ID"
// @Success      200 {object} GenericResponse   "Product deleted successfully"
// @Failure      404 {object} echo.HTTPError    "Product not found"
// @Failure      500 {object} echo.HTTPError    "Internal server error"
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProductHandler(c echo.Context) error {
	logger := c.Logger()

	product, err := h.findProduct(c)
	if err != nil {
		return err
	}

	if err := h.Store.DeleteProduct(product); err != nil {
		logger.Errorf("Failed to delete product: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Product deleted successfully",
	})
}

func (h *ProductHandler) findProduct(c echo.Context) (*models.Product, error) {
	logger := c.Logger()

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		logger.Error("Invalid product ID parameter:", err)
		return nil, &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "id must be a numeric product ID",
		}
	}

	product, err := h.Store.FindProductByID(uint(id))
	if err != nil {
		logger.Errorf("Failed to fetch product: %v", err)
		return nil, echo.ErrInternalServerError
	}
	if product == nil {
		logger.Error("Product not found.")
		return nil, &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "Product not found",
		}
	}
	return product, nil
}

func productDetails(product *models.Product) ProductDetails {
	return ProductDetails{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Category:    product.Category,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   product.UpdatedAt.Format(time.RFC3339),
	}
}
