// SPDX-License-Identifier: GPL-3.0-only

package handlers

// swagger:model RegisterRequest
type RegisterRequest struct {
	// User's display name
	// required: true
	Name string `json:"name" example:"John Doe"`
	// User's email address
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
	// Account role, defaults to "user"
	Role string `json:"role" example:"user"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model UserData
type UserData struct {
	ID    uint   `json:"id" example:"1"`
	Name  string `json:"name" example:"John Doe"`
	Email string `json:"email" example:"user@example.com"`
	Role  string `json:"role" example:"user"`
	// API key, present only for "user"-role accounts
	APIKey *string `json:"api_key,omitempty" example:"mk_a1b2c3d4e5f60718293a4b5c6d7e8f90"`
}

// swagger:model AuthResponse
type AuthResponse struct {
	// Session bearer token for subsequent authenticated requests
	Token   string   `json:"token" example:"sample_session_token"`
	User    UserData `json:"user"`
	Message string   `json:"message" example:"Login successful"`
}

// AdminProfileView is the profile shape for admin accounts. Admins never
// hold an API key, so no credential fields appear.
// swagger:model AdminProfileView
type AdminProfileView struct {
	ID      uint   `json:"id" example:"1"`
	Name    string `json:"name" example:"Administrator"`
	Email   string `json:"email" example:"admin@example.com"`
	Role    string `json:"role" example:"admin"`
	Message string `json:"message" example:"Profile retrieved successfully"`
}

// UserProfileView is the profile shape for "user"-role accounts, including
// the credential and its reconciled status.
// swagger:model UserProfileView
type UserProfileView struct {
	ID    uint   `json:"id" example:"2"`
	Name  string `json:"name" example:"John Doe"`
	Email string `json:"email" example:"user@example.com"`
	Role  string `json:"role" example:"user"`
	// API key secret, null when none has been issued
	APIKey *string `json:"api_key" example:"mk_a1b2c3d4e5f60718293a4b5c6d7e8f90"`
	// Expiry deadline of the key
	ExpiresAt *string `json:"expires_at" example:"2026-10-01T12:00:00Z"`
	// Effective key status after reconciliation
	Status  string `json:"status" example:"active"`
	Message string `json:"message" example:"Profile retrieved successfully"`
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Name  string `json:"name" example:"John Doe"`
	Email string `json:"email" example:"user@example.com"`
}

// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// Current password
	// required: true
	OldPassword string `json:"old_password" example:"MySecretPassword@123"`
	// New password
	// required: true
	NewPassword string `json:"new_password" example:"MyNewPassword@456"`
}

// swagger:model ResetAPIKeyResponse
type ResetAPIKeyResponse struct {
	// Freshly issued API key
	APIKey string `json:"api_key" example:"mk_a1b2c3d4e5f60718293a4b5c6d7e8f90"`
	// Status of the fresh key, always "active"
	Status string `json:"status" example:"active"`
	// Expiry deadline of the fresh key
	ExpiresAt string `json:"expires_at" example:"2026-10-01T12:00:00Z"`
	Message   string `json:"message" example:"API key regenerated successfully"`
}

// swagger:model AdminUserDetails
type AdminUserDetails struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	APIKey    *string `json:"api_key"`
	ExpiresAt *string `json:"expires_at"`
	// Reconciled key status, "inactive" when no key exists
	Status string `json:"status"`
}

// swagger:model AdminUserListResponse
type AdminUserListResponse struct {
	Data    []AdminUserDetails `json:"data"`
	Message string             `json:"message" example:"Users retrieved successfully"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message"`
}

// swagger:model ProductRequest
type ProductRequest struct {
	Name        string  `json:"name" example:"Mechanical Keyboard"`
	Price       float64 `json:"price" example:"89.99"`
	Category    string  `json:"category" example:"Electronics"`
	Description *string `json:"description" example:"Hot-swappable 75% board"`
	ImageURL    *string `json:"image_url" example:"https://cdn.example.com/kb.jpg"`
	Stock       uint    `json:"stock" example:"12"`
}

// swagger:model ProductDetails
type ProductDetails struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Stock       uint    `json:"stock"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// swagger:model ProductResponse
type ProductResponse struct {
	Data    ProductDetails `json:"data"`
	Message string         `json:"message"`
}

// swagger:model ProductListResponse
type ProductListResponse struct {
	Data    []ProductDetails `json:"data"`
	Message string           `json:"message" example:"Products retrieved successfully"`
}

// swagger:model RequestLogDetails
type RequestLogDetails struct {
	LID        string `json:"lid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Endpoint   string `json:"endpoint" example:"/api/products/external/all"`
	Method     string `json:"method" example:"GET"`
	StatusCode int    `json:"status_code" example:"200"`
	CreatedAt  string `json:"created_at"`
	// Actor name, present in admin views when the user still exists
	ActorName *string `json:"actor_name,omitempty"`
}

// swagger:model AdminStatsResponse
type AdminStatsResponse struct {
	Role          string              `json:"role" example:"admin"`
	TotalProducts int64               `json:"total_products"`
	TotalUsers    int64               `json:"total_users"`
	TotalAPIKeys  int64               `json:"total_api_keys"`
	RecentLogs    []RequestLogDetails `json:"recent_logs"`
	Message       string              `json:"message" example:"Stats retrieved successfully"`
}

// swagger:model UserStatsResponse
type UserStatsResponse struct {
	Role          string              `json:"role" example:"user"`
	TotalRequests int64               `json:"total_requests"`
	APIKey        *string             `json:"api_key"`
	Status        string              `json:"status" example:"active"`
	RecentLogs    []RequestLogDetails `json:"recent_logs"`
	Message       string              `json:"message" example:"Stats retrieved successfully"`
}
