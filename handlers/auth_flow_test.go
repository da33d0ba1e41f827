// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"marketquery-server/apikeys"
	"marketquery-server/crypto"
	"marketquery-server/middlewares"
	"marketquery-server/models"
	"marketquery-server/store"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

type apiFixture struct {
	echo  *echo.Echo
	store *store.Store
	conn  *gorm.DB
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	t.Setenv("PWNED_PASSWORDS_ENABLED", "false")

	dsn := fmt.Sprintf("file:handlerstest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	dataStore := store.New(conn)
	issuer := apikeys.NewIssuer(dataStore)
	evaluator := apikeys.NewEvaluator(dataStore)
	sessionAuth := middlewares.NewSessionAuth()
	gate := middlewares.NewGate(dataStore, evaluator)

	authH := &AuthHandler{Store: dataStore, Issuer: issuer, Sessions: sessionAuth}
	userH := &UserHandler{Store: dataStore, Issuer: issuer, Evaluator: evaluator}
	productH := &ProductHandler{Store: dataStore}

	e := echo.New()
	e.POST("/api/auth/register", authH.RegisterHandler)
	e.POST("/api/auth/login", authH.LoginHandler)
	e.GET("/api/auth/profile", userH.ProfileHandler, sessionAuth.Verify)
	e.PUT("/api/auth/reset-apikey", userH.ResetAPIKeyHandler, sessionAuth.Verify)
	e.GET("/api/products/external/all", productH.ListProductsHandler, gate.Middleware)

	return &apiFixture{echo: e, store: dataStore, conn: conn}
}

func (f *apiFixture) do(method, path, body, bearer, apiKey string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if apiKey != "" {
		req.Header.Set(middlewares.HeaderAPIKey, apiKey)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) register(t *testing.T, name, email, role string) AuthResponse {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"MySecretPassword@123","role":%q}`, name, email, role)
	rec := f.do(http.MethodPost, "/api/auth/register", body, "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Register failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	return resp
}

func TestRegisterIssuesAPIKey(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.register(t, "John Doe", "john@example.com", "user")
	if resp.Token == "" {
		t.Error("Registration should return a session token")
	}
	if resp.User.APIKey == nil {
		t.Fatal("Registration of a user-role account should auto-issue an API key")
	}
	if !strings.HasPrefix(*resp.User.APIKey, "mk_") {
		t.Errorf("Expected mk_ prefix on issued key, got %s", *resp.User.APIKey)
	}

	key, err := f.store.FindCredentialByOwner(resp.User.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if key == nil || key.Key != *resp.User.APIKey {
		t.Error("Issued key should be stored for the owner")
	}
	if key.Status != models.APIKeyActive {
		t.Errorf("Fresh key should be active, got %s", key.Status)
	}
}

func TestRegisterAdminGetsNoKey(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.register(t, "Root", "admin@example.com", "admin")
	if resp.User.APIKey != nil {
		t.Error("Admin accounts must not be issued API keys")
	}

	key, err := f.store.FindCredentialByOwner(resp.User.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if key != nil {
		t.Error("No credential row should exist for an admin")
	}

	// And the reset endpoint refuses too.
	rec := f.do(http.MethodPut, "/api/auth/reset-apikey", "", resp.Token, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for admin key reset, got %d", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAPIFixture(t)

	f.register(t, "John Doe", "dup@example.com", "user")
	body := `{"name":"Jane Doe","email":"dup@example.com","password":"MySecretPassword@123","role":"user"}`
	rec := f.do(http.MethodPost, "/api/auth/register", body, "", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestLoginSelfHealsMissingKey(t *testing.T) {
	f := newAPIFixture(t)

	// An account created before auto-issuance existed: user row, no key.
	hash, err := crypto.NewCrypto().HashPassword("MySecretPassword@123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := models.User{Name: "Old Timer", Email: "old@example.com", Password: hash, Role: models.RoleUser}
	if err := f.store.CreateUser(&user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"old@example.com","password":"MySecretPassword@123"}`, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if resp.User.APIKey == nil {
		t.Fatal("Login should auto-issue a key for accounts that never had one")
	}

	key, err := f.store.FindCredentialByOwner(user.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if key == nil || key.Key != *resp.User.APIKey {
		t.Error("Self-healed key should be stored for the owner")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "John Doe", "pw@example.com", "user")

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"pw@example.com","password":"WrongPassword@123"}`, "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", rec.Code)
	}

	// Unknown email gets the same response shape and code.
	rec2 := f.do(http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"WrongPassword@123"}`, "", "")
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", rec2.Code)
	}
	if rec.Body.String() != rec2.Body.String() {
		t.Error("Wrong-password and unknown-email rejections should be indistinguishable")
	}
}

func TestRotationEndToEnd(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.register(t, "John Doe", "rotate@example.com", "user")
	k1 := *resp.User.APIKey

	if rec := f.do(http.MethodGet, "/api/products/external/all", "", "", k1); rec.Code != http.StatusOK {
		t.Fatalf("Gated request with fresh key failed: %d", rec.Code)
	}

	rec := f.do(http.MethodPut, "/api/auth/reset-apikey", "", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Key reset failed with %d: %s", rec.Code, rec.Body.String())
	}
	var reset ResetAPIKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reset); err != nil {
		t.Fatalf("Failed to decode reset response: %v", err)
	}
	k2 := reset.APIKey
	if k2 == k1 {
		t.Fatal("Rotation should produce a different secret")
	}
	if reset.Status != string(models.APIKeyActive) {
		t.Errorf("Rotated key should be active, got %s", reset.Status)
	}

	if rec := f.do(http.MethodGet, "/api/products/external/all", "", "", k1); rec.Code != http.StatusUnauthorized {
		t.Errorf("Old secret should be rejected with 401 after rotation, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/products/external/all", "", "", k2); rec.Code != http.StatusOK {
		t.Errorf("New secret should be accepted, got %d", rec.Code)
	}
}

func TestExpiryEndToEnd(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.register(t, "John Doe", "expire@example.com", "user")
	key := *resp.User.APIKey

	// Push the deadline into the past, as if 31 days went by.
	past := time.Now().Add(-24 * time.Hour)
	err := f.conn.Model(&models.APIKey{}).Where("user_id = ?", resp.User.ID).
		Update("expires_at", &past).Error
	if err != nil {
		t.Fatalf("Failed to age credential: %v", err)
	}

	rec := f.do(http.MethodGet, "/api/products/external/all", "", "", key)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for expired key, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "API key expired") {
		t.Errorf("Unexpected rejection body: %s", rec.Body.String())
	}

	// The informational profile read now reports the persisted inactive state.
	rec = f.do(http.MethodGet, "/api/auth/profile", "", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Profile fetch failed with %d: %s", rec.Code, rec.Body.String())
	}
	var view UserProfileView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if view.Status != string(models.APIKeyInactive) {
		t.Errorf("Profile should report inactive after expiry, got %s", view.Status)
	}
	if view.ExpiresAt == nil {
		t.Error("Profile should still report the expiry deadline")
	}
	if view.APIKey == nil || *view.APIKey != key {
		t.Error("Profile should still show the expired key")
	}
}

func TestProfileReconciliationRestoresActive(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.register(t, "John Doe", "restore@example.com", "user")

	// Manually deactivated key with a future deadline: the informational
	// read reconciles it back to active.
	err := f.conn.Model(&models.APIKey{}).Where("user_id = ?", resp.User.ID).
		Update("status", models.APIKeyInactive).Error
	if err != nil {
		t.Fatalf("Failed to deactivate credential: %v", err)
	}

	rec := f.do(http.MethodGet, "/api/auth/profile", "", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Profile fetch failed with %d: %s", rec.Code, rec.Body.String())
	}
	var view UserProfileView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if view.Status != string(models.APIKeyActive) {
		t.Errorf("Expected reconciliation to report active, got %s", view.Status)
	}

	stored, err := f.store.FindCredentialByOwner(resp.User.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if stored.Status != models.APIKeyActive {
		t.Error("Reconciled status should be persisted")
	}
}
