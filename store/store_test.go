// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"fmt"
	"marketquery-server/models"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return New(conn)
}

func createTestUser(t *testing.T, s *Store, email string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Name:     "Test User",
		Email:    email,
		Password: "not-a-real-hash",
		Role:     role,
	}
	if err := s.CreateUser(&user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func TestFindCredentialAbsence(t *testing.T) {
	s := newTestStore(t)

	key, err := s.FindCredentialBySecret("mk_doesnotexist")
	if err != nil {
		t.Fatalf("FindCredentialBySecret returned error for absence: %v", err)
	}
	if key != nil {
		t.Error("Expected nil credential for unknown secret")
	}

	key, err = s.FindCredentialByOwner(12345)
	if err != nil {
		t.Fatalf("FindCredentialByOwner returned error for absence: %v", err)
	}
	if key != nil {
		t.Error("Expected nil credential for unknown owner")
	}
}

func TestUpsertCredentialReplacesInPlace(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "owner@example.com", models.RoleUser)

	expires := time.Now().Add(30 * 24 * time.Hour)
	first, err := s.UpsertCredential(user.ID, "mk_first", &expires, models.APIKeyActive)
	if err != nil {
		t.Fatalf("UpsertCredential (create) failed: %v", err)
	}

	used := time.Now()
	if err := s.TouchLastUsed(first); err != nil {
		t.Fatalf("TouchLastUsed failed: %v", err)
	}

	later := time.Now().Add(30 * 24 * time.Hour)
	second, err := s.UpsertCredential(user.ID, "mk_second", &later, models.APIKeyActive)
	if err != nil {
		t.Fatalf("UpsertCredential (replace) failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Replacement should keep row identity, got %d and %d", first.ID, second.ID)
	}
	if second.LastUsedAt != nil {
		t.Error("Replacement should clear LastUsedAt")
	}
	if !second.IssuedAt.After(used.Add(-time.Second)) {
		t.Error("Replacement should refresh IssuedAt")
	}

	// The old secret must stop resolving the instant the upsert commits.
	old, err := s.FindCredentialBySecret("mk_first")
	if err != nil {
		t.Fatalf("FindCredentialBySecret failed: %v", err)
	}
	if old != nil {
		t.Error("Old secret should no longer resolve after rotation")
	}

	current, err := s.FindCredentialBySecret("mk_second")
	if err != nil {
		t.Fatalf("FindCredentialBySecret failed: %v", err)
	}
	if current == nil || current.ID != first.ID {
		t.Error("New secret should resolve to the same row")
	}

	byOwner, err := s.FindCredentialByOwner(user.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if byOwner == nil || byOwner.Key != "mk_second" {
		t.Error("Owner lookup should return the replaced credential")
	}
}

func TestSetCredentialStatus(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "status@example.com", models.RoleUser)

	key, err := s.UpsertCredential(user.ID, "mk_status", nil, models.APIKeyActive)
	if err != nil {
		t.Fatalf("UpsertCredential failed: %v", err)
	}

	if err := s.SetCredentialStatus(key, models.APIKeyInactive); err != nil {
		t.Fatalf("SetCredentialStatus failed: %v", err)
	}
	if key.Status != models.APIKeyInactive {
		t.Error("SetCredentialStatus should update the in-memory record")
	}

	reloaded, err := s.FindCredentialByOwner(user.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if reloaded.Status != models.APIKeyInactive {
		t.Error("SetCredentialStatus should persist the transition")
	}
}

func TestDeleteUserKeepsLogs(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "victim@example.com", models.RoleUser)

	if _, err := s.UpsertCredential(user.ID, "mk_victim", nil, models.APIKeyActive); err != nil {
		t.Fatalf("UpsertCredential failed: %v", err)
	}
	if err := s.AppendRequestLog(&user.ID, "/api/products/external/all", "GET", 200); err != nil {
		t.Fatalf("AppendRequestLog failed: %v", err)
	}

	if err := s.DeleteUser(user); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	gone, err := s.FindCredentialByOwner(user.ID)
	if err != nil {
		t.Fatalf("FindCredentialByOwner failed: %v", err)
	}
	if gone != nil {
		t.Error("Deleting a user should delete its credential")
	}

	logs, err := s.RecentRequestLogs(10)
	if err != nil {
		t.Fatalf("RecentRequestLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 surviving log entry, got %d", len(logs))
	}
	if logs[0].UserID != nil {
		t.Error("Surviving log entry should have a null actor")
	}
}

func TestAppendRequestLogNullActor(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendRequestLog(nil, "/api/products/external/all", "GET", 401); err != nil {
		t.Fatalf("AppendRequestLog failed: %v", err)
	}

	logs, err := s.RecentRequestLogs(10)
	if err != nil {
		t.Fatalf("RecentRequestLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.UserID != nil {
		t.Error("Expected null actor for unauthenticated request")
	}
	if entry.StatusCode != 401 || entry.Method != "GET" {
		t.Errorf("Unexpected log entry contents: %+v", entry)
	}
	if entry.LID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Expected a generated log line ID")
	}
}
