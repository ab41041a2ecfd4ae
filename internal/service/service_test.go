package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"agrifarma/internal/auth"
	"agrifarma/internal/database"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("svc_%s_%d", strings.ReplaceAll(t.Name(), "/", "_"), testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, admin bool) database.User {
	t.Helper()
	hashed, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := database.User{
		Username:     username,
		Email:        username + "@farm.example",
		PasswordHash: hashed,
		IsAdmin:      admin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func actorFor(user database.User) Actor {
	return Actor{ID: user.ID, IsAdmin: user.IsAdmin}
}

// fakeBlobRemover 记录删除过的对象 Key。
type fakeBlobRemover struct {
	deleted []string
	fail    bool
}

func (f *fakeBlobRemover) DeleteObject(_ context.Context, objectKey string) error {
	if f.fail {
		return fmt.Errorf("delete %s: storage unavailable", objectKey)
	}
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func mustValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
}

func mustAuthError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected auth error, got nil")
	}
	if _, ok := err.(*AuthError); !ok {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
}
