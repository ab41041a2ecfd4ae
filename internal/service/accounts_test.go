package service

import (
	"context"
	"testing"

	"agrifarma/internal/auth"
	"agrifarma/internal/database"
)

func TestRegister_CreatesAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:        "farmerali",
		Email:           "Ali@Farm.Example",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Profession:      "farmer",
		ExpertiseLevel:  database.ExpertiseBeginner,
		Location:        "Punjab",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected persisted user with ID")
	}
	if user.Email != "ali@farm.example" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	if !auth.CheckPasswordHash("secret123", user.PasswordHash) {
		t.Fatal("stored hash does not verify against original password")
	}
	if user.IsAdmin || user.IsConsultant {
		t.Fatal("new accounts must not carry privileged flags")
	}
}

func TestRegister_DuplicateLeavesCountUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)
	ctx := context.Background()

	first := RegisterInput{
		Username:        "farmerali",
		Email:           "ali@farm.example",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
	if _, err := svc.Register(ctx, first); err != nil {
		t.Fatalf("first register: %v", err)
	}

	dupUsername := first
	dupUsername.Email = "other@farm.example"
	mustValidationError(t, errOnly(svc.Register(ctx, dupUsername)))

	dupEmail := first
	dupEmail.Username = "someoneelse"
	mustValidationError(t, errOnly(svc.Register(ctx, dupEmail)))

	var count int64
	if err := db.Model(&database.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 user after duplicate attempts, got %d", count)
	}
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"short username", RegisterInput{Username: "al", Email: "a@b.c", Password: "secret123", ConfirmPassword: "secret123"}},
		{"invalid email", RegisterInput{Username: "farmerali", Email: "not-an-email", Password: "secret123", ConfirmPassword: "secret123"}},
		{"short password", RegisterInput{Username: "farmerali", Email: "a@b.c", Password: "abc", ConfirmPassword: "abc"}},
		{"mismatched passwords", RegisterInput{Username: "farmerali", Email: "a@b.c", Password: "secret123", ConfirmPassword: "secret124"}},
		{"bad expertise level", RegisterInput{Username: "farmerali", Email: "a@b.c", Password: "secret123", ConfirmPassword: "secret123", ExpertiseLevel: "guru"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mustValidationError(t, errOnly(svc.Register(ctx, tc.in)))
		})
	}

	var count int64
	if err := db.Model(&database.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected registrations must not persist rows, got %d", count)
	}
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	got, err := svc.Authenticate(ctx, "FarmerAli@farm.example", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}

	mustAuthError(t, errOnly(svc.Authenticate(ctx, user.Email, "wrongpass")))
	mustAuthError(t, errOnly(svc.Authenticate(ctx, "nobody@farm.example", "secret123")))
}

func TestChangePassword_WrongCurrentLeavesHashUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	err := svc.ChangePassword(ctx, actorFor(user), "wrongpass", "newsecret", "newsecret")
	mustAuthError(t, err)

	var reloaded database.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.PasswordHash != user.PasswordHash {
		t.Fatal("hash changed despite wrong current password")
	}
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, nil)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	if err := svc.ChangePassword(ctx, actorFor(user), "secret123", "newsecret", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, user.Email, "newsecret"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
	mustAuthError(t, errOnly(svc.Authenticate(ctx, user.Email, "secret123")))

	// 新密码自身也要过校验
	mustValidationError(t, svc.ChangePassword(ctx, actorFor(user), "newsecret", "abc", "abc"))
	mustValidationError(t, svc.ChangePassword(ctx, actorFor(user), "newsecret", "longenough", "different"))
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobRemover{}
	svc := NewAccountService(db, nil, blobs)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)
	createUser(t, db, "takenname", false)

	taken := "takenname"
	mustValidationError(t, errOnly(svc.UpdateProfile(ctx, actorFor(user), ProfileUpdate{Username: &taken})))

	profession := "agronomist"
	level := database.ExpertiseExpert
	updated, err := svc.UpdateProfile(ctx, actorFor(user), ProfileUpdate{
		Profession:     &profession,
		ExpertiseLevel: &level,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Profession != "agronomist" || updated.ExpertiseLevel != database.ExpertiseExpert {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
}

func TestUpdateProfile_ReplacingPictureDeletesOldBlob(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobRemover{}
	svc := NewAccountService(db, nil, blobs)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	oldKey := "profiles/1/old.png"
	if err := db.Model(&database.User{}).Where("id = ?", user.ID).Update("profile_picture", oldKey).Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	newKey := "profiles/1/new.png"
	if _, err := svc.UpdateProfile(ctx, actorFor(user), ProfileUpdate{ProfilePicture: &newKey}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != oldKey {
		t.Fatalf("expected old picture %q deleted, got %v", oldKey, blobs.deleted)
	}
}

func TestUpdateProfile_BlobDeleteFailureDoesNotFailUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, nil, &fakeBlobRemover{fail: true})
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	if err := db.Model(&database.User{}).Where("id = ?", user.ID).Update("profile_picture", "profiles/1/old.png").Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	newKey := "profiles/1/new.png"
	updated, err := svc.UpdateProfile(ctx, actorFor(user), ProfileUpdate{ProfilePicture: &newKey})
	if err != nil {
		t.Fatalf("blob delete failure must not propagate: %v", err)
	}
	if updated.ProfilePicture != newKey {
		t.Fatalf("expected new picture %q, got %q", newKey, updated.ProfilePicture)
	}
}

// errOnly 丢弃值，只保留错误，便于传给断言辅助函数。
func errOnly(_ any, err error) error { return err }
