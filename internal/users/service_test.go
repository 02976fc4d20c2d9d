package users_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/users"
	"github.com/hmoralesdev/retailpoint-backend/pkg/config"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/security"
)

// testPasswordCfg keeps argon2 cheap so hashing does not dominate the tests.
var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newService(t *testing.T, db *gorm.DB) users.Service {
	t.Helper()
	svc, err := users.NewService(users.NewRepository(db), testPasswordCfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, password string, role enums.Role) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func strPtr(s string) *string { return &s }

func TestUpdateProfilePatchesOnlyProvidedFields(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	user := seedUser(t, db, "hunter2hunter2", enums.RoleCustomer)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, users.ProfileUpdate{
		FirstName: strPtr("Grace"),
		Phone:     strPtr("5551234567"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FirstName != "Grace" {
		t.Fatalf("expected first name Grace got %q", updated.FirstName)
	}
	if updated.LastName != "Lovelace" {
		t.Fatalf("expected last name untouched got %q", updated.LastName)
	}
	if updated.Phone == nil || *updated.Phone != "5551234567" {
		t.Fatalf("expected phone set got %v", updated.Phone)
	}
}

func TestUpdateProfileRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	user := seedUser(t, db, "hunter2hunter2", enums.RoleCustomer)

	cases := []struct {
		name   string
		update users.ProfileUpdate
	}{
		{name: "blank first name", update: users.ProfileUpdate{FirstName: strPtr("")}},
		{name: "blank last name", update: users.ProfileUpdate{LastName: strPtr("")}},
		{name: "short phone", update: users.ProfileUpdate{Phone: strPtr("12345")}},
		{name: "alpha phone", update: users.ProfileUpdate{Phone: strPtr("555123456a")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), user.ID, tc.update)
			if err == nil {
				t.Fatal("expected update to be rejected")
			}
			if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
}

func TestDeleteGuardsOwnAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	admin := seedUser(t, db, "hunter2hunter2", enums.RoleAdmin)
	victim := seedUser(t, db, "hunter2hunter2", enums.RoleCustomer)

	err := svc.Delete(context.Background(), admin.ID, admin.ID)
	if err == nil {
		t.Fatal("expected self-delete to be rejected")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}

	if err := svc.Delete(context.Background(), victim.ID, admin.ID); err != nil {
		t.Fatalf("delete other user: %v", err)
	}
	_, err = svc.Get(context.Background(), victim.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete got %v", err)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	user := seedUser(t, db, "old-password", enums.RoleCustomer)

	err := svc.ChangePassword(context.Background(), user.ID, "wrong-password", "new-password")
	if err == nil {
		t.Fatal("expected wrong current password to be rejected")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "old-password", "short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	ok, err := security.VerifyPassword("new-password", reloaded.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
	}
}

func TestResetPasswordIssuesWorkingTemporary(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	user := seedUser(t, db, "old-password", enums.RoleStaff)

	temp, err := svc.ResetPassword(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if len(temp) != 12 {
		t.Fatalf("expected 12 character temp password got %d", len(temp))
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	ok, err := security.VerifyPassword(temp, reloaded.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected temp password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("old-password", reloaded.PasswordHash)
	if err != nil || ok {
		t.Fatalf("expected old password to stop working, ok=%v err=%v", ok, err)
	}
}

func TestSetRoleRejectsInvalidRoles(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	user := seedUser(t, db, "hunter2hunter2", enums.RoleCustomer)

	for _, role := range []enums.Role{enums.Role("owner"), enums.RoleGuest} {
		err := svc.SetRole(context.Background(), user.ID, role)
		if err == nil {
			t.Fatalf("expected role %q to be rejected", role)
		}
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error got %v", err)
		}
	}

	if err := svc.SetRole(context.Background(), user.ID, enums.RoleStaff); err != nil {
		t.Fatalf("set role: %v", err)
	}
	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Role != enums.RoleStaff {
		t.Fatalf("expected staff got %s", reloaded.Role)
	}
}
