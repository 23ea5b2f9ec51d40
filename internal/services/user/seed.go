package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

const (
	SeedAdminEmail    = "admin@admin.com"
	SeedAdminUsername = "admin"
)

// SeedSuperAdmin creates the initial superadmin unless it already exists.
func SeedSuperAdmin(ctx context.Context, repo Repository, password string) error {
	if _, err := repo.GetByIdentifier(ctx, SeedAdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default password: %w", err)
	}

	_, err = repo.Create(ctx, &User{
		Email:        SeedAdminEmail,
		Username:     SeedAdminUsername,
		Name:         "Super Admin",
		PasswordHash: string(hash),
		Role:         RoleSuperAdmin,
		IsActive:     true,
		CreatedBy:    System(),
	})
	if err != nil && !errors.Is(err, ErrUserAlreadyExists) {
		return err
	}

	slog.InfoContext(ctx, "Seeded superadmin account", slog.String("username", SeedAdminUsername))
	return nil
}
