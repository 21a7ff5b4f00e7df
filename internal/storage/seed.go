package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pcms/internal/domain"
	id "pcms/pkg/domain"
	"pcms/pkg/platform/sentinel"
)

// BootstrapUserID derives a stable user ID from an email address so seeding
// is idempotent across restarts.
func BootstrapUserID(email string) id.UserID {
	return id.UserID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("pcms:user:"+strings.ToLower(email))))
}

// SeedBootstrapUser makes sure an administrator exists so cases can be opened
// on a fresh deployment. Returns the existing user when already seeded.
func SeedBootstrapUser(ctx context.Context, store Store, email string) (*domain.User, error) {
	userID := BootstrapUserID(email)
	var seeded *domain.User
	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.Users().Get(ctx, userID)
		if err == nil {
			seeded = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		u := &domain.User{
			ID:        userID,
			UserName:  email,
			Email:     email,
			FirstName: "System",
			LastName:  "Administrator",
			Rank:      "admin",
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		seeded = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed bootstrap user: %w", err)
	}
	return seeded, nil
}
