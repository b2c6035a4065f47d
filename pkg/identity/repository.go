package identity

import (
	"context"
	"fmt"

	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/sanitizer"
)

// Storage is the persistence contract the identity service needs.
type Storage interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByProviderID matches the primary (provider, providerID) pair
	// or an OAuthLinks entry for that provider.
	GetByProviderID(ctx context.Context, provider, providerID string) (*User, error)
	// GetByEmail matches the normalized top-level email across all
	// providers.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

// Repository stores users in users.json through a jsonstore collection.
type Repository struct {
	col *jsonstore.Collection[User]
}

// NewRepository creates a user repository over the given collection.
func NewRepository(col *jsonstore.Collection[User]) *Repository {
	return &Repository{col: col}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.find(ctx, func(u User) bool { return u.ID == id })
}

func (r *Repository) GetByProviderID(ctx context.Context, provider, providerID string) (*User, error) {
	return r.find(ctx, func(u User) bool {
		if u.Provider == provider && u.ProviderID == providerID {
			return true
		}
		link, ok := u.OAuthLinks[provider]
		return ok && link.ProviderID == providerID
	})
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}
	return r.find(ctx, func(u User) bool {
		return sanitizer.NormalizeEmail(u.Email) == email
	})
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	return r.col.Mutate(func(users []User) ([]User, error) {
		for _, u := range users {
			if u.ID == user.ID {
				return nil, fmt.Errorf("user %s already exists", user.ID)
			}
		}
		return append(users, *user), nil
	})
}

func (r *Repository) Update(ctx context.Context, user *User) error {
	return r.col.Mutate(func(users []User) ([]User, error) {
		for i, u := range users {
			if u.ID == user.ID {
				users[i] = *user
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
}

func (r *Repository) find(ctx context.Context, match func(User) bool) (*User, error) {
	users, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(users[i]) {
			u := users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

var _ Storage = (*Repository)(nil)
