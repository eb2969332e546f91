package services

import (
	"context"
	"errors"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/contacerta/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, tipo string) ([]types.User, error)
}

// Reconciler guarantees a local row exists for a provider-confirmed user.
type Reconciler struct {
	repo UserRepository
}

func NewReconciler(repo UserRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// EnsureLocalUser back-fills a local row for ext if none exists, with the
// placeholder category. An existing row is never modified, even when the
// provider's email no longer matches the local one.
func (r *Reconciler) EnsureLocalUser(ctx context.Context, ext identity.User) error {
	_, err := r.repo.GetByID(ctx, ext.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	_, err = r.repo.Create(ctx, types.User{
		ID:    ext.ID,
		Email: ext.Email,
		Tipo:  types.TipoPendente,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// A concurrent login won the insert; the row exists now.
		return nil
	}
	return err
}
