package services

import (
	"context"
	"fmt"
	"time"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/contacerta/apiserver/types"
)

// fakeRepo is an in-memory UserRepository. Rows are listed newest-first
// by insertion order, matching the criado_em DESC ordering of the real
// store.
type fakeRepo struct {
	users map[string]types.User
	order []string

	createErr error
	deleteErr error
	getErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]types.User{}}
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	if r.getErr != nil {
		return types.User{}, r.getErr
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if r.createErr != nil {
		return types.User{}, r.createErr
	}
	if _, ok := r.users[user.ID]; ok {
		return types.User{}, fmt.Errorf("%w: users_pkey", store.ErrDuplicate)
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, fmt.Errorf("%w: users_email_key", store.ErrDuplicate)
		}
	}
	if user.CriadoEm.IsZero() {
		user.CriadoEm = time.Now()
	}
	r.users[user.ID] = user
	r.order = append(r.order, user.ID)
	return user, nil
}

func (r *fakeRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	current := r.users[user.ID]
	current.Nome = user.Nome
	current.Tipo = user.Tipo
	r.users[user.ID] = current
	return current, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, tipo string) ([]types.User, error) {
	users := []types.User{}
	for i := len(r.order) - 1; i >= 0; i-- {
		user, ok := r.users[r.order[i]]
		if !ok {
			continue
		}
		if tipo != "" && user.Tipo != tipo {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// fakeIdentity is a scriptable identity.Client that records admin calls.
type fakeIdentity struct {
	signInUser    identity.User
	signInSession identity.Session
	signInErr     error

	getUserResult identity.User
	getUserErr    error

	createdUser identity.User
	createErr   error

	deleteErr error

	signOutErr error
	resetErr   error

	listPages [][]identity.User
	listErr   error

	signOutTokens []string
	resetEmails   []string
	resetRedirect []string
	deleteCalls   []string
	createCalls   []identity.AdminCreateUserRequest
	idTokens      []string
}

func (f *fakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (identity.User, identity.Session, error) {
	if f.signInErr != nil {
		return identity.User{}, identity.Session{}, f.signInErr
	}
	return f.signInUser, f.signInSession, nil
}

func (f *fakeIdentity) SignInWithIDToken(ctx context.Context, provider, idToken string) (identity.User, identity.Session, error) {
	f.idTokens = append(f.idTokens, idToken)
	if f.signInErr != nil {
		return identity.User{}, identity.Session{}, f.signInErr
	}
	return f.signInUser, f.signInSession, nil
}

func (f *fakeIdentity) GetUser(ctx context.Context, accessToken string) (identity.User, error) {
	if f.getUserErr != nil {
		return identity.User{}, f.getUserErr
	}
	return f.getUserResult, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, accessToken string) error {
	f.signOutTokens = append(f.signOutTokens, accessToken)
	return f.signOutErr
}

func (f *fakeIdentity) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	f.resetEmails = append(f.resetEmails, email)
	f.resetRedirect = append(f.resetRedirect, redirectTo)
	return f.resetErr
}

func (f *fakeIdentity) AdminCreateUser(ctx context.Context, req identity.AdminCreateUserRequest) (identity.User, error) {
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return identity.User{}, f.createErr
	}
	return f.createdUser, nil
}

func (f *fakeIdentity) AdminDeleteUser(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func (f *fakeIdentity) AdminListUsers(ctx context.Context, page, perPage int) ([]identity.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page < 1 || page > len(f.listPages) {
		return nil, nil
	}
	return f.listPages[page-1], nil
}

// fakePublisher records lifecycle notifications.
type fakePublisher struct {
	created []types.User
	deleted []types.User
}

func (p *fakePublisher) UserCreated(ctx context.Context, user types.User) {
	p.created = append(p.created, user)
}

func (p *fakePublisher) UserDeleted(ctx context.Context, user types.User) {
	p.deleted = append(p.deleted, user)
}

func strPtr(s string) *string {
	return &s
}
