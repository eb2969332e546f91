package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/services"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/contacerta/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// memRepo is an in-memory services.UserRepository for handler tests.
type memRepo struct {
	users map[string]types.User
	order []string
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]types.User{}}
}

func (r *memRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memRepo) Create(ctx context.Context, user types.User) (types.User, error) {
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

func (r *memRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) List(ctx context.Context, tipo string) ([]types.User, error) {
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

// stubIdentity is a scriptable identity.Client.
type stubIdentity struct {
	signInUser    identity.User
	signInSession identity.Session
	signInErr     error
	getUserResult identity.User
	getUserErr    error
	createdUser   identity.User
	createErr     error
	deleteErr     error
	signOutErr    error
	resetErr      error

	signOutTokens []string
	deleteCalls   []string
}

func (f *stubIdentity) SignInWithPassword(ctx context.Context, email, password string) (identity.User, identity.Session, error) {
	if f.signInErr != nil {
		return identity.User{}, identity.Session{}, f.signInErr
	}
	return f.signInUser, f.signInSession, nil
}

func (f *stubIdentity) SignInWithIDToken(ctx context.Context, provider, idToken string) (identity.User, identity.Session, error) {
	if f.signInErr != nil {
		return identity.User{}, identity.Session{}, f.signInErr
	}
	return f.signInUser, f.signInSession, nil
}

func (f *stubIdentity) GetUser(ctx context.Context, accessToken string) (identity.User, error) {
	if f.getUserErr != nil {
		return identity.User{}, f.getUserErr
	}
	return f.getUserResult, nil
}

func (f *stubIdentity) SignOut(ctx context.Context, accessToken string) error {
	f.signOutTokens = append(f.signOutTokens, accessToken)
	return f.signOutErr
}

func (f *stubIdentity) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return f.resetErr
}

func (f *stubIdentity) AdminCreateUser(ctx context.Context, req identity.AdminCreateUserRequest) (identity.User, error) {
	if f.createErr != nil {
		return identity.User{}, f.createErr
	}
	return f.createdUser, nil
}

func (f *stubIdentity) AdminDeleteUser(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func (f *stubIdentity) AdminListUsers(ctx context.Context, page, perPage int) ([]identity.User, error) {
	return nil, nil
}

func newTestRouter(repo *memRepo, idp *stubIdentity) http.Handler {
	reconciler := services.NewReconciler(repo)
	accountService := services.NewAccountService(repo, idp, nil)
	authService := services.NewAuthService(idp, reconciler, "https://app.example.com")

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, accountService)
	})
	return router
}

func doRequest(handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}
