package services

import (
	"context"
	"errors"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/contacerta/apiserver/types"
)

// LifecyclePublisher receives account lifecycle notifications. Publishing
// is best effort; implementations must not fail the calling request.
type LifecyclePublisher interface {
	UserCreated(ctx context.Context, user types.User)
	UserDeleted(ctx context.Context, user types.User)
}

// CreateUserInput carries the validated account-creation fields.
type CreateUserInput struct {
	Nome  string
	Email string
	Senha string
	Tipo  string
}

// UpdateUserInput carries the PATCH fields; nil means "keep current value"
// (merge by presence, not by truthiness).
type UpdateUserInput struct {
	Nome *string
	Tipo *string
}

// AccountService orchestrates the identity provider and the local store
// for account CRUD.
type AccountService struct {
	repo      UserRepository
	identity  identity.Client
	publisher LifecyclePublisher
}

func NewAccountService(repo UserRepository, idp identity.Client, publisher LifecyclePublisher) *AccountService {
	return &AccountService{
		repo:      repo,
		identity:  idp,
		publisher: publisher,
	}
}

// Create registers the user with the identity provider first, then inserts
// the local row under the provider-issued id. On provider failure no local
// row is created.
func (s *AccountService) Create(ctx context.Context, in CreateUserInput) (identity.User, error) {
	_, err := s.repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return identity.User{}, Conflict("Já existe uma conta vinculada à esse email")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return identity.User{}, Internal("Erro ao criar o usuário: " + err.Error())
	}

	ext, err := s.identity.AdminCreateUser(ctx, identity.AdminCreateUserRequest{
		Email:        in.Email,
		Password:     in.Senha,
		EmailConfirm: true,
	})
	if err != nil {
		return identity.User{}, BadGateway("Erro ao criar o usuário: " + err.Error())
	}

	nome := in.Nome
	user, err := s.repo.Create(ctx, types.User{
		ID:    ext.ID,
		Email: in.Email,
		Nome:  &nome,
		Tipo:  in.Tipo,
	})
	if err != nil {
		// The pre-check raced with a concurrent create; the schema
		// constraint is the backstop.
		if errors.Is(err, store.ErrDuplicate) {
			return identity.User{}, Conflict("Já existe uma conta vinculada à esse email")
		}
		return identity.User{}, Internal("Erro ao criar o usuário: " + err.Error())
	}

	if s.publisher != nil {
		s.publisher.UserCreated(ctx, user)
	}
	return ext, nil
}

// Update applies the provided fields over the current row; omitted fields
// keep their prior values.
func (s *AccountService) Update(ctx context.Context, id string, in UpdateUserInput) (types.User, error) {
	user, err := s.getExisting(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if in.Nome != nil {
		user.Nome = in.Nome
	}
	if in.Tipo != nil {
		user.Tipo = *in.Tipo
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("Usuário não encontrado")
		}
		return types.User{}, Internal("Erro ao atualizar o usuário: " + err.Error())
	}
	return updated, nil
}

// List returns users newest-first, optionally filtered by tipo.
func (s *AccountService) List(ctx context.Context, tipo string) ([]types.User, error) {
	users, err := s.repo.List(ctx, tipo)
	if err != nil {
		return nil, Internal("Erro ao listar os usuários: " + err.Error())
	}
	return users, nil
}

// Delete removes the provider user first, then the local row. A provider
// failure retains the local row; a local failure after provider success
// leaves the row stranded for the reconcile sweeper to report.
func (s *AccountService) Delete(ctx context.Context, id string) (types.User, error) {
	user, err := s.getExisting(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if err := s.identity.AdminDeleteUser(ctx, user.ID); err != nil {
		return types.User{}, BadGateway("Erro ao deletar usuário no Supabase: " + err.Error())
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return types.User{}, Internal("Erro ao deletar o usuário: " + err.Error())
	}

	if s.publisher != nil {
		s.publisher.UserDeleted(ctx, user)
	}
	return user, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.getExisting(ctx, id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("Usuário não encontrado")
		}
		return types.User{}, Internal("Erro ao buscar usuário: " + err.Error())
	}
	return user, nil
}

func (s *AccountService) getExisting(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, NotFound("Usuário não encontrado")
		}
		return types.User{}, Internal("Erro ao buscar usuário: " + err.Error())
	}
	return user, nil
}
