package handlers

import (
	"net/http"
	"strings"

	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/services"
	"github.com/contacerta/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler exposes the account CRUD endpoints.
type UserHandler struct {
	accountService *services.AccountService
}

func NewUserHandler(accountService *services.AccountService) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, accountService *services.AccountService) {
	handler := NewUserHandler(accountService)

	r.Post("/", handler.Create)
	r.Get("/", handler.List)
	r.Get("/email/{email}", handler.GetByEmail)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetByID)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
	})
}

type CreateUserRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Senha string `json:"senha"`
	Tipo  string `json:"tipo"`
}

type UpdateUserRequest struct {
	Nome *string `json:"nome"`
	Tipo *string `json:"tipo"`
}

type CreateUserResponse struct {
	Message     string        `json:"message"`
	NovoUsuario identity.User `json:"novoUsuario"`
}

type ListUsersResponse struct {
	Message string       `json:"message"`
	Users   []types.User `json:"users"`
}

type UpdateUserResponse struct {
	Message           string     `json:"message"`
	UsuarioAtualizado types.User `json:"usuarioAtualizado"`
}

type DeleteUserResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

// Create provisions the user at the identity provider and stores the
// local row under the provider-issued id.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}

	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = strings.TrimSpace(req.Email)
	req.Tipo = strings.TrimSpace(req.Tipo)
	if req.Nome == "" || req.Email == "" || req.Senha == "" || req.Tipo == "" {
		writeError(w, http.StatusBadRequest, "nome, email, senha e tipo são obrigatórios")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Email inválido")
		return
	}
	if !validPassword(req.Senha) {
		writeError(w, http.StatusBadRequest, "A senha deve ter no mínimo 6 caracteres, com letra maiúscula, minúscula e número")
		return
	}

	novoUsuario, err := h.accountService.Create(r.Context(), services.CreateUserInput{
		Nome:  req.Nome,
		Email: req.Email,
		Senha: req.Senha,
		Tipo:  req.Tipo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{
		Message:     "Usuário criado com sucesso!",
		NovoUsuario: novoUsuario,
	})
}

// List returns users newest-first, optionally filtered by ?tipo=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	tipo := strings.TrimSpace(r.URL.Query().Get("tipo"))

	users, err := h.accountService.List(r.Context(), tipo)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListUsersResponse{
		Message: "Usuários listados com sucesso",
		Users:   users,
	})
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	user, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := h.accountService.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update applies the provided fields only; omitted fields keep their
// current values.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	var req UpdateUserRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}

	usuarioAtualizado, err := h.accountService.Update(r.Context(), id, services.UpdateUserInput{
		Nome: req.Nome,
		Tipo: req.Tipo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateUserResponse{
		Message:           "Usuário atualizado com sucesso",
		UsuarioAtualizado: usuarioAtualizado,
	})
}

// Delete removes the provider user and then the local row.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	user, err := h.accountService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteUserResponse{
		Message: "Usuário deletado com sucesso",
		User:    user,
	})
}
