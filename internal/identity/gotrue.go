package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/contacerta/apiserver/config"
)

const (
	defaultHTTPTimeout  = 10 * time.Second
	defaultListPageSize = 100
)

// GoTrueClient talks to the Supabase auth (GoTrue) REST API. End-user
// operations authenticate with the anon key; admin operations use the
// service-role key.
type GoTrueClient struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewGoTrueClient(cfg config.SupabaseConfig) *GoTrueClient {
	return &GoTrueClient{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type sessionResponse struct {
	Session
	User User `json:"user"`
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (User, Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.anonKey, "", body, &resp)
	if err != nil {
		return User{}, Session{}, err
	}
	return resp.User, resp.Session, nil
}

func (c *GoTrueClient) SignInWithIDToken(ctx context.Context, provider, idToken string) (User, Session, error) {
	body := map[string]string{"provider": provider, "id_token": idToken}

	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/token?grant_type=id_token", c.anonKey, "", body, &resp)
	if err != nil {
		return User{}, Session{}, err
	}
	return resp.User, resp.Session, nil
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", c.anonKey, accessToken, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", c.anonKey, accessToken, nil, nil)
}

func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, c.anonKey, "", map[string]string{"email": email}, nil)
}

func (c *GoTrueClient) AdminCreateUser(ctx context.Context, req AdminCreateUserRequest) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, c.serviceKey, req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *GoTrueClient) AdminDeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceKey, c.serviceKey, nil, nil)
}

func (c *GoTrueClient) AdminListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultListPageSize
	}
	path := "/admin/users?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)

	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, c.serviceKey, c.serviceKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *GoTrueClient) do(ctx context.Context, method, path, apiKey, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(data, resp.StatusCode),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}
	return nil
}

// providerMessage digs the human-readable message out of a GoTrue error
// body. The field name varies across endpoints and versions.
func providerMessage(data []byte, status int) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, msg := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.ErrorCode} {
			if msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("provider returned status %d", status)
}
