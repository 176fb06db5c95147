package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/service/auth"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

// mockUserStore is an in-memory store.UserStore keyed by email.
type mockUserStore struct {
	users     map[string]*domain.User
	createErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*domain.User)}
}

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return store.ErrEmailExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

// stubJWTService issues deterministic tokens and validates refresh tokens
// against a configurable result.
type stubJWTService struct {
	refreshClaims *auth.Claims
	refreshErr    error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "access-" + userID.String(), nil
}

func (s *stubJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
) (string, error) {
	return "refresh-" + userID.String(), nil
}

func (s *stubJWTService) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func (s *stubJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.refreshClaims, nil
}

// stubPasswordService hashes with a marker prefix so Compare is trivially
// deterministic in tests.
type stubPasswordService struct{}

func (s *stubPasswordService) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (s *stubPasswordService) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

func newTestAuthHandler(users *mockUserStore, jwt auth.JWTService) *AuthHandler {
	pw := &stubPasswordService{}
	return NewAuthHandler(users, jwt, pw, pw, nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRegisterSuccess(t *testing.T) {
	users := newMockUserStore()
	handler := newTestAuthHandler(users, &stubJWTService{})

	rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.Equal(t, "access-"+resp.UserID.String(), resp.AccessToken)
	assert.Equal(t, "refresh-"+resp.UserID.String(), resp.RefreshToken)

	stored, err := users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed:correct horse battery", stored.HashedPassword)
	assert.Empty(t, stored.Password, "plaintext password must not be retained")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMockUserStore()
	handler := newTestAuthHandler(users, &stubJWTService{})

	first := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "another long password",
	})
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "Email already exists")
}

func TestRegisterShortPassword(t *testing.T) {
	handler := newTestAuthHandler(newMockUserStore(), &stubJWTService{})

	rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterMalformedBody(t *testing.T) {
	handler := newTestAuthHandler(newMockUserStore(), &stubJWTService{})

	req := httptest.NewRequest(
		http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginSuccess(t *testing.T) {
	users := newMockUserStore()
	handler := newTestAuthHandler(users, &stubJWTService{})

	registered := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, registered.Code)

	rr := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestLoginDoesNotRevealWhichCredentialFailed(t *testing.T) {
	users := newMockUserStore()
	handler := newTestAuthHandler(users, &stubJWTService{})

	registered := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, registered.Code)

	unknownEmail := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse battery",
	})
	wrongPassword := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong password entirely",
	})

	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, unknownEmail.Body.String(), wrongPassword.Body.String(),
		"unknown email and wrong password must be indistinguishable")
}

func TestRefreshTokenSuccess(t *testing.T) {
	userID := uuid.New()
	jwt := &stubJWTService{refreshClaims: &auth.Claims{UserID: userID}}
	handler := newTestAuthHandler(newMockUserStore(), jwt)

	rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "refresh-" + userID.String(),
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp RefreshTokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "access-"+userID.String(), resp.AccessToken)
	assert.Equal(t, "refresh-"+userID.String(), resp.RefreshToken)
}

func TestRefreshTokenExpired(t *testing.T) {
	jwt := &stubJWTService{refreshErr: auth.ErrExpiredRefreshToken}
	handler := newTestAuthHandler(newMockUserStore(), jwt)

	rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "stale",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefreshTokenMissing(t *testing.T) {
	handler := newTestAuthHandler(newMockUserStore(), &stubJWTService{})

	rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
