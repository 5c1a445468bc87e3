package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/graphselect/internal/db"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]db.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]db.User{}, email: map[string]string{}}
}

func (m *memUsers) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[arg.Email]; ok {
		return db.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := db.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.byID[u.ID] = u
	m.email[u.Email] = u.ID
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return m.byID[id], nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func TestRegisterLoginValidate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemUsers(), "secret")

	reg, err := svc.Register(ctx, "ana@example.com", "password1", "Ana")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ana@example.com", "password2", "Ana 2")
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := svc.Login(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, reg.User, login.User)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	userID, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	user, err := svc.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)
	_, err = svc.GetUser(ctx, "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewService(newMemUsers(), "secret")
	token, err := svc.issueToken("user_1")
	require.NoError(t, err)

	other := NewService(newMemUsers(), "other-secret")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	svc := NewService(newMemUsers(), "secret")
	token, err := svc.issueToken("user_1")
	require.NoError(t, err)

	var seen string
	h := svc.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_1", seen)
}

func TestRegisterHandlerValidation(t *testing.T) {
	h := NewHandler(NewService(newMemUsers(), "secret"))

	for body, want := range map[string]int{
		`not json`: http.StatusBadRequest,
		`{"email":"a@b.c","password":"short","displayName":"A"}`:       http.StatusBadRequest,
		`{"email":"a@b.c","password":"longenough"}`:                    http.StatusBadRequest,
		`{"email":"A@B.c ","password":"longenough","displayName":"A"}`: http.StatusCreated,
	} {
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
		assert.Equal(t, want, rec.Code, body)
	}
}
