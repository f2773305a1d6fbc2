package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/models"
)

// fakeUsers is an in-memory UserReader.
type fakeUsers struct {
	byID map[int64]*models.User
	err  error
}

func (f *fakeUsers) ReadByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ReadByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type authFixture struct {
	users    *fakeUsers
	tokens   *TokenService
	service  *AuthService
	handlers *Handlers
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hasher := testHasher()
	hash, err := hasher.Hash("123456")
	require.NoError(t, err)

	users := &fakeUsers{byID: map[int64]*models.User{
		1: {ID: 1, Email: "alice@example.com", PasswordHash: hash},
	}}
	tokens, err := NewTokenService("test-secret")
	require.NoError(t, err)

	service := NewAuthService(users, hasher, tokens)
	return &authFixture{users: users, tokens: tokens, service: service, handlers: NewHandlers(service)}
}

func (f *authFixture) cookieFor(t *testing.T, id int64) *apitest.Cookie {
	t.Helper()
	token, err := f.tokens.Issue(id)
	require.NoError(t, err)
	return apitest.NewCookie(CookieName).Value(token)
}

func TestHandleLogin_Success(t *testing.T) {
	f := newAuthFixture(t)

	result := apitest.New().
		Handler(f.handlers.HandleLogin()).
		Post("/api/access-tokens").
		JSON(`{"email":"Alice@Example.com","password":"123456"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.id", float64(1))).
		Assert(jsonpath.Equal("$.email", "alice@example.com")).
		Assert(jsonpath.NotPresent("$.password")).
		End()

	cookies := result.Response.Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Zero(t, c.MaxAge, "session cookie")

	id, err := f.tokens.Verify(context.Background(), c.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Subject)
}

func TestHandleLogin_Rejections(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"alice@example.com","password":"654321"}`, http.StatusForbidden},
		{"unknown email", `{"email":"bob@example.com","password":"123456"}`, http.StatusForbidden},
		{"malformed json", `{"email":`, http.StatusBadRequest},
		{"invalid email", `{"email":"nope","password":"123456"}`, http.StatusBadRequest},
		{"missing password", `{"email":"alice@example.com"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := apitest.New().
				Handler(f.handlers.HandleLogin()).
				Post("/api/access-tokens").
				JSON(tt.body).
				Expect(t).
				Status(tt.status).
				End()
			assert.Empty(t, result.Response.Cookies(), "no cookie on failure")
		})
	}
}

func TestHandleLogin_SameBodyForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"654321"}`,
		`{"email":"bob@example.com","password":"123456"}`,
	} {
		apitest.New().
			Handler(f.handlers.HandleLogin()).
			Post("/api/access-tokens").
			JSON(body).
			Expect(t).
			Status(http.StatusForbidden).
			Body(`{"error":"invalid credentials"}`).
			End()
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	f := newAuthFixture(t)

	result := apitest.New().
		Handler(f.handlers.HandleLogout()).
		Delete("/api/access-tokens").
		Expect(t).
		Status(http.StatusNoContent).
		End()

	cookies := result.Response.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
}

func TestGuardedMe(t *testing.T) {
	f := newAuthFixture(t)
	me := Guard(f.tokens)(f.handlers.HandleMe())

	t.Run("valid cookie", func(t *testing.T) {
		apitest.New().
			Handler(me).
			Get("/api/me").
			Cookies(f.cookieFor(t, 1)).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Equal("$.id", float64(1))).
			Assert(jsonpath.Equal("$.email", "alice@example.com")).
			End()
	})

	t.Run("no cookie", func(t *testing.T) {
		apitest.New().
			Handler(me).
			Get("/api/me").
			Expect(t).
			Status(http.StatusForbidden).
			End()
	})

	t.Run("garbage cookie", func(t *testing.T) {
		apitest.New().
			Handler(me).
			Get("/api/me").
			Cookie(CookieName, "garbage").
			Expect(t).
			Status(http.StatusForbidden).
			End()
	})

	t.Run("cookie under another name", func(t *testing.T) {
		token, err := f.tokens.Issue(1)
		require.NoError(t, err)
		apitest.New().
			Handler(me).
			Get("/api/me").
			Cookie("auth", token).
			Expect(t).
			Status(http.StatusForbidden).
			End()
	})

	t.Run("user deleted after login", func(t *testing.T) {
		apitest.New().
			Handler(me).
			Get("/api/me").
			Cookies(f.cookieFor(t, 99)).
			Expect(t).
			Status(http.StatusForbidden).
			End()
	})
}

func TestGuard_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	clock := issuedAt
	f.tokens.now = func() time.Time { return clock }
	token, err := f.tokens.Issue(1)
	require.NoError(t, err)

	var reached bool
	guarded := Guard(f.tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	clock = issuedAt.Add(TokenLifetime + time.Minute)
	apitest.New().
		Handler(guarded).
		Get("/").
		Cookie(CookieName, token).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	assert.False(t, reached)
}

func TestAuthService_StorageErrors(t *testing.T) {
	f := newAuthFixture(t)
	f.users.err = errors.New("connection refused")

	_, _, err := f.service.Login(context.Background(), Credentials{Email: "alice@example.com", Password: "123456"})
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.DatabaseError, appErr.Type)

	_, err = f.service.Me(context.Background(), Identity{Subject: 1})
	appErr, ok = apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.DatabaseError, appErr.Type)
}

func TestAuthService_UnreadableHash(t *testing.T) {
	f := newAuthFixture(t)
	f.users.byID[1].PasswordHash = "plaintext"

	_, _, err := f.service.Login(context.Background(), Credentials{Email: "alice@example.com", Password: "plaintext"})
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.InternalError, appErr.Type)
}

func TestRequireOwner(t *testing.T) {
	ctx := NewContextWithIdentity(context.Background(), Identity{Subject: 5})

	assert.NoError(t, RequireOwner(ctx, 5))
	assert.True(t, apperror.IsUnauthorizedError(RequireOwner(ctx, 6)))
	assert.True(t, apperror.IsAuthError(RequireOwner(context.Background(), 5)))

	assert.True(t, Authorize(Identity{Subject: 5}, 5))
	assert.False(t, Authorize(Identity{Subject: 5}, 6))
}
