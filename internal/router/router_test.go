package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"membership/internal/auth"
	"membership/internal/cache"
	"membership/internal/db"
	"membership/internal/handler"
	"membership/internal/logger"
	"membership/internal/metrics"
	"membership/internal/repository"
	"membership/internal/router"
	"membership/internal/service"
	"membership/internal/validation"
	"membership/internal/view"
)

type testApp struct {
	server *httptest.Server
	users  service.UserService
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gormDB, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })

	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	log := logger.Nop()
	userRepo := repository.NewUserRepository(gormDB)
	sessions := auth.NewSessionStore(cacheClient, time.Hour)
	cookie := auth.CookieConfig{Name: auth.DefaultCookieName, TTL: time.Hour}
	m := metrics.New()

	authService := service.NewAuthService(userRepo, sessions, auth.NewPasswordHasher(bcrypt.MinCost), validation.New())
	userService := service.NewUserService(userRepo)

	e := echo.New()
	router.Register(
		e,
		router.Deps{
			Log:      log,
			Sessions: sessions,
			Cookie:   cookie,
			Users:    userService,
			Metrics:  m,
			Renderer: view.MustNew(),
		},
		handler.NewAuthHandler(authService, cookie, m, log),
		handler.NewPageHandler(),
		handler.NewUserHandler(userService),
		handler.NewAdminHandler(userService, m, log),
	)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testApp{server: srv, users: userService, redis: mr}
}

// client returns a browser-like client with its own cookie jar that does not
// follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	status   int
	location string
	body     string
}

func do(t *testing.T, c *http.Client, req *http.Request) response {
	t.Helper()
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, location: res.Header.Get("Location"), body: string(body)}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	return do(t, c, req)
}

func (a *testApp) getJSON(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return do(t, c, req)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return do(t, c, req)
}

func (a *testApp) signup(t *testing.T, c *http.Client, firstName, email, password string) response {
	t.Helper()
	return a.post(t, c, "/signup", url.Values{
		"firstName": {firstName},
		"email":     {email},
		"password":  {password},
	})
}

func (a *testApp) signin(t *testing.T, c *http.Client, email, password string) response {
	t.Helper()
	return a.post(t, c, "/signIn", url.Values{"email": {email}, "password": {password}})
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	for _, path := range []string{"/", "/signIn", "/signup"} {
		res := app.get(t, c, path)
		assert.Equal(t, http.StatusOK, res.status, path)
	}

	res := app.get(t, c, "/healthz")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", res.body)
}

func TestSignup_StartsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	res := app.signup(t, c, "Ada", "ada@example.com", "secret1")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/authenticated", res.location)

	res = app.get(t, c, "/authenticated")
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `<span id="user-name">Ada</span>`)

	res = app.get(t, c, "/membersOnly")
	assert.Equal(t, http.StatusOK, res.status)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	res := app.signup(t, app.client(t), "Ada", "ada@example.com", "secret1")
	require.Equal(t, http.StatusFound, res.status)

	c := app.client(t)
	res = app.signup(t, c, "Other", "ada@example.com", "another1")
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Contains(t, res.body, "Email already registered.")
	assert.Contains(t, res.body, `href="/signup"`)

	// The rejected attempt did not start a session.
	res = app.get(t, c, "/authenticated")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/signIn", res.location)
}

func TestSignup_InvalidInput(t *testing.T) {
	app := newTestApp(t)

	res := app.signup(t, app.client(t), "Ada", "not-an-email", "secret1")
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Please enter a valid email address.")

	res = app.signup(t, app.client(t), "Ada", "ada@example.com", "123")
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Password must be at least 6 characters.")

	res = app.signup(t, app.client(t), "Ada", "ada@example.com", strings.Repeat("é", 40))
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Password must be at most 72 bytes long.")
}

func TestSignin(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusFound, app.signup(t, app.client(t), "Ada", "ada@example.com", "secret1").status)

	t.Run("unknown email", func(t *testing.T) {
		res := app.signin(t, app.client(t), "nobody@example.com", "secret1")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Contains(t, res.body, "User not found.")
		assert.Contains(t, res.body, `href="/signIn"`)
	})

	t.Run("wrong password", func(t *testing.T) {
		c := app.client(t)
		res := app.signin(t, c, "ada@example.com", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Contains(t, res.body, "Incorrect password.")

		res = app.get(t, c, "/authenticated")
		assert.Equal(t, "/signIn", res.location)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		res := app.signin(t, app.client(t), "ADA@example.com", "secret1")
		assert.Equal(t, http.StatusUnauthorized, res.status)
	})

	t.Run("success", func(t *testing.T) {
		c := app.client(t)
		res := app.signin(t, c, "ada@example.com", "secret1")
		assert.Equal(t, http.StatusFound, res.status)
		assert.Equal(t, "/authenticated", res.location)

		res = app.get(t, c, "/authenticated")
		assert.Equal(t, http.StatusOK, res.status)
	})
}

func TestSessionGates_RedirectAnonymous(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	res := app.get(t, c, "/authenticated")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/signIn", res.location)

	res = app.get(t, c, "/membersOnly")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)

	res = app.get(t, c, "/admin")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/signIn", res.location)
}

func TestLogout_EndsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)
	require.Len(t, app.redis.Keys(), 1)

	res := app.get(t, c, "/logout")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)
	assert.Empty(t, app.redis.Keys())

	res = app.get(t, c, "/authenticated")
	assert.Equal(t, "/signIn", res.location)

	// Logging out without a session is harmless.
	res = app.get(t, c, "/logout")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)
}

func TestSession_Expires(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	app.redis.FastForward(2 * time.Hour)

	res := app.get(t, c, "/authenticated")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/signIn", res.location)
}

func TestCurrentUser(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	res := app.get(t, c, "/user")
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.JSONEq(t, `{"error":"not authenticated","code":"UNAUTHORIZED"}`, res.body)

	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	res = app.get(t, c, "/user")
	require.Equal(t, http.StatusOK, res.status)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.body), &body))
	assert.Equal(t, map[string]string{"firstName": "Ada"}, body)
}

func TestAdmin_ForbiddenForUsers(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	res := app.get(t, c, "/admin")
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Empty(t, res.location)
	assert.Contains(t, res.body, "Access denied")

	res = app.post(t, c, "/admin/promote/"+url.PathEscape("ada@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	user, err := app.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())
}

func TestAdmin_RoleIsReadFromStore(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	// Promotion takes effect on the next request of an existing session.
	require.NoError(t, app.users.Promote(context.Background(), "ada@example.com"))
	res := app.get(t, c, "/admin")
	assert.Equal(t, http.StatusOK, res.status)

	require.NoError(t, app.users.Demote(context.Background(), "ada@example.com"))
	res = app.get(t, c, "/admin")
	assert.Equal(t, http.StatusForbidden, res.status)
}

func TestAdmin_PromoteAndDemote(t *testing.T) {
	app := newTestApp(t)
	admin := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, admin, "Root", "root@example.com", "secret1").status)
	require.NoError(t, app.users.Promote(context.Background(), "root@example.com"))
	require.Equal(t, http.StatusFound, app.signup(t, app.client(t), "Bob", "bob@example.com", "secret1").status)

	res := app.get(t, admin, "/admin")
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "bob@example.com")
	assert.Contains(t, res.body, `/admin/promote/bob@example.com`)

	target := "/admin/promote/" + url.PathEscape("bob@example.com")
	res = app.post(t, admin, target, nil)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/admin", res.location)

	user, err := app.users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	res = app.post(t, admin, "/admin/demote/"+url.PathEscape("bob@example.com"), nil)
	assert.Equal(t, http.StatusFound, res.status)

	user, err = app.users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())

	// Unknown targets are a no-op.
	res = app.post(t, admin, "/admin/promote/"+url.PathEscape("ghost@example.com"), nil)
	assert.Equal(t, http.StatusFound, res.status)
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	res := app.get(t, c, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.body, "Page not found")

	res = app.getJSON(t, c, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.JSONEq(t, `{"error":"Page not found.","code":"NOT_FOUND"}`, res.body)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	res := app.get(t, c, "/metrics")
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `membership_signups_total{result="ok"} 1`)
}

func TestSessionStoreDown(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	require.Equal(t, http.StatusFound, app.signup(t, c, "Ada", "ada@example.com", "secret1").status)

	app.redis.Close()

	res := app.get(t, c, "/")
	assert.Equal(t, http.StatusOK, res.status, "public pages stay up")

	res = app.get(t, c, "/authenticated")
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Empty(t, res.location, "a store outage is not reported as signed out")
}
