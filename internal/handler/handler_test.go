package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"membership/internal/auth"
	"membership/internal/logger"
	"membership/internal/model"
	"membership/internal/service"
	"membership/internal/view"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.SignupRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Signup(ctx context.Context, req service.SignupRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Signin(ctx context.Context, req service.SigninRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) Promote(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) Demote(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

var testCookie = auth.CookieConfig{Name: auth.DefaultCookieName, TTL: time.Hour}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Renderer = view.MustNew()
	e.HTTPErrorHandler = NewErrorHandler(logger.Nop())
	return e
}

func newSession(firstName, email string) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:        "session-id",
		Principal: model.Principal{FirstName: firstName, Email: email},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func withSession(req *http.Request, session *model.Session) *http.Request {
	return req.WithContext(auth.WithSession(req.Context(), session))
}
