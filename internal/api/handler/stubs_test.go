package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// --- service stubs ---

type stubSessionService struct {
	createFn func(ctx context.Context, username string) (*domain.Session, error)
	getFn    func(ctx context.Context, code string) (*domain.Session, error)
	lockFn   func(ctx context.Context, code string) (*domain.Session, error)
}

func (s *stubSessionService) CreateSession(ctx context.Context, username string) (*domain.Session, error) {
	return s.createFn(ctx, username)
}

func (s *stubSessionService) GetSession(ctx context.Context, code string) (*domain.Session, error) {
	return s.getFn(ctx, code)
}

func (s *stubSessionService) IsLocked(context.Context, string) (bool, error) { return false, nil }

func (s *stubSessionService) LockSession(ctx context.Context, code string) (*domain.Session, error) {
	return s.lockFn(ctx, code)
}

type stubRestaurantService struct {
	submitFn func(ctx context.Context, in ports.SubmitRestaurantInput) (*domain.Restaurant, error)
	listFn   func(ctx context.Context, code string) ([]*domain.Restaurant, error)
	countFn  func(ctx context.Context, code string) (int64, error)
	pickFn   func(ctx context.Context, code, requester string) (*domain.Restaurant, error)
	canFn    func(ctx context.Context, code, username string) (bool, error)
	deleteFn func(ctx context.Context, code string, id int64, username string) error
}

func (s *stubRestaurantService) Submit(ctx context.Context, in ports.SubmitRestaurantInput) (*domain.Restaurant, error) {
	return s.submitFn(ctx, in)
}

func (s *stubRestaurantService) List(ctx context.Context, code string) ([]*domain.Restaurant, error) {
	return s.listFn(ctx, code)
}

func (s *stubRestaurantService) Count(ctx context.Context, code string) (int64, error) {
	return s.countFn(ctx, code)
}

func (s *stubRestaurantService) PickRandom(ctx context.Context, code, requester string) (*domain.Restaurant, error) {
	return s.pickFn(ctx, code, requester)
}

func (s *stubRestaurantService) FirstSubmitter(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (s *stubRestaurantService) CanRequestRandom(ctx context.Context, code, username string) (bool, error) {
	return s.canFn(ctx, code, username)
}

func (s *stubRestaurantService) Delete(ctx context.Context, code string, id int64, username string) error {
	return s.deleteFn(ctx, code, id, username)
}

type stubUserService struct {
	listFn     func(ctx context.Context) ([]*domain.User, error)
	existsFn   func(ctx context.Context, username string) (bool, error)
	validateFn func(ctx context.Context, username string) (*ports.UserValidation, error)
	createFn   func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) GetUser(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUserService) UserExists(ctx context.Context, username string) (bool, error) {
	return s.existsFn(ctx, username)
}

func (s *stubUserService) CanInitiateSession(context.Context, string) (bool, error) {
	return false, nil
}

func (s *stubUserService) ValidateUser(ctx context.Context, username string) (*ports.UserValidation, error) {
	return s.validateFn(ctx, username)
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

type stubImporter struct {
	got    []ports.UserRecord
	result *ports.ImportResult
	err    error
}

func (s *stubImporter) Import(_ context.Context, records []ports.UserRecord) (*ports.ImportResult, error) {
	s.got = records
	return s.result, s.err
}

type stubAuthService struct {
	issueFn func(ctx context.Context, username string) (string, *domain.User, error)
}

func (s *stubAuthService) IssueToken(ctx context.Context, username string) (string, *domain.User, error) {
	return s.issueFn(ctx, username)
}

// --- request helpers ---

// newContext builds an echo context with path params bound in order.
func newContext(method, target, body string, names, values []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
