package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"todolist/internal/adapter/cache"
	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/routes"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"
	"todolist/internal/core/token"
	"todolist/internal/core/util"
	. "todolist/pkg/test"
)

var tokenConfig = token.Config{
	AccessSecret:       "access-secret",
	AccessTTL:          15 * time.Minute,
	RefreshSecret:      "refresh-secret",
	RefreshTTL:         7 * 24 * time.Hour,
	VerificationSecret: "verification-secret",
	VerificationTTL:    24 * time.Hour,
}

// APISuite serves the full route table against an in-memory database.
type APISuite struct {
	suite.Suite
	DB      *sqlite.DB
	Users   port.UserRepository
	Todos   port.TodoRepository
	Cache   port.CacheRepository
	Tokens  *token.Issuer
	Mailer  *FakeMailer
	Storage *FakeStorage
	Router  *gin.Engine
}

func (s *APISuite) SetupTest() {
	util.PasswordCost = bcrypt.MinCost

	s.DB = InitTestDB()
	probe := telemetry.NewNoOpProbe()

	s.Users = repository.NewUserRepository(s.DB, probe)
	s.Todos = repository.NewTodoRepository(s.DB, probe)
	s.Cache = cache.NewMemoryCache(time.Minute)
	s.Mailer = &FakeMailer{}
	s.Storage = &FakeStorage{}

	var err error
	s.Tokens, err = token.NewIssuer(tokenConfig)
	s.Require().NoError(err)

	authSvc := service.NewAuthService(s.Users, s.Tokens, s.Mailer, s.Storage, probe, nil, service.AuthConfig{
		RequireVerifiedEmail: true,
		AppBaseURL:           "http://localhost:5173",
	})
	userSvc := service.NewUserService(s.Users, s.Todos, s.Storage, s.Cache, probe, nil)
	todoSvc := service.NewTodoService(s.Todos, s.Users, s.Cache, time.Minute, probe, nil)

	opts := handler.Options{UploadDir: s.T().TempDir()}

	s.Router = routes.SetupRouterForTests(routes.HandlersConfig{
		AuthHandler: handler.NewAuthHandler(authSvc, opts),
		UserHandler: handler.NewUserHandler(userSvc, opts),
		TodoHandler: handler.NewTodoHandler(todoSvc, nil),
		Tokens:      s.Tokens,
	})
}

func (s *APISuite) TearDownTest() {
	s.Cache.Close()
	s.DB.Close()
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func (s *APISuite) do(c call) *httptest.ResponseRecorder {
	var reader io.Reader

	if c.body != nil {
		payload, err := json.Marshal(c.body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(c.method, c.path, reader)

	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

// envelope decodes the body, unmarshalling data into out when given.
func (s *APISuite) envelope(rr *httptest.ResponseRecorder, out any) response.Envelope {
	var raw struct {
		response.Envelope
		Data json.RawMessage `json:"data"`
	}

	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &raw), rr.Body.String())

	if out != nil {
		s.Require().NoError(json.Unmarshal(raw.Data, out))
	}

	return raw.Envelope
}

func refreshCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == handler.RefreshCookieName {
			return cookie
		}
	}

	return nil
}

// signUp registers, verifies and logs in a user, returning the access token
// and the refresh cookie.
func (s *APISuite) signUp(name, email, password string) (string, *http.Cookie) {
	rr := s.do(call{method: http.MethodPost, path: "/api/users/register", body: map[string]string{
		"fullName": name,
		"email":    email,
		"password": password,
	}})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(call{method: http.MethodPost, path: "/api/users/verify-email", body: map[string]string{
		"token": s.Mailer.LastToken(),
	}})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	return s.login(email, password)
}

func (s *APISuite) login(email, password string) (string, *http.Cookie) {
	rr := s.do(call{method: http.MethodPost, path: "/api/users/login", body: map[string]string{
		"email":    email,
		"password": password,
	}})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var session response.AuthResponse
	s.envelope(rr, &session)

	return session.AccessToken, refreshCookie(rr)
}

func (s *APISuite) createTodo(accessToken, title, description string) response.TodoResponse {
	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-todo", token: accessToken, body: map[string]string{
		"title":       title,
		"description": description,
	}})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var todo response.TodoResponse
	s.envelope(rr, &todo)

	return todo
}
