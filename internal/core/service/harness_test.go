package service_test

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"todolist/internal/adapter/cache"
	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"
	"todolist/internal/core/token"
	"todolist/internal/core/util"
	. "todolist/pkg/test"
)

// harness wires every service against a fresh in-memory database.
type harness struct {
	DB      *sqlite.DB
	Users   port.UserRepository
	Todos   port.TodoRepository
	Cache   port.CacheRepository
	Tokens  *token.Issuer
	Mailer  *FakeMailer
	Storage *FakeStorage
	Auth    *service.AuthService
	User    *service.UserService
	TodoSvc *service.TodoService
}

func newHarness() *harness {
	util.PasswordCost = bcrypt.MinCost

	db := InitTestDB()
	probe := telemetry.NewNoOpProbe()

	users := repository.NewUserRepository(db, probe)
	todos := repository.NewTodoRepository(db, probe)
	memory := cache.NewMemoryCache(time.Minute)

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:       "access-secret",
		AccessTTL:          15 * time.Minute,
		RefreshSecret:      "refresh-secret",
		RefreshTTL:         7 * 24 * time.Hour,
		VerificationSecret: "verification-secret",
		VerificationTTL:    24 * time.Hour,
	})

	if err != nil {
		panic(err)
	}

	mailer := &FakeMailer{}
	storage := &FakeStorage{}

	return &harness{
		DB:      db,
		Users:   users,
		Todos:   todos,
		Cache:   memory,
		Tokens:  tokens,
		Mailer:  mailer,
		Storage: storage,
		Auth: service.NewAuthService(users, tokens, mailer, storage, probe, nil, service.AuthConfig{
			RequireVerifiedEmail: true,
			AppBaseURL:           "http://localhost:3000",
		}),
		User:    service.NewUserService(users, todos, storage, memory, probe, nil),
		TodoSvc: service.NewTodoService(todos, users, memory, time.Minute, probe, nil),
	}
}

func (h *harness) Close() {
	h.Cache.Close()
	h.DB.Close()
}
