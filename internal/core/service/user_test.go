package service_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/pkg/test/factory"
)

type UserServiceTestSuite struct {
	suite.Suite
	h   *harness
	ctx context.Context
}

func (s *UserServiceTestSuite) SetupTest() {
	s.h = newHarness()
	s.ctx = context.Background()
}

func (s *UserServiceTestSuite) TearDownTest() {
	s.h.Close()
}

func TestUserServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) TestGetProfile() {
	user, _ := s.h.Users.Create(s.ctx, factory.NewUser(map[string]any{"FullName": "Ada Lovelace"}))

	profile, err := s.h.User.GetProfile(s.ctx, user.ID)

	Expect(err).To(BeNil())
	Expect(profile.FullName).To(Equal("Ada Lovelace"))

	_, err = s.h.User.GetProfile(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *UserServiceTestSuite) TestIsLoggedIn() {
	user, _ := s.h.Users.Create(s.ctx, factory.NewUser())

	session, err := s.h.User.IsLoggedIn(s.ctx, user.ID)

	Expect(err).To(BeNil())
	Expect(session.LoggedIn).To(BeTrue())
	Expect(session.User.ID).To(Equal(user.ID))
}

func (s *UserServiceTestSuite) TestChangeProfilePicture_ReplacesOldPicture() {
	user, _ := s.h.Users.Create(s.ctx, factory.NewUser(map[string]any{
		"ProfilePictureURL": "https://res.example.com/image/upload/v1/old.png",
	}))

	profile, err := s.h.User.ChangeProfilePicture(s.ctx, user.ID, request.UploadedFile{Path: "/tmp/new.png"})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "https://res.example.com/image/upload/v1/avatar-1.png", profile.ProfilePicture)
	assert.Equal(s.T(), []string{"https://res.example.com/image/upload/v1/old.png"}, s.h.Storage.Deleted)
}

func (s *UserServiceTestSuite) TestChangeProfilePicture_RequiresFile() {
	user, _ := s.h.Users.Create(s.ctx, factory.NewUser())

	_, err := s.h.User.ChangeProfilePicture(s.ctx, user.ID, request.UploadedFile{})

	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *UserServiceTestSuite) TestDeleteAccount_RemovesEverything() {
	user, _ := s.h.Users.Create(s.ctx, factory.NewUser())
	other, _ := s.h.Users.Create(s.ctx, factory.NewUser())

	todo, _ := s.h.Todos.Create(s.ctx, factory.NewTodo(user.ID))
	sub, _ := s.h.Todos.CreateSubTodo(s.ctx, factory.NewSubTodo(todo.ID))
	kept, _ := s.h.Todos.Create(s.ctx, factory.NewTodo(other.ID))

	err := s.h.User.DeleteAccount(s.ctx, user.ID)

	assert.NoError(s.T(), err)

	_, err = s.h.Users.GetByID(s.ctx, user.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.h.Todos.GetByID(s.ctx, todo.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.h.Todos.GetSubTodoByID(s.ctx, sub.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.h.Todos.GetByID(s.ctx, kept.ID)
	assert.NoError(s.T(), err)

	err = s.h.User.DeleteAccount(s.ctx, user.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}
