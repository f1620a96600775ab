package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"
	"todolist/pkg/test/factory"
)

// pausingTodoRepository holds GetAllByUser after the read completes until
// release is closed, so a write can land between the read and the cache fill.
type pausingTodoRepository struct {
	port.TodoRepository
	read    chan struct{}
	release chan struct{}
}

func (r *pausingTodoRepository) GetAllByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	todos, err := r.TodoRepository.GetAllByUser(ctx, userID)

	r.read <- struct{}{}
	<-r.release

	return todos, err
}

type TodoServiceTestSuite struct {
	suite.Suite
	h     *harness
	ctx   context.Context
	owner domain.User
	other domain.User
}

func (s *TodoServiceTestSuite) SetupTest() {
	s.h = newHarness()
	s.ctx = context.Background()

	owner, err := s.h.Users.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)

	other, err := s.h.Users.Create(s.ctx, factory.NewUser())
	s.Require().NoError(err)

	s.owner = owner
	s.other = other
}

func (s *TodoServiceTestSuite) TearDownTest() {
	s.h.Close()
}

func TestTodoServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoServiceTestSuite))
}

func (s *TodoServiceTestSuite) createTodo(userID string, title string) string {
	todo, err := s.h.TodoSvc.CreateTodo(s.ctx, userID, &request.TodoRequest{
		Title:       title,
		Description: "Something to do",
	})

	s.Require().NoError(err)

	return todo.ID
}

func (s *TodoServiceTestSuite) TestListTodos_Empty() {
	todos, err := s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)

	Expect(err).To(BeNil())
	Expect(todos).To(BeEmpty())
}

func (s *TodoServiceTestSuite) TestCreateTodo_Defaults() {
	todo, err := s.h.TodoSvc.CreateTodo(s.ctx, s.owner.ID, &request.TodoRequest{
		Title:       "Buy milk",
		Description: "2% fat",
	})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "pending", todo.Status)
	assert.Equal(s.T(), "", todo.Icon)
	assert.Equal(s.T(), "", todo.Label)
	assert.Equal(s.T(), s.owner.ID, todo.User)
	assert.Empty(s.T(), todo.SubTodos)
}

func (s *TodoServiceTestSuite) TestCreateTodo_Validation() {
	tests := []struct {
		name string
		req  request.TodoRequest
	}{
		{"short title", request.TodoRequest{Title: "ab", Description: "valid"}},
		{"blank description", request.TodoRequest{Title: "valid", Description: "  "}},
		{"unknown status", request.TodoRequest{Title: "valid", Description: "valid", Status: "archived"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.h.TodoSvc.CreateTodo(s.ctx, s.owner.ID, &tt.req)

			assert.ErrorIs(s.T(), err, domain.ErrValidation)
		})
	}
}

func (s *TodoServiceTestSuite) TestCreateTodo_UnknownUser() {
	_, err := s.h.TodoSvc.CreateTodo(s.ctx, "ghost", &request.TodoRequest{Title: "Buy milk", Description: "2% fat"})

	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoServiceTestSuite) TestListTodos_OnlyOwnTodos() {
	s.createTodo(s.owner.ID, "Mine one")
	s.createTodo(s.owner.ID, "Mine two")
	s.createTodo(s.other.ID, "Not mine")

	todos, err := s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)

	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(2))

	for _, todo := range todos {
		Expect(todo.User).To(Equal(s.owner.ID))
	}

	Expect(todos[0].Title).To(Equal("Mine two"))
}

func (s *TodoServiceTestSuite) TestListTodos_CacheIsInvalidatedOnWrite() {
	s.createTodo(s.owner.ID, "First todo")

	todos, _ := s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)
	assert.Len(s.T(), todos, 1)

	generation, err := s.h.Cache.Get(s.ctx, "todos:gen:"+s.owner.ID)
	s.Require().NoError(err)

	_, err = s.h.Cache.Get(s.ctx, "todos:user:"+s.owner.ID+":"+string(generation))
	assert.NoError(s.T(), err)

	s.createTodo(s.owner.ID, "Second todo")

	todos, _ = s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)
	assert.Len(s.T(), todos, 2)
}

func (s *TodoServiceTestSuite) TestListTodos_SlowReadDoesNotCacheStaleListing() {
	slowRepo := &pausingTodoRepository{
		TodoRepository: s.h.Todos,
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
	slow := service.NewTodoService(slowRepo, s.h.Users, s.h.Cache, time.Minute, telemetry.NewNoOpProbe(), nil)

	type listing struct {
		todos []response.TodoResponse
		err   error
	}

	result := make(chan listing, 1)

	go func() {
		todos, err := slow.ListTodos(s.ctx, s.owner.ID)
		result <- listing{todos: todos, err: err}
	}()

	<-slowRepo.read
	s.createTodo(s.owner.ID, "Buy milk")
	close(slowRepo.release)

	stale := <-result
	s.Require().NoError(stale.err)
	Expect(stale.todos).To(BeEmpty())

	todos, err := s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)

	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(1))
	Expect(todos[0].Title).To(Equal("Buy milk"))
}

func (s *TodoServiceTestSuite) TestListTodos_CachedListingRequiresExistingUser() {
	s.createTodo(s.owner.ID, "Buy milk")

	todos, err := s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(todos, 1)

	s.Require().NoError(s.h.Users.DeleteByID(s.ctx, s.owner.ID))

	_, err = s.h.TodoSvc.ListTodos(s.ctx, s.owner.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoServiceTestSuite) TestListTodosPage() {
	s.createTodo(s.owner.ID, "First todo")
	s.createTodo(s.owner.ID, "Second todo")
	s.createTodo(s.owner.ID, "Third todo")

	page, err := s.h.TodoSvc.ListTodosPage(s.ctx, s.owner.ID, request.ListTodosQuery{Limit: 2})

	Expect(err).To(BeNil())
	Expect(page.Items).To(HaveLen(2))
	Expect(page.Items[0].Title).To(Equal("Third todo"))
	Expect(page.Pagination.HasNext).To(BeTrue())
	Expect(page.Pagination.NextCursor).NotTo(BeEmpty())

	page, err = s.h.TodoSvc.ListTodosPage(s.ctx, s.owner.ID, request.ListTodosQuery{Limit: 2, Cursor: page.Pagination.NextCursor})

	Expect(err).To(BeNil())
	Expect(page.Items).To(HaveLen(1))
	Expect(page.Items[0].Title).To(Equal("First todo"))
	Expect(page.Pagination.Size).To(Equal(1))
	Expect(page.Pagination.HasNext).To(BeFalse())
	Expect(page.Pagination.NextCursor).To(BeEmpty())
}

func (s *TodoServiceTestSuite) TestListTodosPage_InvalidCursor() {
	_, err := s.h.TodoSvc.ListTodosPage(s.ctx, s.owner.ID, request.ListTodosQuery{Cursor: "not-a-cursor"})

	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TodoServiceTestSuite) TestGetTodo_Ownership() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")

	todo, err := s.h.TodoSvc.GetTodo(s.ctx, s.owner.ID, todoID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Buy milk", todo.Title)

	_, err = s.h.TodoSvc.GetTodo(s.ctx, s.other.ID, todoID)
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	_, err = s.h.TodoSvc.GetTodo(s.ctx, s.owner.ID, "missing")
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoServiceTestSuite) TestUpdateTodo_MergesFields() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")

	todo, err := s.h.TodoSvc.UpdateTodo(s.ctx, s.owner.ID, todoID, &request.UpdateTodoRequest{Description: "Two litres", Label: "groceries"})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Buy milk", todo.Title)
	assert.Equal(s.T(), "Two litres", todo.Description)
	assert.Equal(s.T(), "groceries", todo.Label)

	_, err = s.h.TodoSvc.UpdateTodo(s.ctx, s.owner.ID, todoID, &request.UpdateTodoRequest{Label: "only label"})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)

	_, err = s.h.TodoSvc.UpdateTodo(s.ctx, s.other.ID, todoID, &request.UpdateTodoRequest{Title: "Hijacked"})
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)
}

func (s *TodoServiceTestSuite) TestUpdateTodoStatus() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")

	todo, err := s.h.TodoSvc.UpdateTodoStatus(s.ctx, s.owner.ID, todoID, "completed")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "completed", todo.Status)

	_, err = s.h.TodoSvc.UpdateTodoStatus(s.ctx, s.owner.ID, todoID, "done")
	assert.ErrorIs(s.T(), err, domain.ErrValidation)

	_, err = s.h.TodoSvc.UpdateTodoStatus(s.ctx, s.owner.ID, todoID, "")
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TodoServiceTestSuite) TestDeleteTodo_CascadesSubTodos() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")

	sub, err := s.h.TodoSvc.CreateSubTodo(s.ctx, s.owner.ID, todoID, &request.SubTodoRequest{Title: "Go to store"})
	s.Require().NoError(err)

	err = s.h.TodoSvc.DeleteTodo(s.ctx, s.other.ID, todoID)
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	err = s.h.TodoSvc.DeleteTodo(s.ctx, s.owner.ID, todoID)
	assert.NoError(s.T(), err)

	_, err = s.h.Todos.GetSubTodoByID(s.ctx, sub.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	err = s.h.TodoSvc.DeleteTodo(s.ctx, s.owner.ID, todoID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoServiceTestSuite) TestSubTodo_Lifecycle() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")

	sub, err := s.h.TodoSvc.CreateSubTodo(s.ctx, s.owner.ID, todoID, &request.SubTodoRequest{Title: "Go to store"})

	assert.NoError(s.T(), err)
	assert.False(s.T(), sub.IsCompleted)
	assert.Equal(s.T(), todoID, sub.Todo)

	todo, _ := s.h.TodoSvc.GetTodo(s.ctx, s.owner.ID, todoID)
	Expect(todo.SubTodos).To(HaveLen(1))
	Expect(todo.SubTodos[0].ID).To(Equal(sub.ID))

	done := true
	updated, err := s.h.TodoSvc.UpdateSubTodo(s.ctx, s.owner.ID, todoID, sub.ID, &request.UpdateSubTodoRequest{IsCompleted: &done})

	assert.NoError(s.T(), err)
	assert.True(s.T(), updated.IsCompleted)
	assert.Equal(s.T(), "Go to store", updated.Title)

	err = s.h.TodoSvc.DeleteSubTodo(s.ctx, s.owner.ID, todoID, sub.ID)
	assert.NoError(s.T(), err)

	todo, _ = s.h.TodoSvc.GetTodo(s.ctx, s.owner.ID, todoID)
	Expect(todo.SubTodos).To(BeEmpty())
}

func (s *TodoServiceTestSuite) TestSubTodo_Ownership() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")
	otherTodoID := s.createTodo(s.owner.ID, "Walk dog")

	sub, _ := s.h.TodoSvc.CreateSubTodo(s.ctx, s.owner.ID, todoID, &request.SubTodoRequest{Title: "Go to store"})

	_, err := s.h.TodoSvc.CreateSubTodo(s.ctx, s.other.ID, todoID, &request.SubTodoRequest{Title: "Sneaky"})
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	_, err = s.h.TodoSvc.UpdateSubTodo(s.ctx, s.owner.ID, otherTodoID, sub.ID, &request.UpdateSubTodoRequest{Title: "Moved"})
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	err = s.h.TodoSvc.DeleteSubTodo(s.ctx, s.owner.ID, todoID, "missing")
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.h.TodoSvc.CreateSubTodo(s.ctx, s.owner.ID, todoID, &request.SubTodoRequest{Title: "ab"})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TodoServiceTestSuite) TestCrossUserWrites_AreForbidden() {
	todoID := s.createTodo(s.owner.ID, "Buy milk")
	sub, err := s.h.TodoSvc.CreateSubTodo(s.ctx, s.owner.ID, todoID, &request.SubTodoRequest{Title: "Go to store"})
	s.Require().NoError(err)

	_, err = s.h.TodoSvc.UpdateTodoStatus(s.ctx, s.other.ID, todoID, "completed")
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	_, err = s.h.TodoSvc.UpdateSubTodo(s.ctx, s.other.ID, todoID, sub.ID, &request.UpdateSubTodoRequest{Title: "Hijacked"})
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	err = s.h.TodoSvc.DeleteSubTodo(s.ctx, s.other.ID, todoID, sub.ID)
	assert.ErrorIs(s.T(), err, domain.ErrForbidden)

	todo, err := s.h.TodoSvc.GetTodo(s.ctx, s.owner.ID, todoID)

	Expect(err).To(BeNil())
	Expect(todo.Status).To(Equal("pending"))
	Expect(todo.SubTodos).To(HaveLen(1))
	Expect(todo.SubTodos[0].Title).To(Equal("Go to store"))
}
