package handler_test

import (
	"net/http"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todolist/internal/core/model/response"
)

type TodoHandlerSuite struct {
	APISuite
	token string
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func (s *TodoHandlerSuite) SetupTest() {
	s.APISuite.SetupTest()
	s.token, _ = s.signUp("Ada", "ada@example.com", "secret123")
}

func (s *TodoHandlerSuite) listTodos(accessToken string) []response.TodoResponse {
	rr := s.do(call{method: http.MethodGet, path: "/api/todos/get-todos", token: accessToken})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var todos []response.TodoResponse
	env := s.envelope(rr, &todos)
	Expect(env.Message).To(Equal("Todos found"))

	return todos
}

func (s *TodoHandlerSuite) TestCreatedTodoIsVisibleOnlyToOwner() {
	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-todo", token: s.token, body: map[string]string{
		"title":       "Buy milk",
		"description": "2%",
	}})

	Expect(rr.Code).To(Equal(http.StatusCreated), rr.Body.String())

	var created response.TodoResponse
	env := s.envelope(rr, &created)

	Expect(env.Message).To(Equal("Todo created"))
	Expect(env.Success).To(BeTrue())
	Expect(created.Title).To(Equal("Buy milk"))
	Expect(created.Status).To(Equal("pending"))
	Expect(created.SubTodos).To(BeEmpty())

	todos := s.listTodos(s.token)
	Expect(todos).To(HaveLen(1))
	Expect(todos[0].ID).To(Equal(created.ID))

	other, _ := s.signUp("Grace", "grace@example.com", "secret123")
	Expect(s.listTodos(other)).To(BeEmpty())

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todo/" + created.ID, token: other})
	Expect(rr.Code).To(Equal(http.StatusForbidden))
	Expect(s.envelope(rr, nil).Code).To(Equal("FORBIDDEN"))

	rr = s.do(call{method: http.MethodDelete, path: "/api/todos/delete-todo/" + created.ID, token: other})
	Expect(rr.Code).To(Equal(http.StatusForbidden))
	Expect(s.listTodos(s.token)).To(HaveLen(1))
}

func (s *TodoHandlerSuite) TestGetTodosPaginated() {
	s.createTodo(s.token, "Write report", "Quarterly numbers")
	s.createTodo(s.token, "Water plants", "Balcony and kitchen")
	s.createTodo(s.token, "Call plumber", "Kitchen sink")

	rr := s.do(call{method: http.MethodGet, path: "/api/todos/get-todos?limit=2", token: s.token})
	Expect(rr.Code).To(Equal(http.StatusOK), rr.Body.String())

	var page response.TodoPage
	Expect(s.envelope(rr, &page).Message).To(Equal("Todos found"))
	Expect(page.Items).To(HaveLen(2))
	Expect(page.Pagination.HasNext).To(BeTrue())

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todos?limit=2&cursor=" + page.Pagination.NextCursor, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusOK))

	var next response.TodoPage
	s.envelope(rr, &next)
	Expect(next.Items).To(HaveLen(1))
	Expect(next.Items[0].Title).To(Equal("Write report"))
	Expect(next.Pagination.HasNext).To(BeFalse())

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todos?limit=500", token: s.token})
	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todos?cursor=forged", token: s.token})
	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(s.envelope(rr, nil).Code).To(Equal("VALIDATION_ERROR"))
}

func (s *TodoHandlerSuite) TestCreateTodoValidation() {
	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-todo", token: s.token, body: map[string]string{
		"title":  "ab",
		"status": "archived",
	}})

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	env := s.envelope(rr, nil)
	Expect(env.Success).To(BeFalse())
	Expect(env.Code).To(Equal("VALIDATION_ERROR"))
	Expect(env.Errors).To(HaveLen(3))
}

func (s *TodoHandlerSuite) TestMalformedBody() {
	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-todo", token: s.token, body: "not an object"})

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(s.envelope(rr, nil).Code).To(Equal("VALIDATION_ERROR"))
}

func (s *TodoHandlerSuite) TestGetUpdateAndDeleteTodo() {
	todo := s.createTodo(s.token, "Write report", "Quarterly numbers")

	rr := s.do(call{method: http.MethodGet, path: "/api/todos/get-todo/" + todo.ID, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(s.envelope(rr, nil).Message).To(Equal("Todo found"))

	rr = s.do(call{method: http.MethodPatch, path: "/api/todos/update-todo/" + todo.ID, token: s.token, body: map[string]string{
		"title": "Write annual report",
	}})
	Expect(rr.Code).To(Equal(http.StatusOK))

	var updated response.TodoResponse
	Expect(s.envelope(rr, &updated).Message).To(Equal("Todo updated"))
	Expect(updated.Title).To(Equal("Write annual report"))
	Expect(updated.Description).To(Equal("Quarterly numbers"))

	rr = s.do(call{method: http.MethodPatch, path: "/api/todos/update-todo/" + todo.ID, token: s.token, body: map[string]string{}})
	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	rr = s.do(call{method: http.MethodDelete, path: "/api/todos/delete-todo/" + todo.ID, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(s.envelope(rr, nil).Message).To(Equal("Todo deleted"))

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todo/" + todo.ID, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(s.envelope(rr, nil).Code).To(Equal("NOT_FOUND"))
}

func (s *TodoHandlerSuite) TestUpdateTodoStatus() {
	todo := s.createTodo(s.token, "Water plants", "Balcony and kitchen")

	rr := s.do(call{method: http.MethodPatch, path: "/api/todos/sub-todo/update-todoStatus/" + todo.ID, token: s.token, body: map[string]string{
		"status": "done",
	}})
	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	rr = s.do(call{method: http.MethodPatch, path: "/api/todos/sub-todo/update-todoStatus/" + todo.ID, token: s.token, body: map[string]string{
		"status": "in-progress",
	}})
	Expect(rr.Code).To(Equal(http.StatusOK))

	var updated response.TodoResponse
	Expect(s.envelope(rr, &updated).Message).To(Equal("Todo status updated"))
	Expect(updated.Status).To(Equal("in-progress"))
}

func (s *TodoHandlerSuite) TestSubTodoLifecycle() {
	todo := s.createTodo(s.token, "Plan trip", "Summer holidays")

	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-subTodo/" + todo.ID, token: s.token, body: map[string]any{
		"title": "Book flights",
	}})
	Expect(rr.Code).To(Equal(http.StatusCreated), rr.Body.String())

	var subTodo response.SubTodoResponse
	Expect(s.envelope(rr, &subTodo).Message).To(Equal("Sub todo created"))
	Expect(subTodo.Todo).To(Equal(todo.ID))
	Expect(subTodo.IsCompleted).To(BeFalse())

	path := "/api/todos/sub-todo/update-subTodo/" + todo.ID + "/subTodos/" + subTodo.ID

	rr = s.do(call{method: http.MethodPatch, path: path, token: s.token, body: map[string]any{
		"isCompleted": true,
	}})
	Expect(rr.Code).To(Equal(http.StatusOK), rr.Body.String())
	Expect(s.envelope(rr, &subTodo).Message).To(Equal("Sub todo updated"))
	Expect(subTodo.IsCompleted).To(BeTrue())
	Expect(subTodo.Title).To(Equal("Book flights"))

	rr = s.do(call{method: http.MethodGet, path: "/api/todos/get-todo/" + todo.ID, token: s.token})

	var withChildren response.TodoResponse
	s.envelope(rr, &withChildren)
	Expect(withChildren.SubTodos).To(HaveLen(1))
	Expect(withChildren.SubTodos[0].ID).To(Equal(subTodo.ID))

	other := s.createTodo(s.token, "Another todo", "Unrelated parent")

	rr = s.do(call{method: http.MethodDelete, path: "/api/todos/sub-todo/delete-subTodo/" + other.ID + "/subTodos/" + subTodo.ID, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusForbidden))

	rr = s.do(call{method: http.MethodDelete, path: "/api/todos/sub-todo/delete-subTodo/" + todo.ID + "/subTodos/" + subTodo.ID, token: s.token})
	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(s.envelope(rr, nil).Message).To(Equal("Sub todo deleted"))

	rr = s.do(call{method: http.MethodPatch, path: path, token: s.token, body: map[string]any{"title": "Book trains"}})
	Expect(rr.Code).To(Equal(http.StatusNotFound))
}

func (s *TodoHandlerSuite) TestCreateSubTodoOnMissingTodo() {
	rr := s.do(call{method: http.MethodPost, path: "/api/todos/create-subTodo/missing", token: s.token, body: map[string]any{
		"title": "Orphan",
	}})

	Expect(rr.Code).To(Equal(http.StatusNotFound))
}

func (s *TodoHandlerSuite) TestUnknownRoute() {
	rr := s.do(call{method: http.MethodGet, path: "/api/todos/nope", token: s.token})

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(s.envelope(rr, nil).Code).To(Equal("NOT_FOUND"))
}
