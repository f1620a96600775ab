package port

import (
	"context"
	"time"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
)

// TodoPageQuery selects up to Limit of a user's todos that sort after
// (AfterCreatedAt, AfterID) in newest-first order. An empty AfterID starts at
// the newest todo.
type TodoPageQuery struct {
	UserID         string
	AfterCreatedAt time.Time
	AfterID        string
	Limit          int
}

// TodoRepository stores todos and their sub-todos. Methods touching both
// collections run atomically when the backing store supports it.
type TodoRepository interface {
	GetAllByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	GetPageByUser(ctx context.Context, page TodoPageQuery) ([]domain.Todo, bool, error)
	GetByID(ctx context.Context, id string) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	DeleteWithSubTodos(ctx context.Context, id string) error
	DeleteAllByUser(ctx context.Context, userID string) error

	GetSubTodoByID(ctx context.Context, id string) (domain.SubTodo, error)
	CreateSubTodo(ctx context.Context, subTodo domain.SubTodo) (domain.SubTodo, error)
	UpdateSubTodo(ctx context.Context, subTodo domain.SubTodo) (domain.SubTodo, error)
	DeleteSubTodo(ctx context.Context, todoID string, subTodoID string) error
}

type TodoService interface {
	CreateTodo(ctx context.Context, userID string, req *request.TodoRequest) (*response.TodoResponse, error)
	ListTodos(ctx context.Context, userID string) ([]response.TodoResponse, error)
	ListTodosPage(ctx context.Context, userID string, query request.ListTodosQuery) (*response.TodoPage, error)
	GetTodo(ctx context.Context, userID string, todoID string) (*response.TodoResponse, error)
	UpdateTodo(ctx context.Context, userID string, todoID string, req *request.UpdateTodoRequest) (*response.TodoResponse, error)
	UpdateTodoStatus(ctx context.Context, userID string, todoID string, status string) (*response.TodoResponse, error)
	DeleteTodo(ctx context.Context, userID string, todoID string) error

	CreateSubTodo(ctx context.Context, userID string, todoID string, req *request.SubTodoRequest) (*response.SubTodoResponse, error)
	UpdateSubTodo(ctx context.Context, userID string, todoID string, subTodoID string, req *request.UpdateSubTodoRequest) (*response.SubTodoResponse, error)
	DeleteSubTodo(ctx context.Context, userID string, todoID string, subTodoID string) error
}
