package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/middleware"
	. "todolist/internal/adapter/http/validation"
	"todolist/internal/core/model/request"
	"todolist/internal/core/port"
	"todolist/internal/core/util"
	"todolist/pkg/logger"
)

type TodoHandler struct {
	svc    port.TodoService
	Logger *logger.LokiLogger
}

func NewTodoHandler(svc port.TodoService, log *logger.LokiLogger) *TodoHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &TodoHandler{
		svc:    svc,
		Logger: log,
	}
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.CreateTodo")
	defer span.End()

	params, err := util.ParamsToMap[request.TodoRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.CreateTodo(ctx, middleware.UserID(c), &params)

	if err != nil {
		span.RecordError(err)
		SendFailure(c, err)
		return
	}

	span.SetAttributes(attribute.String("todo.id", todo.ID))
	t.Logger.InfoWithTrace(ctx, "Todo created", zap.String("todo_id", todo.ID))

	SendSuccess(c, http.StatusCreated, todo, "Todo created")
}

// GetTodos returns every todo, or a single page when limit or cursor is
// given in the query string.
func (t *TodoHandler) GetTodos(c *gin.Context) {
	ctx, span := startSpan(c, "todo.GetTodos")
	defer span.End()

	if c.Query("limit") != "" || c.Query("cursor") != "" {
		t.getTodosPage(ctx, c)
		return
	}

	todos, err := t.svc.ListTodos(ctx, middleware.UserID(c))

	if err != nil {
		SendFailure(c, err)
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))

	SendSuccess(c, http.StatusOK, todos, "Todos found")
}

func (t *TodoHandler) getTodosPage(ctx context.Context, c *gin.Context) {
	var query request.ListTodosQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(query); err != nil {
		SendValidationError(c, err)
		return
	}

	page, err := t.svc.ListTodosPage(ctx, middleware.UserID(c), query)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, page, "Todos found")
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.GetTodo")
	defer span.End()

	todo, err := t.svc.GetTodo(ctx, middleware.UserID(c), c.Param("todoId"))

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, todo, "Todo found")
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.UpdateTodo")
	defer span.End()

	params, err := util.ParamsToMap[request.UpdateTodoRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.UpdateTodo(ctx, middleware.UserID(c), c.Param("todoId"), &params)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, todo, "Todo updated")
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.DeleteTodo")
	defer span.End()

	todoID := c.Param("todoId")

	if err := t.svc.DeleteTodo(ctx, middleware.UserID(c), todoID); err != nil {
		span.RecordError(err)
		SendFailure(c, err)
		return
	}

	t.Logger.InfoWithTrace(ctx, "Todo deleted", zap.String("todo_id", todoID))

	SendSuccess(c, http.StatusOK, gin.H{}, "Todo deleted")
}

func (t *TodoHandler) UpdateTodoStatus(c *gin.Context) {
	ctx, span := startSpan(c, "todo.UpdateTodoStatus")
	defer span.End()

	params, err := util.ParamsToMap[request.TodoStatusRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.UpdateTodoStatus(ctx, middleware.UserID(c), c.Param("todoId"), params.Status)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, todo, "Todo status updated")
}

func (t *TodoHandler) CreateSubTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.CreateSubTodo")
	defer span.End()

	params, err := util.ParamsToMap[request.SubTodoRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	subTodo, err := t.svc.CreateSubTodo(ctx, middleware.UserID(c), c.Param("todoId"), &params)

	if err != nil {
		span.RecordError(err)
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, subTodo, "Sub todo created")
}

func (t *TodoHandler) UpdateSubTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.UpdateSubTodo")
	defer span.End()

	params, err := util.ParamsToMap[request.UpdateSubTodoRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	subTodo, err := t.svc.UpdateSubTodo(ctx, middleware.UserID(c), c.Param("todoId"), c.Param("subTodoId"), &params)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, subTodo, "Sub todo updated")
}

func (t *TodoHandler) DeleteSubTodo(c *gin.Context) {
	ctx, span := startSpan(c, "todo.DeleteSubTodo")
	defer span.End()

	if err := t.svc.DeleteSubTodo(ctx, middleware.UserID(c), c.Param("todoId"), c.Param("subTodoId")); err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{}, "Sub todo deleted")
}
