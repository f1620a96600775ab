package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/pkg/db/cursor"
)

const defaultPageSize = 20

type TodoService struct {
	repo      port.TodoRepository
	users     port.UserRepository
	listings  todoListCache
	telemetry port.Telemetry
	logger    *zap.Logger
	cursors   *cursor.Signer
	now       func() time.Time
}

func NewTodoService(repo port.TodoRepository, users port.UserRepository, cache port.CacheRepository, cacheTTL time.Duration, telemetry port.Telemetry, logger *zap.Logger) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TodoService{
		repo:      repo,
		users:     users,
		listings:  todoListCache{cache: cache, ttl: cacheTTL, logger: logger},
		telemetry: telemetry,
		logger:    logger,
		cursors:   cursor.NewSigner(""),
		now:       time.Now,
	}
}

// WithCursorSecret signs pagination cursors with secret.
func (ts *TodoService) WithCursorSecret(secret string) *TodoService {
	ts.cursors = cursor.NewSigner(secret)
	return ts
}

// WithClock replaces the time source.
func (ts *TodoService) WithClock(now func() time.Time) *TodoService {
	ts.now = now
	return ts
}

func (ts *TodoService) CreateTodo(ctx context.Context, userID string, req *request.TodoRequest) (resp *response.TodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "create", userID)
	defer func() { done(err) }()

	status, err := domain.ParseTodoStatus(req.Status)

	if err != nil {
		return nil, err
	}

	now := ts.now()

	todo := domain.Todo{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		Icon:        req.Icon,
		Label:       req.Label,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := ts.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	saved, err := ts.repo.Create(ctx, todo)

	if err != nil {
		ts.logger.Error("Repository create failed", zap.String("title", todo.Title), zap.Error(err))
		return nil, domain.WrapError(domain.CodeInternal, "Error while creating todo", err)
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, "created", "todo", saved.ID, userID, nil)

	out := response.NewTodoResponse(saved)

	return &out, nil
}

// ListTodos returns the caller's todos newest first with sub-todos
// populated, serving from cache when a fresh entry exists.
func (ts *TodoService) ListTodos(ctx context.Context, userID string) (resp []response.TodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "list", userID)
	defer func() { done(err) }()

	if err := ts.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	generation := ts.listings.generation(ctx, userID)

	if cached, ok := ts.listings.get(ctx, userID, generation); ok {
		return cached, nil
	}

	todos, err := ts.repo.GetAllByUser(ctx, userID)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Error while fetching todos", err)
	}

	resp = make([]response.TodoResponse, 0, len(todos))

	for _, todo := range todos {
		resp = append(resp, response.NewTodoResponse(todo))
	}

	ts.listings.put(ctx, userID, generation, resp)

	return resp, nil
}

// ListTodosPage returns up to query.Limit todos that sort after
// query.Cursor, in the same order as ListTodos.
func (ts *TodoService) ListTodosPage(ctx context.Context, userID string, query request.ListTodosQuery) (resp *response.TodoPage, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "list_page", userID)
	defer func() { done(err) }()

	page := port.TodoPageQuery{UserID: userID, Limit: query.Limit}

	if page.Limit <= 0 {
		page.Limit = defaultPageSize
	}

	if query.Cursor != "" {
		position, decodeErr := ts.cursors.Decode(query.Cursor)

		if decodeErr != nil {
			return nil, domain.WrapError(domain.CodeValidation, "Invalid cursor", decodeErr)
		}

		page.AfterCreatedAt = position.CreatedAt
		page.AfterID = position.ID
	}

	if err := ts.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	todos, hasNext, err := ts.repo.GetPageByUser(ctx, page)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Error while fetching todos", err)
	}

	resp = &response.TodoPage{Items: make([]response.TodoResponse, 0, len(todos))}

	for _, todo := range todos {
		resp.Items = append(resp.Items, response.NewTodoResponse(todo))
	}

	resp.Pagination.Size = len(resp.Items)
	resp.Pagination.HasNext = hasNext

	if hasNext {
		last := todos[len(todos)-1]
		resp.Pagination.NextCursor = ts.cursors.Encode(cursor.Position{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return resp, nil
}

func (ts *TodoService) GetTodo(ctx context.Context, userID string, todoID string) (resp *response.TodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "get", userID)
	defer func() { done(err) }()

	todo, err := ts.loadOwnedTodo(ctx, userID, todoID)

	if err != nil {
		return nil, err
	}

	out := response.NewTodoResponse(todo)

	return &out, nil
}

// UpdateTodo merges the provided fields onto the stored todo. Empty fields
// keep their current value.
func (ts *TodoService) UpdateTodo(ctx context.Context, userID string, todoID string, req *request.UpdateTodoRequest) (resp *response.TodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "update", userID)
	defer func() { done(err) }()

	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Description) == "" {
		return nil, domain.NewError(domain.CodeValidation, "title or description is required")
	}

	todo, err := ts.loadOwnedTodo(ctx, userID, todoID)

	if err != nil {
		return nil, err
	}

	todo.Title = mergeString(req.Title, todo.Title)
	todo.Description = mergeString(req.Description, todo.Description)
	todo.Icon = mergeString(req.Icon, todo.Icon)
	todo.Label = mergeString(req.Label, todo.Label)
	todo.UpdatedAt = ts.now()

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return ts.saveTodo(ctx, userID, todo, "updated")
}

func (ts *TodoService) UpdateTodoStatus(ctx context.Context, userID string, todoID string, status string) (resp *response.TodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "update_status", userID)
	defer func() { done(err) }()

	if strings.TrimSpace(status) == "" {
		return nil, domain.NewError(domain.CodeValidation, "status is required")
	}

	parsed, err := domain.ParseTodoStatus(status)

	if err != nil {
		return nil, err
	}

	todo, err := ts.loadOwnedTodo(ctx, userID, todoID)

	if err != nil {
		return nil, err
	}

	todo.Status = parsed
	todo.UpdatedAt = ts.now()

	return ts.saveTodo(ctx, userID, todo, "status_changed")
}

func (ts *TodoService) DeleteTodo(ctx context.Context, userID string, todoID string) (err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "delete", userID)
	defer func() { done(err) }()

	todo, err := ts.loadOwnedTodo(ctx, userID, todoID)

	if err != nil {
		return err
	}

	if err := ts.repo.DeleteWithSubTodos(ctx, todo.ID); err != nil {
		return notFoundOr(err, "Todo not found")
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, "deleted", "todo", todo.ID, userID, nil)

	return nil
}

func (ts *TodoService) CreateSubTodo(ctx context.Context, userID string, todoID string, req *request.SubTodoRequest) (resp *response.SubTodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "create_sub_todo", userID)
	defer func() { done(err) }()

	now := ts.now()

	subTodo := domain.SubTodo{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		TodoID:    todoID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.IsCompleted != nil {
		subTodo.IsCompleted = *req.IsCompleted
	}

	if err := subTodo.Validate(); err != nil {
		return nil, err
	}

	if _, err := ts.loadOwnedTodo(ctx, userID, todoID); err != nil {
		return nil, err
	}

	saved, err := ts.repo.CreateSubTodo(ctx, subTodo)

	if err != nil {
		return nil, notFoundOr(err, "Todo not found")
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, "created", "sub_todo", saved.ID, userID, map[string]interface{}{
		"todo_id": todoID,
	})

	out := response.NewSubTodoResponse(saved)

	return &out, nil
}

func (ts *TodoService) UpdateSubTodo(ctx context.Context, userID string, todoID string, subTodoID string, req *request.UpdateSubTodoRequest) (resp *response.SubTodoResponse, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "update_sub_todo", userID)
	defer func() { done(err) }()

	if strings.TrimSpace(req.Title) == "" && req.IsCompleted == nil {
		return nil, domain.NewError(domain.CodeValidation, "title or isCompleted is required")
	}

	subTodo, err := ts.loadOwnedSubTodo(ctx, userID, todoID, subTodoID)

	if err != nil {
		return nil, err
	}

	subTodo.Title = mergeString(req.Title, subTodo.Title)

	if req.IsCompleted != nil {
		subTodo.IsCompleted = *req.IsCompleted
	}

	subTodo.UpdatedAt = ts.now()

	if err := subTodo.Validate(); err != nil {
		return nil, err
	}

	saved, err := ts.repo.UpdateSubTodo(ctx, subTodo)

	if err != nil {
		return nil, notFoundOr(err, "Sub Todo not found")
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, "updated", "sub_todo", saved.ID, userID, nil)

	out := response.NewSubTodoResponse(saved)

	return &out, nil
}

func (ts *TodoService) DeleteSubTodo(ctx context.Context, userID string, todoID string, subTodoID string) (err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "delete_sub_todo", userID)
	defer func() { done(err) }()

	subTodo, err := ts.loadOwnedSubTodo(ctx, userID, todoID, subTodoID)

	if err != nil {
		return err
	}

	if err := ts.repo.DeleteSubTodo(ctx, todoID, subTodo.ID); err != nil {
		return notFoundOr(err, "Sub Todo not found")
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, "deleted", "sub_todo", subTodo.ID, userID, nil)

	return nil
}

func (ts *TodoService) saveTodo(ctx context.Context, userID string, todo domain.Todo, event string) (*response.TodoResponse, error) {
	saved, err := ts.repo.Update(ctx, todo)

	if err != nil {
		return nil, notFoundOr(err, "Todo not found")
	}

	ts.listings.invalidate(ctx, userID)
	ts.telemetry.RecordBusinessEvent(ctx, event, "todo", saved.ID, userID, nil)

	out := response.NewTodoResponse(saved)

	return &out, nil
}

func (ts *TodoService) resolveUser(ctx context.Context, userID string) error {
	if _, err := ts.users.GetByID(ctx, userID); err != nil {
		return notFoundOr(err, "User not found")
	}

	return nil
}

func (ts *TodoService) loadOwnedTodo(ctx context.Context, userID string, todoID string) (domain.Todo, error) {
	if err := ts.resolveUser(ctx, userID); err != nil {
		return domain.Todo{}, err
	}

	todo, err := ts.repo.GetByID(ctx, todoID)

	if err != nil {
		return domain.Todo{}, notFoundOr(err, "Todo not found")
	}

	if !todo.BelongsToUser(userID) {
		return domain.Todo{}, domain.NewError(domain.CodeForbidden, "You are not allowed to access this todo")
	}

	return todo, nil
}

func (ts *TodoService) loadOwnedSubTodo(ctx context.Context, userID string, todoID string, subTodoID string) (domain.SubTodo, error) {
	todo, err := ts.loadOwnedTodo(ctx, userID, todoID)

	if err != nil {
		return domain.SubTodo{}, err
	}

	subTodo, err := ts.repo.GetSubTodoByID(ctx, subTodoID)

	if err != nil {
		return domain.SubTodo{}, notFoundOr(err, "Sub Todo not found")
	}

	if !subTodo.BelongsToTodo(todo.ID) {
		return domain.SubTodo{}, domain.NewError(domain.CodeForbidden, "Sub Todo does not belong to this todo")
	}

	return subTodo, nil
}

func mergeString(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}

	return fallback
}
