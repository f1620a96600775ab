package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

var (
	todoColumns    = []string{"id", "title", "description", "status", "icon", "label", "user_id", "created_at", "updated_at"}
	subTodoColumns = []string{"id", "title", "is_completed", "todo_id", "created_at", "updated_at"}
)

type todoRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Icon        string    `db:"icon"`
	Label       string    `db:"label"`
	UserID      string    `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r todoRow) toDomain() domain.Todo {
	status := domain.TodoStatus(r.Status)

	if !status.IsValid() {
		status = domain.TodoStatusPending
	}

	return domain.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      status,
		Icon:        r.Icon,
		Label:       r.Label,
		UserID:      r.UserID,
		SubTodoIDs:  []string{},
		SubTodos:    []domain.SubTodo{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type subTodoRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	IsCompleted bool      `db:"is_completed"`
	TodoID      string    `db:"todo_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r subTodoRow) toDomain() domain.SubTodo {
	return domain.SubTodo{
		ID:          r.ID,
		Title:       r.Title,
		IsCompleted: r.IsCompleted,
		TodoID:      r.TodoID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// TodoRepository keeps sub-todo membership in the sub_todos table, so a
// todo's SubTodoIDs are derived from it in creation order.
type TodoRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) GetAllByUser(ctx context.Context, userID string) (todos []domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "GetAllByUser", "todo", map[string]interface{}{
		"db.table": "todos",
		"user.id":  userID,
	})
	defer func() { done(err) }()

	return tr.selectTodos(ctx, tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC"))
}

// GetPageByUser reads one keyset page and reports whether more todos follow.
func (tr *TodoRepository) GetPageByUser(ctx context.Context, page port.TodoPageQuery) (todos []domain.Todo, hasNext bool, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "GetPageByUser", "todo", map[string]interface{}{
		"db.table":   "todos",
		"user.id":    page.UserID,
		"todo.limit": page.Limit,
	})
	defer func() { done(err) }()

	builder := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"user_id": page.UserID})

	if page.AfterID != "" {
		builder = builder.Where(sq.Or{
			sq.Lt{"created_at": page.AfterCreatedAt},
			sq.And{sq.Eq{"created_at": page.AfterCreatedAt}, sq.Lt{"id": page.AfterID}},
		})
	}

	todos, err = tr.selectTodos(ctx, builder.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(page.Limit+1)))

	if err != nil {
		return nil, false, err
	}

	if len(todos) > page.Limit {
		return todos[:page.Limit], true, nil
	}

	return todos, false, nil
}

// selectTodos runs builder and attaches every selected todo's sub-todos.
func (tr *TodoRepository) selectTodos(ctx context.Context, builder sq.SelectBuilder) ([]domain.Todo, error) {
	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	var todoRows []todoRow
	err = tr.scanner.ScanRowsToSlice(rows, &todoRows)
	rows.Close()

	if err != nil {
		return nil, err
	}

	todos := make([]domain.Todo, 0, len(todoRows))
	ids := make([]string, 0, len(todoRows))

	for _, row := range todoRows {
		todos = append(todos, row.toDomain())
		ids = append(ids, row.ID)
	}

	if len(ids) == 0 {
		return todos, nil
	}

	subTodos, err := tr.subTodosOf(ctx, ids)

	if err != nil {
		return nil, err
	}

	for i := range todos {
		attach(&todos[i], subTodos[todos[i].ID])
	}

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id string) (todo domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "GetByID", "todo", map[string]interface{}{
		"db.table": "todos",
		"todo.id":  id,
	})
	defer func() { done(err) }()

	return tr.findTodo(ctx, id)
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "Create", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "INSERT",
		"todo.id":      todo.ID,
		"user.id":      todo.UserID,
	})
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Insert("todos").
		Columns(todoColumns...).
		Values(todo.ID, todo.Title, todo.Description, todo.Status.String(), todo.Icon, todo.Label, todo.UserID, todo.CreatedAt, todo.UpdatedAt).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	if _, err := tr.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Todo{}, tr.db.TranslateError(err)
	}

	return tr.findTodo(ctx, todo.ID)
}

func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "Update", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
	})
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Update("todos").
		SetMap(map[string]interface{}{
			"title":       todo.Title,
			"description": todo.Description,
			"status":      todo.Status.String(),
			"icon":        todo.Icon,
			"label":       todo.Label,
			"updated_at":  todo.UpdatedAt,
		}).
		Where(sq.Eq{"id": todo.ID}).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, tr.db.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Todo{}, domain.ErrNotFound
	}

	return tr.findTodo(ctx, todo.ID)
}

// DeleteWithSubTodos removes the todo and its sub-todos in one transaction.
func (tr *TodoRepository) DeleteWithSubTodos(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "DeleteWithSubTodos", "todo", map[string]interface{}{
		"db.operation": "DELETE",
		"todo.id":      id,
	})
	defer func() { done(err) }()

	return tr.inTx(ctx, func(tx *sql.Tx) error {
		if err := tr.exec(ctx, tx, tr.db.QueryBuilder.Delete("sub_todos").Where(sq.Eq{"todo_id": id})); err != nil {
			return err
		}

		result, err := tr.execResult(ctx, tx, tr.db.QueryBuilder.Delete("todos").Where(sq.Eq{"id": id}))

		if err != nil {
			return err
		}

		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return domain.ErrNotFound
		}

		return nil
	})
}

func (tr *TodoRepository) DeleteAllByUser(ctx context.Context, userID string) (err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "DeleteAllByUser", "todo", map[string]interface{}{
		"db.operation": "DELETE",
		"user.id":      userID,
	})
	defer func() { done(err) }()

	owned := sq.Select("id").From("todos").Where(sq.Eq{"user_id": userID})

	ownedSQL, ownedArgs, err := owned.ToSql()

	if err != nil {
		return err
	}

	return tr.inTx(ctx, func(tx *sql.Tx) error {
		if err := tr.exec(ctx, tx, tr.db.QueryBuilder.Delete("sub_todos").Where("todo_id IN ("+ownedSQL+")", ownedArgs...)); err != nil {
			return err
		}

		return tr.exec(ctx, tx, tr.db.QueryBuilder.Delete("todos").Where(sq.Eq{"user_id": userID}))
	})
}

func (tr *TodoRepository) GetSubTodoByID(ctx context.Context, id string) (subTodo domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "GetSubTodoByID", "sub_todo", map[string]interface{}{
		"db.table":    "sub_todos",
		"sub_todo.id": id,
	})
	defer func() { done(err) }()

	return tr.findSubTodo(ctx, id)
}

// CreateSubTodo inserts subTodo under its parent, failing with NotFound when
// the parent no longer exists.
func (tr *TodoRepository) CreateSubTodo(ctx context.Context, subTodo domain.SubTodo) (saved domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "CreateSubTodo", "sub_todo", map[string]interface{}{
		"db.table":     "sub_todos",
		"db.operation": "INSERT",
		"todo.id":      subTodo.TodoID,
	})
	defer func() { done(err) }()

	err = tr.inTx(ctx, func(tx *sql.Tx) error {
		query, args, err := tr.db.QueryBuilder.Select("COUNT(*)").
			From("todos").
			Where(sq.Eq{"id": subTodo.TodoID}).
			ToSql()

		if err != nil {
			return err
		}

		var count int

		if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return err
		}

		if count == 0 {
			return domain.ErrNotFound
		}

		return tr.exec(ctx, tx, tr.db.QueryBuilder.Insert("sub_todos").
			Columns(subTodoColumns...).
			Values(subTodo.ID, subTodo.Title, subTodo.IsCompleted, subTodo.TodoID, subTodo.CreatedAt, subTodo.UpdatedAt))
	})

	if err != nil {
		return domain.SubTodo{}, err
	}

	return tr.findSubTodo(ctx, subTodo.ID)
}

func (tr *TodoRepository) UpdateSubTodo(ctx context.Context, subTodo domain.SubTodo) (saved domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "UpdateSubTodo", "sub_todo", map[string]interface{}{
		"db.table":     "sub_todos",
		"db.operation": "UPDATE",
		"sub_todo.id":  subTodo.ID,
	})
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Update("sub_todos").
		Set("title", subTodo.Title).
		Set("is_completed", subTodo.IsCompleted).
		Set("updated_at", subTodo.UpdatedAt).
		Where(sq.Eq{"id": subTodo.ID}).
		ToSql()

	if err != nil {
		return domain.SubTodo{}, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.SubTodo{}, tr.db.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.SubTodo{}, domain.ErrNotFound
	}

	return tr.findSubTodo(ctx, subTodo.ID)
}

func (tr *TodoRepository) DeleteSubTodo(ctx context.Context, todoID string, subTodoID string) (err error) {
	ctx, done := track(ctx, tr.telemetry, tr.db.System, "DeleteSubTodo", "sub_todo", map[string]interface{}{
		"db.operation": "DELETE",
		"todo.id":      todoID,
		"sub_todo.id":  subTodoID,
	})
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Delete("sub_todos").
		Where(sq.Eq{"id": subTodoID, "todo_id": todoID}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return tr.db.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (tr *TodoRepository) findTodo(ctx context.Context, id string) (domain.Todo, error) {
	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, err
	}

	var row todoRow
	err = tr.scanner.ScanRowToStruct(rows, &row)
	rows.Close()

	if err != nil {
		return domain.Todo{}, tr.db.TranslateError(err)
	}

	todo := row.toDomain()

	subTodos, err := tr.subTodosOf(ctx, []string{todo.ID})

	if err != nil {
		return domain.Todo{}, err
	}

	attach(&todo, subTodos[todo.ID])

	return todo, nil
}

func (tr *TodoRepository) findSubTodo(ctx context.Context, id string) (domain.SubTodo, error) {
	query, args, err := tr.db.QueryBuilder.Select(subTodoColumns...).
		From("sub_todos").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.SubTodo{}, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.SubTodo{}, err
	}

	defer rows.Close()

	var row subTodoRow

	if err := tr.scanner.ScanRowToStruct(rows, &row); err != nil {
		return domain.SubTodo{}, tr.db.TranslateError(err)
	}

	return row.toDomain(), nil
}

// subTodosOf loads the sub-todos of every todo in ids, grouped by todo id.
func (tr *TodoRepository) subTodosOf(ctx context.Context, ids []string) (map[string][]domain.SubTodo, error) {
	query, args, err := tr.db.QueryBuilder.Select(subTodoColumns...).
		From("sub_todos").
		Where(sq.Eq{"todo_id": ids}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var subTodoRows []subTodoRow

	if err := tr.scanner.ScanRowsToSlice(rows, &subTodoRows); err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.SubTodo, len(ids))

	for _, row := range subTodoRows {
		grouped[row.TodoID] = append(grouped[row.TodoID], row.toDomain())
	}

	return grouped, nil
}

func (tr *TodoRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := tr.db.BeginTx(ctx, nil)

	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return tr.db.TranslateError(err)
	}

	return tx.Commit()
}

func (tr *TodoRepository) exec(ctx context.Context, tx *sql.Tx, builder sq.Sqlizer) error {
	_, err := tr.execResult(ctx, tx, builder)

	return err
}

func (tr *TodoRepository) execResult(ctx context.Context, tx *sql.Tx, builder sq.Sqlizer) (sql.Result, error) {
	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	return tx.ExecContext(ctx, query, args...)
}

func attach(todo *domain.Todo, subTodos []domain.SubTodo) {
	for _, subTodo := range subTodos {
		todo.SubTodos = append(todo.SubTodos, subTodo)
		todo.AppendSubTodo(subTodo.ID)
	}
}
