package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"todolist/internal/adapter/database/mongo"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

type todoDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	Icon        string    `bson:"icon"`
	Label       string    `bson:"label"`
	User        string    `bson:"user"`
	SubTodos    []string  `bson:"sub_todos"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d todoDocument) toDomain() domain.Todo {
	status := domain.TodoStatus(d.Status)

	if !status.IsValid() {
		status = domain.TodoStatusPending
	}

	ids := d.SubTodos

	if ids == nil {
		ids = []string{}
	}

	return domain.Todo{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      status,
		Icon:        d.Icon,
		Label:       d.Label,
		UserID:      d.User,
		SubTodoIDs:  ids,
		SubTodos:    []domain.SubTodo{},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type subTodoDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	IsCompleted bool      `bson:"is_completed"`
	Todo        string    `bson:"todo"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newSubTodoDocument(subTodo domain.SubTodo) subTodoDocument {
	return subTodoDocument{
		ID:          subTodo.ID,
		Title:       subTodo.Title,
		IsCompleted: subTodo.IsCompleted,
		Todo:        subTodo.TodoID,
		CreatedAt:   subTodo.CreatedAt,
		UpdatedAt:   subTodo.UpdatedAt,
	}
}

func (d subTodoDocument) toDomain() domain.SubTodo {
	return domain.SubTodo{
		ID:          d.ID,
		Title:       d.Title,
		IsCompleted: d.IsCompleted,
		TodoID:      d.Todo,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// TodoRepository stores the ordered sub-todo ids on the todo document and
// the sub-todos in their own collection, keeping both in step inside
// transactions.
type TodoRepository struct {
	db        *mongo.DB
	todos     *driver.Collection
	subTodos  *driver.Collection
	telemetry port.Telemetry
}

func NewTodoRepository(db *mongo.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		todos:     db.Collection(mongo.TodosCollection),
		subTodos:  db.Collection(mongo.SubTodosCollection),
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) GetAllByUser(ctx context.Context, userID string) (todos []domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, "GetAllByUser", "todo", map[string]interface{}{
		"db.collection": mongo.TodosCollection,
		"user.id":       userID,
	})
	defer func() { done(err) }()

	return tr.findTodos(ctx, bson.M{"user": userID}, options.Find().SetSort(newestFirst))
}

// GetPageByUser reads one keyset page and reports whether more todos follow.
func (tr *TodoRepository) GetPageByUser(ctx context.Context, page port.TodoPageQuery) (todos []domain.Todo, hasNext bool, err error) {
	ctx, done := track(ctx, tr.telemetry, "GetPageByUser", "todo", map[string]interface{}{
		"db.collection": mongo.TodosCollection,
		"user.id":       page.UserID,
		"todo.limit":    page.Limit,
	})
	defer func() { done(err) }()

	filter := bson.M{"user": page.UserID}

	if page.AfterID != "" {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": page.AfterCreatedAt}},
			bson.M{"created_at": page.AfterCreatedAt, "_id": bson.M{"$lt": page.AfterID}},
		}
	}

	todos, err = tr.findTodos(ctx, filter, options.Find().SetSort(newestFirst).SetLimit(int64(page.Limit+1)))

	if err != nil {
		return nil, false, err
	}

	if len(todos) > page.Limit {
		return todos[:page.Limit], true, nil
	}

	return todos, false, nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// findTodos runs filter and attaches every matched todo's sub-todos.
func (tr *TodoRepository) findTodos(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]domain.Todo, error) {
	cursor, err := tr.todos.Find(ctx, filter, opts)

	if err != nil {
		return nil, mongo.TranslateError(err)
	}

	var documents []todoDocument

	if err := cursor.All(ctx, &documents); err != nil {
		return nil, mongo.TranslateError(err)
	}

	todos := make([]domain.Todo, 0, len(documents))
	ids := make([]string, 0, len(documents))

	for _, document := range documents {
		todos = append(todos, document.toDomain())
		ids = append(ids, document.ID)
	}

	if len(ids) == 0 {
		return todos, nil
	}

	subTodos, err := tr.subTodosOf(ctx, ids)

	if err != nil {
		return nil, err
	}

	for i := range todos {
		attach(&todos[i], subTodos)
	}

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id string) (todo domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, "GetByID", "todo", map[string]interface{}{
		"db.collection": mongo.TodosCollection,
		"todo.id":       id,
	})
	defer func() { done(err) }()

	return tr.findTodo(ctx, id)
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, "Create", "todo", map[string]interface{}{
		"db.operation": "insert",
		"todo.id":      todo.ID,
		"user.id":      todo.UserID,
	})
	defer func() { done(err) }()

	document := todoDocument{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      todo.Status.String(),
		Icon:        todo.Icon,
		Label:       todo.Label,
		User:        todo.UserID,
		SubTodos:    []string{},
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}

	if _, err := tr.todos.InsertOne(ctx, document); err != nil {
		return domain.Todo{}, mongo.TranslateError(err)
	}

	return tr.findTodo(ctx, todo.ID)
}

// Update writes the mutable fields of todo and leaves the sub-todo list
// untouched.
func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := track(ctx, tr.telemetry, "Update", "todo", map[string]interface{}{
		"db.operation": "update",
		"todo.id":      todo.ID,
	})
	defer func() { done(err) }()

	result, err := tr.todos.UpdateByID(ctx, todo.ID, bson.M{"$set": bson.M{
		"title":       todo.Title,
		"description": todo.Description,
		"status":      todo.Status.String(),
		"icon":        todo.Icon,
		"label":       todo.Label,
		"updated_at":  todo.UpdatedAt,
	}})

	if err != nil {
		return domain.Todo{}, mongo.TranslateError(err)
	}

	if result.MatchedCount == 0 {
		return domain.Todo{}, domain.ErrNotFound
	}

	return tr.findTodo(ctx, todo.ID)
}

func (tr *TodoRepository) DeleteWithSubTodos(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, tr.telemetry, "DeleteWithSubTodos", "todo", map[string]interface{}{
		"db.operation": "delete",
		"todo.id":      id,
	})
	defer func() { done(err) }()

	return tr.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := tr.subTodos.DeleteMany(ctx, bson.M{"todo": id}); err != nil {
			return mongo.TranslateError(err)
		}

		result, err := tr.todos.DeleteOne(ctx, bson.M{"_id": id})

		if err != nil {
			return mongo.TranslateError(err)
		}

		if result.DeletedCount == 0 {
			return domain.ErrNotFound
		}

		return nil
	})
}

func (tr *TodoRepository) DeleteAllByUser(ctx context.Context, userID string) (err error) {
	ctx, done := track(ctx, tr.telemetry, "DeleteAllByUser", "todo", map[string]interface{}{
		"db.operation": "delete",
		"user.id":      userID,
	})
	defer func() { done(err) }()

	return tr.db.WithTransaction(ctx, func(ctx context.Context) error {
		cursor, err := tr.todos.Find(ctx, bson.M{"user": userID}, options.Find().SetProjection(bson.M{"_id": 1}))

		if err != nil {
			return mongo.TranslateError(err)
		}

		var owned []struct {
			ID string `bson:"_id"`
		}

		if err := cursor.All(ctx, &owned); err != nil {
			return mongo.TranslateError(err)
		}

		ids := make([]string, 0, len(owned))

		for _, todo := range owned {
			ids = append(ids, todo.ID)
		}

		if len(ids) > 0 {
			if _, err := tr.subTodos.DeleteMany(ctx, bson.M{"todo": bson.M{"$in": ids}}); err != nil {
				return mongo.TranslateError(err)
			}
		}

		if _, err := tr.todos.DeleteMany(ctx, bson.M{"user": userID}); err != nil {
			return mongo.TranslateError(err)
		}

		return nil
	})
}

func (tr *TodoRepository) GetSubTodoByID(ctx context.Context, id string) (subTodo domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, "GetSubTodoByID", "sub_todo", map[string]interface{}{
		"db.collection": mongo.SubTodosCollection,
		"sub_todo.id":   id,
	})
	defer func() { done(err) }()

	return tr.findSubTodo(ctx, id)
}

// CreateSubTodo inserts subTodo and appends its id to the parent.
func (tr *TodoRepository) CreateSubTodo(ctx context.Context, subTodo domain.SubTodo) (saved domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, "CreateSubTodo", "sub_todo", map[string]interface{}{
		"db.operation": "insert",
		"todo.id":      subTodo.TodoID,
	})
	defer func() { done(err) }()

	err = tr.db.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := tr.todos.UpdateByID(ctx, subTodo.TodoID, bson.M{
			"$push": bson.M{"sub_todos": subTodo.ID},
			"$set":  bson.M{"updated_at": subTodo.CreatedAt},
		})

		if err != nil {
			return mongo.TranslateError(err)
		}

		if result.MatchedCount == 0 {
			return domain.ErrNotFound
		}

		if _, err := tr.subTodos.InsertOne(ctx, newSubTodoDocument(subTodo)); err != nil {
			return mongo.TranslateError(err)
		}

		return nil
	})

	if err != nil {
		return domain.SubTodo{}, err
	}

	return tr.findSubTodo(ctx, subTodo.ID)
}

func (tr *TodoRepository) UpdateSubTodo(ctx context.Context, subTodo domain.SubTodo) (saved domain.SubTodo, err error) {
	ctx, done := track(ctx, tr.telemetry, "UpdateSubTodo", "sub_todo", map[string]interface{}{
		"db.operation": "update",
		"sub_todo.id":  subTodo.ID,
	})
	defer func() { done(err) }()

	result, err := tr.subTodos.UpdateByID(ctx, subTodo.ID, bson.M{"$set": bson.M{
		"title":        subTodo.Title,
		"is_completed": subTodo.IsCompleted,
		"updated_at":   subTodo.UpdatedAt,
	}})

	if err != nil {
		return domain.SubTodo{}, mongo.TranslateError(err)
	}

	if result.MatchedCount == 0 {
		return domain.SubTodo{}, domain.ErrNotFound
	}

	return tr.findSubTodo(ctx, subTodo.ID)
}

// DeleteSubTodo pulls the id from the parent and removes the record.
func (tr *TodoRepository) DeleteSubTodo(ctx context.Context, todoID string, subTodoID string) (err error) {
	ctx, done := track(ctx, tr.telemetry, "DeleteSubTodo", "sub_todo", map[string]interface{}{
		"db.operation": "delete",
		"todo.id":      todoID,
		"sub_todo.id":  subTodoID,
	})
	defer func() { done(err) }()

	return tr.db.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := tr.subTodos.DeleteOne(ctx, bson.M{"_id": subTodoID, "todo": todoID})

		if err != nil {
			return mongo.TranslateError(err)
		}

		if result.DeletedCount == 0 {
			return domain.ErrNotFound
		}

		if _, err := tr.todos.UpdateByID(ctx, todoID, bson.M{"$pull": bson.M{"sub_todos": subTodoID}}); err != nil {
			return mongo.TranslateError(err)
		}

		return nil
	})
}

func (tr *TodoRepository) findTodo(ctx context.Context, id string) (domain.Todo, error) {
	var document todoDocument

	if err := tr.todos.FindOne(ctx, bson.M{"_id": id}).Decode(&document); err != nil {
		return domain.Todo{}, mongo.TranslateError(err)
	}

	todo := document.toDomain()

	subTodos, err := tr.subTodosOf(ctx, []string{todo.ID})

	if err != nil {
		return domain.Todo{}, err
	}

	attach(&todo, subTodos)

	return todo, nil
}

func (tr *TodoRepository) findSubTodo(ctx context.Context, id string) (domain.SubTodo, error) {
	var document subTodoDocument

	if err := tr.subTodos.FindOne(ctx, bson.M{"_id": id}).Decode(&document); err != nil {
		return domain.SubTodo{}, mongo.TranslateError(err)
	}

	return document.toDomain(), nil
}

// subTodosOf loads the sub-todos of every todo in ids, keyed by sub-todo id.
func (tr *TodoRepository) subTodosOf(ctx context.Context, ids []string) (map[string]domain.SubTodo, error) {
	cursor, err := tr.subTodos.Find(ctx, bson.M{"todo": bson.M{"$in": ids}})

	if err != nil {
		return nil, mongo.TranslateError(err)
	}

	var documents []subTodoDocument

	if err := cursor.All(ctx, &documents); err != nil {
		return nil, mongo.TranslateError(err)
	}

	byID := make(map[string]domain.SubTodo, len(documents))

	for _, document := range documents {
		byID[document.ID] = document.toDomain()
	}

	return byID, nil
}

// attach resolves the todo's ordered sub-todo ids, skipping dangling ones.
func attach(todo *domain.Todo, subTodos map[string]domain.SubTodo) {
	ids := make([]string, 0, len(todo.SubTodoIDs))
	resolved := make([]domain.SubTodo, 0, len(todo.SubTodoIDs))

	for _, id := range todo.SubTodoIDs {
		subTodo, ok := subTodos[id]

		if !ok || subTodo.TodoID != todo.ID {
			continue
		}

		ids = append(ids, id)
		resolved = append(resolved, subTodo)
	}

	todo.SubTodoIDs = ids
	todo.SubTodos = resolved
}
