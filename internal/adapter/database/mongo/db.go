package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"todolist/internal/core/domain"
)

const (
	UsersCollection    = "users"
	TodosCollection    = "todos"
	SubTodosCollection = "subtodos"
)

// codeIllegalOperation is returned by standalone servers for transactions.
const codeIllegalOperation = 20

type DB struct {
	Client   *driver.Client
	Database *driver.Database
	logger   *zap.Logger
}

type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect dials the server, verifies it with a ping and ensures the indexes
// the repositories rely on.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.Database == "" {
		opts.Database = "todolist"
	}

	client, err := driver.Connect(options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.Timeout).
		SetServerSelectionTimeout(opts.Timeout))

	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := &DB{
		Client:   client,
		Database: client.Database(opts.Database),
		logger:   logger,
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Connected to MongoDB", zap.String("database", opts.Database))

	return db, nil
}

func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]driver.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		TodosCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		SubTodosCollection: {
			{Keys: bson.D{{Key: "todo", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}

	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

func (db *DB) Collection(name string) *driver.Collection {
	return db.Database.Collection(name)
}

// WithTransaction runs fn inside a multi-document transaction. Standalone
// servers cannot start one, so fn then runs without it and a failure halfway
// leaves the writes already made in place.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := db.Client.StartSession()

	if err != nil {
		return fn(ctx)
	}

	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})

	if err != nil && transactionsUnsupported(err) {
		db.logger.Warn("Transactions unavailable, running writes sequentially", zap.Error(err))
		return fn(ctx)
	}

	return err
}

func transactionsUnsupported(err error) bool {
	var serverErr driver.ServerError

	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(codeIllegalOperation)
	}

	return false
}

// TranslateError maps driver errors onto domain errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error

	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, driver.ErrNoDocuments) {
		return domain.WrapError(domain.CodeNotFound, "document not found", err)
	}

	if driver.IsDuplicateKeyError(err) {
		return domain.WrapError(domain.CodeConflict, "document already exists", err)
	}

	return err
}
