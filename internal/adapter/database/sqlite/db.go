package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mattn/go-sqlite3"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/rs/zerolog"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"

	"todolist/internal/core/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the database/sql handle the SQL repositories run on. It carries the
// placeholder format and error mapping of the dialect behind it.
type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
	System       string
	translate    func(error) error
}

type Options struct {
	Path     string
	LogQuery bool
}

// Open runs pending migrations and returns a traced, query-logging handle
// to the database file at opts.Path.
func Open(opts Options) (*DB, error) {
	path := opts.Path

	if path == "" {
		path = "database.db"
	}

	dsn := fileDSN(path)

	migrationDB, err := sql.Open("sqlite3", dsn)

	if err != nil {
		return nil, fmt.Errorf("open sqlite for migrations: %w", err)
	}

	if err := RunMigrations(migrationDB); err != nil {
		migrationDB.Close()
		return nil, err
	}

	migrationDB.Close()

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todolist"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := sqlDB

	if opts.LogQuery {
		db = WithQueryLog(dsn, sqlDB, "sqlite")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return wrap(db), nil
}

// WithQueryLog reopens traced through a query-logging driver and closes the
// traced handle, which is not used after that.
func WithQueryLog(dsn string, traced *sql.DB, component string) *sql.DB {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	logged := sqldblogger.OpenDriver(dsn, traced.Driver(), zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)

	traced.Close()

	return logged
}

// OpenInMemory returns a migrated private in-memory database. It backs the
// test suites, so it is limited to one connection to keep the data alive.
func OpenInMemory() (*DB, error) {
	dsn := fmt.Sprintf("file:mem-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())

	db, err := sql.Open("sqlite3", dsn)

	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return wrap(db), nil
}

func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")

	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// TranslateError maps errors of the underlying driver onto domain errors.
func (db *DB) TranslateError(err error) error {
	return db.translate(err)
}

// TranslateError maps sqlite driver errors onto domain errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.CodeNotFound, "record not found", err)
	}

	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return domain.WrapError(domain.CodeConflict, "record already exists", err)
	}

	return err
}

func wrap(db *sql.DB) *DB {
	return Wrap(db, "sqlite", squirrel.Question, TranslateError)
}

// Wrap builds a DB for another database/sql dialect.
func Wrap(db *sql.DB, system string, placeholder squirrel.PlaceholderFormat, translate func(error) error) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(placeholder)

	return &DB{
		DB:           db,
		QueryBuilder: &queryBuilder,
		System:       system,
		translate:    translate,
	}
}

func fileDSN(path string) string {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path
	}

	return "file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}
