package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

var userColumns = []string{
	"id", "full_name", "email", "password_hash", "profile_picture", "is_verified",
	"refresh_token", "otp", "otp_expiry", "verification_token", "created_at", "updated_at",
}

type userRow struct {
	ID                string    `db:"id"`
	FullName          string    `db:"full_name"`
	Email             string    `db:"email"`
	PasswordHash      string    `db:"password_hash"`
	ProfilePicture    string    `db:"profile_picture"`
	IsVerified        bool      `db:"is_verified"`
	RefreshToken      string    `db:"refresh_token"`
	Otp               string    `db:"otp"`
	OtpExpiry         time.Time `db:"otp_expiry"`
	VerificationToken string    `db:"verification_token"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	user := domain.User{
		ID:                r.ID,
		FullName:          r.FullName,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		ProfilePictureURL: r.ProfilePicture,
		IsVerified:        r.IsVerified,
		RefreshToken:      pointer(r.RefreshToken),
		Otp:               pointer(r.Otp),
		VerificationToken: pointer(r.VerificationToken),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}

	if !r.OtpExpiry.IsZero() {
		expiry := r.OtpExpiry
		user.OtpExpiry = &expiry
	}

	return user
}

type UserRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, id string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "GetByID", "user", map[string]interface{}{"user.id": id})
	defer func() { done(err) }()

	return ur.findOne(ctx, sq.Eq{"id": id})
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "GetByEmail", "user", nil)
	defer func() { done(err) }()

	return ur.findOne(ctx, sq.Eq{"email": email})
}

func (ur *UserRepository) GetByVerificationToken(ctx context.Context, token string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "GetByVerificationToken", "user", nil)
	defer func() { done(err) }()

	return ur.findOne(ctx, sq.Eq{"verification_token": token})
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "Create", "user", map[string]interface{}{
		"db.operation": "INSERT",
		"user.id":      user.ID,
	})
	defer func() { done(err) }()

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.FullName, user.Email, user.PasswordHash, user.ProfilePictureURL, user.IsVerified,
			nullable(user.RefreshToken), nullable(user.Otp), user.OtpExpiry, nullable(user.VerificationToken),
			user.CreatedAt, user.UpdatedAt,
		).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	if _, err := ur.db.ExecContext(ctx, query, args...); err != nil {
		return domain.User{}, ur.db.TranslateError(err)
	}

	return ur.findOne(ctx, sq.Eq{"id": user.ID})
}

// Update writes every mutable column of user.
func (ur *UserRepository) Update(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "Update", "user", map[string]interface{}{
		"db.operation": "UPDATE",
		"user.id":      user.ID,
	})
	defer func() { done(err) }()

	query, args, err := ur.db.QueryBuilder.Update("users").
		SetMap(map[string]interface{}{
			"full_name":          user.FullName,
			"email":              user.Email,
			"password_hash":      user.PasswordHash,
			"profile_picture":    user.ProfilePictureURL,
			"is_verified":        user.IsVerified,
			"refresh_token":      nullable(user.RefreshToken),
			"otp":                nullable(user.Otp),
			"otp_expiry":         user.OtpExpiry,
			"verification_token": nullable(user.VerificationToken),
			"updated_at":         user.UpdatedAt,
		}).
		Where(sq.Eq{"id": user.ID}).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	result, err := ur.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.User{}, ur.db.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.User{}, domain.ErrNotFound
	}

	return ur.findOne(ctx, sq.Eq{"id": user.ID})
}

func (ur *UserRepository) DeleteByID(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, ur.telemetry, ur.db.System, "DeleteByID", "user", map[string]interface{}{
		"db.operation": "DELETE",
		"user.id":      id,
	})
	defer func() { done(err) }()

	query, args, err := ur.db.QueryBuilder.Delete("users").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := ur.db.ExecContext(ctx, query, args...)

	if err != nil {
		return ur.db.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (ur *UserRepository) findOne(ctx context.Context, where sq.Eq) (domain.User, error) {
	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	rows, err := ur.db.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.User{}, ur.db.TranslateError(err)
	}

	defer rows.Close()

	var row userRow

	if err := ur.scanner.ScanRowToStruct(rows, &row); err != nil {
		return domain.User{}, ur.db.TranslateError(err)
	}

	return row.toDomain(), nil
}
