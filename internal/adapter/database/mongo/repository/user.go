package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"todolist/internal/adapter/database/mongo"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	tel "todolist/internal/core/telemetry"
)

type userDocument struct {
	ID                string     `bson:"_id"`
	FullName          string     `bson:"full_name"`
	Email             string     `bson:"email"`
	PasswordHash      string     `bson:"password"`
	ProfilePicture    string     `bson:"profile_picture"`
	IsVerified        bool       `bson:"is_verified"`
	RefreshToken      *string    `bson:"refresh_token"`
	Otp               *string    `bson:"otp"`
	OtpExpiry         *time.Time `bson:"otp_expiry"`
	VerificationToken *string    `bson:"verification_token,omitempty"`
	CreatedAt         time.Time  `bson:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

func newUserDocument(user domain.User) userDocument {
	return userDocument{
		ID:                user.ID,
		FullName:          user.FullName,
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		ProfilePicture:    user.ProfilePictureURL,
		IsVerified:        user.IsVerified,
		RefreshToken:      user.RefreshToken,
		Otp:               user.Otp,
		OtpExpiry:         user.OtpExpiry,
		VerificationToken: user.VerificationToken,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

func (d userDocument) toDomain() domain.User {
	return domain.User{
		ID:                d.ID,
		FullName:          d.FullName,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		ProfilePictureURL: d.ProfilePicture,
		IsVerified:        d.IsVerified,
		RefreshToken:      d.RefreshToken,
		Otp:               d.Otp,
		OtpExpiry:         d.OtpExpiry,
		VerificationToken: d.VerificationToken,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type UserRepository struct {
	users     *driver.Collection
	telemetry port.Telemetry
}

func NewUserRepository(db *mongo.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		users:     db.Collection(mongo.UsersCollection),
		telemetry: telemetry,
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, id string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, "GetByID", "user", map[string]interface{}{"user.id": id})
	defer func() { done(err) }()

	return ur.findOne(ctx, bson.M{"_id": id})
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, "GetByEmail", "user", nil)
	defer func() { done(err) }()

	return ur.findOne(ctx, bson.M{"email": email})
}

func (ur *UserRepository) GetByVerificationToken(ctx context.Context, token string) (user domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, "GetByVerificationToken", "user", nil)
	defer func() { done(err) }()

	return ur.findOne(ctx, bson.M{"verification_token": token})
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, "Create", "user", map[string]interface{}{
		"db.operation": "insert",
		"user.id":      user.ID,
	})
	defer func() { done(err) }()

	if _, err := ur.users.InsertOne(ctx, newUserDocument(user)); err != nil {
		return domain.User{}, mongo.TranslateError(err)
	}

	return ur.findOne(ctx, bson.M{"_id": user.ID})
}

// Update replaces the stored document with user.
func (ur *UserRepository) Update(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := track(ctx, ur.telemetry, "Update", "user", map[string]interface{}{
		"db.operation": "replace",
		"user.id":      user.ID,
	})
	defer func() { done(err) }()

	result, err := ur.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, newUserDocument(user))

	if err != nil {
		return domain.User{}, mongo.TranslateError(err)
	}

	if result.MatchedCount == 0 {
		return domain.User{}, domain.ErrNotFound
	}

	return ur.findOne(ctx, bson.M{"_id": user.ID})
}

func (ur *UserRepository) DeleteByID(ctx context.Context, id string) (err error) {
	ctx, done := track(ctx, ur.telemetry, "DeleteByID", "user", map[string]interface{}{
		"db.operation": "delete",
		"user.id":      id,
	})
	defer func() { done(err) }()

	result, err := ur.users.DeleteOne(ctx, bson.M{"_id": id})

	if err != nil {
		return mongo.TranslateError(err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (ur *UserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var document userDocument

	if err := ur.users.FindOne(ctx, filter).Decode(&document); err != nil {
		return domain.User{}, mongo.TranslateError(err)
	}

	return document.toDomain(), nil
}
