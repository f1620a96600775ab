package factory

import (
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"

	"todolist/internal/core/domain"
	"todolist/internal/core/util"
)

// DefaultPassword is the plain password behind every factory user.
const DefaultPassword = "12345678"

// NewUser builds a verified user with random names. Token and OTP state is
// always cleared unless set by the caller after building.
func NewUser(customData ...map[string]any) domain.User {
	instance := fab.New(domain.User{})
	user := instance.Build(customData...)

	if !overrides(customData, "ID") {
		user.ID = uuid.NewString()
	}

	if !overrides(customData, "Email") {
		user.Email = uuid.NewString()[:8] + "@example.com"
	}

	if !overrides(customData, "PasswordHash") {
		encrypted, _ := util.GenerateEncrypt(DefaultPassword)
		user.PasswordHash = encrypted
	}

	if !overrides(customData, "IsVerified") {
		user.IsVerified = true
	}

	if !overrides(customData, "ProfilePictureURL") {
		user.ProfilePictureURL = ""
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.RefreshToken = nil
	user.Otp = nil
	user.OtpExpiry = nil
	user.VerificationToken = nil

	return user
}

func NewTodo(userID string, customData ...map[string]any) domain.Todo {
	instance := fab.New(domain.Todo{})
	todo := instance.Build(customData...)

	if !overrides(customData, "ID") {
		todo.ID = uuid.NewString()
	}

	if !overrides(customData, "Title") {
		todo.Title = "Todo " + uuid.NewString()[:8]
	}

	if !overrides(customData, "Description") {
		todo.Description = "Description " + uuid.NewString()[:8]
	}

	if !overrides(customData, "Status") {
		todo.Status = domain.TodoStatusPending
	}

	now := time.Now()
	todo.UserID = userID
	todo.SubTodoIDs = nil
	todo.SubTodos = nil
	todo.CreatedAt = now
	todo.UpdatedAt = now

	return todo
}

func NewSubTodo(todoID string, customData ...map[string]any) domain.SubTodo {
	instance := fab.New(domain.SubTodo{})
	subTodo := instance.Build(customData...)

	if !overrides(customData, "ID") {
		subTodo.ID = uuid.NewString()
	}

	if !overrides(customData, "Title") {
		subTodo.Title = "Step " + uuid.NewString()[:8]
	}

	now := time.Now()
	subTodo.TodoID = todoID
	subTodo.CreatedAt = now
	subTodo.UpdatedAt = now

	return subTodo
}

func overrides(customData []map[string]any, field string) bool {
	for _, data := range customData {
		if _, exists := data[field]; exists {
			return true
		}
	}

	return false
}
