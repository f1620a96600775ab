package response

import (
	"time"

	"todolist/internal/core/domain"
)

type UserResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AuthResponse is returned by login and refresh. The refresh token travels
// only in the cookie, never in the body.
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"-"`
}

type SessionResponse struct {
	LoggedIn bool          `json:"loggedIn"`
	User     *UserResponse `json:"user"`
}

type SubTodoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	Todo        string    `json:"todo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TodoResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Icon        string            `json:"icon"`
	Label       string            `json:"label"`
	User        string            `json:"user"`
	SubTodos    []SubTodoResponse `json:"subTodos"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type Pagination struct {
	Size       int    `json:"size"`
	HasNext    bool   `json:"hasNext"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type TodoPage struct {
	Items      []TodoResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the body shape of every response, success or failure.
type Envelope struct {
	StatusCode int               `json:"statuscode"`
	Message    string            `json:"message"`
	Data       any               `json:"data"`
	Success    bool              `json:"success"`
	Code       string            `json:"code,omitempty"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

func NewUserResponse(user domain.User) *UserResponse {
	return &UserResponse{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		ProfilePicture: user.ProfilePictureURL,
		IsVerified:     user.IsVerified,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func NewSubTodoResponse(subTodo domain.SubTodo) SubTodoResponse {
	return SubTodoResponse{
		ID:          subTodo.ID,
		Title:       subTodo.Title,
		IsCompleted: subTodo.IsCompleted,
		Todo:        subTodo.TodoID,
		CreatedAt:   subTodo.CreatedAt,
		UpdatedAt:   subTodo.UpdatedAt,
	}
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	subTodos := make([]SubTodoResponse, 0, len(todo.SubTodos))

	for _, subTodo := range todo.SubTodos {
		subTodos = append(subTodos, NewSubTodoResponse(subTodo))
	}

	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      todo.Status.String(),
		Icon:        todo.Icon,
		Label:       todo.Label,
		User:        todo.UserID,
		SubTodos:    subTodos,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}
