package request

type SignUpRequest struct {
	FullName       string        `json:"fullName" form:"fullName" validate:"required,min=2,max=100"`
	Email          string        `json:"email" form:"email" validate:"required,email,max=255"`
	Password       string        `json:"password" form:"password" validate:"required,min=6,max=100"`
	ProfilePicture *UploadedFile `json:"-" form:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=100"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" form:"token" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required,max=100"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}

type ChangeEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Otp         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}

type TodoRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"required,max=1000"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=pending in-progress completed"`
	Icon        string `json:"icon,omitempty" validate:"max=255"`
	Label       string `json:"label,omitempty" validate:"max=100"`
}

type UpdateTodoRequest struct {
	Title       string `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Icon        string `json:"icon,omitempty" validate:"max=255"`
	Label       string `json:"label,omitempty" validate:"max=100"`
}

type TodoStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed"`
}

type SubTodoRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	IsCompleted *bool  `json:"isCompleted,omitempty"`
}

type UpdateSubTodoRequest struct {
	Title       string `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	IsCompleted *bool  `json:"isCompleted,omitempty"`
}

// UploadedFile points at a multipart upload already spooled to local disk.
type UploadedFile struct {
	Path     string
	Filename string
	Size     int64
}

type ListTodosQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
