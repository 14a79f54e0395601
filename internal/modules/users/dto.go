package users

type SignupRequest struct {
	UserID     string `json:"userId" validate:"required,max=50"`
	Name       string `json:"name" validate:"required,max=50"`
	UserEmail  string `json:"userEmail" validate:"omitempty,email,max=100"`
	Birth      string `json:"birth" validate:"max=20"`
	Gender     string `json:"gender" validate:"max=10"`
	UserPw     string `json:"userPw" validate:"required,min=8,max=255,password_complexity"`
	PwQuestion string `json:"pwQuestion" validate:"max=255"`
	PwAnswer   string `json:"pwAnswer" validate:"max=255"`
}

type SignupResponse struct {
	UserID int64 `json:"userId"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}
