package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/password"
	"fdsdashboard/internal/pkg/validator"
	"fdsdashboard/internal/repository"
)

const maxPasswordBytes = 72

type UserStore interface {
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateRole(ctx context.Context, id int64, role domain.UserRole) error
}

type Service struct {
	users   UserStore
	encoder password.Encoder
}

func NewService(users UserStore, encoder password.Encoder) *Service {
	return &Service{users: users, encoder: encoder}
}

// Signup creates a USER account and returns its id. Signup never grants
// ADMIN.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	loginID := strings.TrimSpace(req.UserID)
	name := strings.TrimSpace(req.Name)
	if loginID == "" || name == "" || strings.TrimSpace(req.UserPw) == "" {
		return nil, &ValidationError{Fields: blankFields(loginID, name, req.UserPw)}
	}
	// bcrypt only accepts the first 72 bytes and rejects longer input.
	if len(strings.TrimSpace(req.UserPw)) > maxPasswordBytes {
		return nil, &ValidationError{Fields: map[string]string{"UserPw": "max"}}
	}
	email := trimToNil(req.UserEmail)

	taken, err := s.users.ExistsByLoginID(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("signup: check user id: %w", err)
	}
	if taken {
		return nil, ErrLoginIDTaken
	}
	if email != nil {
		taken, err = s.users.ExistsByEmail(ctx, *email)
		if err != nil {
			return nil, fmt.Errorf("signup: check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	hash, err := s.encoder.Encode(strings.TrimSpace(req.UserPw))
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	user := &domain.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Name:         name,
		Email:        email,
		Birth:        trimToNil(req.Birth),
		Gender:       trimToNil(req.Gender),
		Role:         domain.RoleUser,
		PwQuestion:   trimToNil(req.PwQuestion),
		PwAnswer:     trimToNil(req.PwAnswer),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same id or email.
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("signup: create user: %w", err)
	}

	log.Printf("user_signed_up user_id=%d login_id=%s", user.ID, user.LoginID)
	return &SignupResponse{UserID: user.ID}, nil
}

// ChangeRole sets the role of an existing user and returns the normalized
// role. The new role reaches the user's access tokens on their next refresh.
func (s *Service) ChangeRole(ctx context.Context, id int64, role string) (domain.UserRole, error) {
	parsed, err := domain.ParseUserRole(role)
	if err != nil || strings.TrimSpace(role) == "" {
		return "", &ValidationError{Fields: map[string]string{"Role": "oneof"}}
	}
	if err := s.users.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("change role: %w", err)
	}
	log.Printf("user_role_changed user_id=%d role=%s", id, parsed)
	return parsed, nil
}

func blankFields(loginID, name, pw string) map[string]string {
	fields := map[string]string{}
	if loginID == "" {
		fields["UserID"] = "required"
	}
	if name == "" {
		fields["Name"] = "required"
	}
	if strings.TrimSpace(pw) == "" {
		fields["UserPw"] = "required"
	}
	return fields
}

func trimToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
