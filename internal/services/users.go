package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxNameLength    = 255
	maxEmailLength   = 254
)

var validate = validator.New()

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type UserService struct {
	users  repositories.UserRepository
	hasher PasswordHasher
	log    *zap.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(users repositories.UserRepository, hasher PasswordHasher, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, hasher: hasher, log: log, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

func (s *UserService) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

// EnsureSuperuser creates the administrator account unless a user with that
// email already exists. The boolean reports whether a new account was made.
func (s *UserService) EnsureSuperuser(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}
	user, err := s.CreateSuperuser(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, in RegisterInput, superuser bool) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := sanitizeName(in.Name)

	verr := &ValidationError{}
	checkEmail(verr, email)
	checkName(verr, name)
	checkPassword(verr, in.Password)

	if _, bad := verr.Fields["email"]; !bad {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			verr.Add("email", "user with this email already exists.", ErrDuplicateEmail)
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:       email,
		Name:        name,
		Password:    hashed,
		IsStaff:     superuser,
		IsSuperuser: superuser,
		Timestamps:  models.NewTimestamps(s.now().UTC()),
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fieldError("email", "user with this email already exists.", ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.FromContext(ctx, s.log).Info("user registered",
		zap.Int64("user_id", created.ID),
		zap.Bool("superuser", superuser),
	)
	return created, nil
}

func checkEmail(verr *ValidationError, email string) {
	switch {
	case email == "":
		verr.Add("email", "This field is required.", nil)
	case len(email) > maxEmailLength:
		verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", maxEmailLength), nil)
	case validate.Var(email, "email") != nil:
		verr.Add("email", "Enter a valid email address.", nil)
	}
}

func checkName(verr *ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", "This field is required.", nil)
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength), nil)
	}
}

// checkPassword reports the first rule the password breaks.
func checkPassword(verr *ValidationError, password string) {
	switch {
	case password == "":
		verr.Add("password", "This field is required.", nil)
	case utf8.RuneCountInString(password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength), ErrWeakPassword)
	case len(password) > maxPasswordBytes:
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPasswordBytes), ErrWeakPassword)
	case !strings.ContainsFunc(password, unicode.IsUpper):
		verr.Add("password", "missing_upper_case", ErrWeakPassword)
	case !strings.ContainsFunc(password, unicode.IsLower):
		verr.Add("password", "missing_lower_case", ErrWeakPassword)
	case !strings.ContainsFunc(password, unicode.IsDigit):
		verr.Add("password", "missing_digit", ErrWeakPassword)
	}
}

// Authenticate verifies an email and password pair. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.Verify(s.dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// dummyHash keeps the unknown-email path as slow as a real comparison.
func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("unused-Passw0rd")
		if err != nil {
			s.log.Warn("dummy hash failed", zap.Error(err))
		}
		s.dummy = h
	})
	return s.dummy
}

// Search matches query against email exactly or name as a substring, both
// case-insensitive, and never returns the caller.
func (s *UserService) Search(ctx context.Context, actor Actor, query string, page models.Page) ([]models.PublicUser, int64, error) {
	users, total, err := s.users.Search(ctx, query, actor.UserID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
