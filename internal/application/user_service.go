package application

import (
	"context"
	"errors"
	"strconv"
	"time"
	"unicode"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
	repo "github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/pkg/helpers"
)

// Business error taxonomy. Handlers translate these to HTTP statuses;
// none of them is transient and none is retried.
var (
	ErrDuplicateEmail     = repo.ErrDuplicateEmail
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

const viewCacheTTL = time.Hour

// Service orchestrates registration, authentication and account management.
// Redis is optional: when nil every read goes straight to the repository.
type Service struct {
	Repo       repo.UserRepository
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Logger     *logrus.Logger
	BcryptCost int
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, bcryptCost int) *Service {
	return &Service{Repo: r, JWT: jwt, Redis: rdb, Logger: logger, BcryptCost: bcryptCost}
}

func viewKey(id int64) string {
	return "user:view:" + strconv.FormatInt(id, 10)
}

type RegisterInput struct {
	Email      string
	FullName   string
	Password   string
	Department *string
	JobTitle   *string
	Active     *bool
}

// Register creates a new account. The password policy is checked before any
// store interaction; the email uniqueness check runs before hashing so a
// duplicate registration never pays the bcrypt cost.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.PublicView, error) {
	if !PasswordMeetsPolicy(in.Password) {
		return nil, ErrWeakPassword
	}

	existing, err := s.Repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := helpers.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u := &entity.User{
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Department:   in.Department,
		JobTitle:     in.JobTitle,
		Active:       active,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	view := u.Public()
	s.cacheView(ctx, &view)
	return &view, nil
}

// PasswordMeetsPolicy reports whether the password satisfies the account
// policy: at least 8 characters with one uppercase letter, one lowercase
// letter and one digit.
func PasswordMeetsPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Authenticate verifies the credentials and issues a bearer token bound to
// the account email. Unknown email and wrong password produce the same
// error so the response never reveals which one failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInactiveAccount
	}

	token, err := s.JWT.Issue(u.Email, time.Now().UTC())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", u.Email).Error("issue token failed")
		}
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// GetCurrentUser resolves the account behind a verified token subject.
func (s *Service) GetCurrentUser(ctx context.Context, subjectEmail string) (*entity.PublicView, error) {
	u, err := s.Repo.FindByEmail(ctx, subjectEmail)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	view := u.Public()
	return &view, nil
}

func (s *Service) ListUsers(ctx context.Context, department *string, active *bool) ([]entity.PublicView, error) {
	users, err := s.Repo.List(ctx, repo.ListFilter{Department: department, Active: active})
	if err != nil {
		return nil, err
	}
	views := make([]entity.PublicView, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	return views, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*entity.PublicView, error) {
	if s.Redis != nil {
		var cached entity.PublicView
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, viewKey(id), &cached)
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("view cache read failed")
		}
		if ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	view := u.Public()
	s.cacheView(ctx, &view)
	return &view, nil
}

// UpdateUser applies a partial update: unset fields stay untouched.
func (s *Service) UpdateUser(ctx context.Context, id int64, patch repo.UserPatch) (*entity.PublicView, error) {
	u, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	view := u.Public()
	s.cacheView(ctx, &view)
	return &view, nil
}

// DeactivateUser soft-deletes the account. Calling it on an already
// inactive account succeeds again and re-stamps the update time.
func (s *Service) DeactivateUser(ctx context.Context, id int64) error {
	ok, err := s.Repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	s.dropView(ctx, id)
	return nil
}

// cacheView writes through to the view cache so a read right after a write
// observes the new state. Cache failures are logged, never surfaced.
func (s *Service) cacheView(ctx context.Context, view *entity.PublicView) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, viewKey(view.ID), view, viewCacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", view.ID).Warn("view cache write failed")
	}
}

func (s *Service) dropView(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, viewKey(id)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("view cache drop failed")
	}
}
