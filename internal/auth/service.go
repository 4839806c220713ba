package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// TokenIssuer はトークンの発行に必要なインターフェース。
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Service は登録・ログインのサービス層。
type Service struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, tokens TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Result は登録・ログイン成功時に返す認証結果。
type Result struct {
	Token    string
	Username string
	Email    string
}

// Register は新規ユーザーを作成し、トークンを発行する。
// username/emailの重複はリポジトリ層の一意制約でmodel.KindConflictとして返る。
func (s *Service) Register(ctx context.Context, username, email, password string) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &Result{Token: token, Username: user.Username, Email: user.Email}, nil
}

// Login は資格情報を検証し、トークンを発行してログイン時刻を記録する。
// ユーザー不在とパスワード不一致は、存在の有無を漏らさないよう
// 同一メッセージの認証エラーとして返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewAuthenticationError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewAuthenticationError("Invalid credentials")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// ログイン自体は成功しているため記録失敗はログのみに留める
		slog.Error("failed to update last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &Result{Token: token, Username: user.Username, Email: user.Email}, nil
}
