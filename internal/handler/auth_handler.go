package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/user"
	"github.com/hitoshi/todoman/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを作成し、トークンを発行する。
	Register(ctx context.Context, username, email, password string) (*auth.Result, error)
	// Login は資格情報を検証し、トークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.Result, error)
}

// ProfileServiceInterface はプロフィール管理サービスのインターフェース。
type ProfileServiceInterface interface {
	// Get は指定ユーザーのプロフィールを返す。
	Get(ctx context.Context, userID string) (*model.User, error)
	// Update はユーザー名・メールアドレスを部分更新する。
	Update(ctx context.Context, userID string, update user.ProfileUpdate) (*model.User, error)
}

// AuthHandler は登録・ログイン・プロフィール管理のHTTPハンドラー。
type AuthHandler struct {
	service        AuthServiceInterface
	profileService ProfileServiceInterface
	decoder        *BodyDecoder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, profileService ProfileServiceInterface, decoder *BodyDecoder) *AuthHandler {
	return &AuthHandler{
		service:        service,
		profileService: profileService,
		decoder:        decoder,
	}
}

// --- リクエスト/レスポンス型 ---

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は登録・ログイン成功時のレスポンス。
type authResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// profileUpdateRequest はプロフィール更新リクエストのボディ。
type profileUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// userResponse はパスワードハッシュを含まないユーザー表現。
type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// toUserResponse はmodel.Userをレスポンス表現へ変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
	}
}

// Register は新規ユーザーを登録する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if appErr := h.decoder.Decode(r, validation.RegisterSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message:  "User registered successfully",
		Token:    result.Token,
		Username: result.Username,
		Email:    result.Email,
	})
}

// Login は資格情報を検証してトークンを返す。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if appErr := h.decoder.Decode(r, validation.LoginSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message:  "Login successful",
		Token:    result.Token,
		Username: result.Username,
		Email:    result.Email,
	})
}

// Logout はログアウトを受け付ける。
// トークンはステートレスのため、破棄はクライアント側で行う。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// GET /api/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateProfile はユーザー名・メールアドレスを部分更新する。
// PUT /api/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if appErr := h.decoder.Decode(r, validation.ProfileUpdateSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	u, err := h.profileService.Update(r.Context(), userID, user.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Profile updated successfully",
		"username": u.Username,
		"email":    u.Email,
	})
}
