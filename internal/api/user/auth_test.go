package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-backend/config"
	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService 是 UserServiceInterface 的模拟实现
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, in service.SignupInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	args := m.Called(ctx, token, expiresAt)
	return args.Error(0)
}

func (m *MockUserService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Suggested(ctx context.Context, actorID string) ([]*model.User, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actorID string, in service.UpdateProfileInput) (*model.User, error) {
	args := m.Called(ctx, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// 确保 MockUserService 实现了 UserServiceInterface
var _ service.UserServiceInterface = (*MockUserService)(nil)

func setup() {
	gin.SetMode(gin.TestMode)
	util.RegisterValidators()
	config.AppConfig.JWTSecret = "handler-test-secret"
	config.AppConfig.TokenTTL = time.Hour
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

// TestSignup 测试注册处理器
func TestSignup(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)
	router := gin.New()
	router.POST("/signup", handler.Signup)

	input := service.SignupInput{FullName: "Alice", Username: "alice", Email: "alice@example.com", Password: "secret1"}
	mockService.On("Signup", mock.Anything, input).
		Return(&model.User{ID: "u1", Username: "alice", FullName: "Alice"}, nil).Once()

	w := postJSON(router, "/signup", `{"fullName":"Alice","username":"alice","email":"alice@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"_id":"u1"`)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	claims, err := util.ValidateToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	// 模拟注册失败（用户名已存在）
	mockService.On("Signup", mock.Anything, input).
		Return(nil, errors.New(errors.ErrUserExists, "Username is already taken")).Once()

	w = postJSON(router, "/signup", `{"fullName":"Alice","username":"alice","email":"alice@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username is already taken")
	assert.Nil(t, sessionCookie(w))
	mockService.AssertExpectations(t)
}

func TestSignupRejectsMalformedUsername(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	router := gin.New()
	router.POST("/signup", NewAuthHandler(mockService).Signup)

	w := postJSON(router, "/signup", `{"fullName":"A","username":"no spaces!","email":"a@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

// TestLogin 测试登录处理器
func TestLogin(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	router := gin.New()
	router.POST("/login", NewAuthHandler(mockService).Login)

	mockService.On("Login", mock.Anything, "alice", "secret1").Return(&model.User{ID: "u1", Username: "alice"}, nil)
	mockService.On("Login", mock.Anything, "alice", "wrong").
		Return(nil, errors.New(errors.ErrInvalidCredentials, "Invalid username or password"))

	w := postJSON(router, "/login", `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "alice", body.User.Username)
	require.NotNil(t, sessionCookie(w))

	w = postJSON(router, "/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")

	w = postJSON(router, "/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogoutRevokesToken(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	router := gin.New()
	router.POST("/logout", NewAuthHandler(mockService).Logout)

	token, err := util.GenerateToken("u1")
	require.NoError(t, err)
	mockService.On("Logout", mock.Anything, token, mock.AnythingOfType("time.Time")).Return(nil)

	req, _ := http.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
	mockService.AssertExpectations(t)
}

func TestLogoutWithoutTokenStillSucceeds(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	router := gin.New()
	router.POST("/logout", NewAuthHandler(mockService).Logout)

	w := postJSON(router, "/logout", "")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything, mock.Anything)
}

func TestMe(t *testing.T) {
	setup()
	mockService := new(MockUserService)
	router := gin.New()
	router.GET("/me", func(c *gin.Context) { c.Set("user_id", "u1") }, NewAuthHandler(mockService).Me)

	mockService.On("GetUserByID", mock.Anything, "u1").Return(&model.User{ID: "u1", Username: "alice", PasswordHash: "hash"}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "hash")
}
