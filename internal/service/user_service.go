package service

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"time"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/storage"
	"social-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength  = 6
	suggestionSample   = 10
	suggestionCount    = 4
	bcryptCost         = 10
	passwordLengthHint = "Password must be at least 6 characters long"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SignupInput 注册参数
type SignupInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// UpdateProfileInput 资料更新参数，空字段表示保持原值
type UpdateProfileInput struct {
	FullName        string
	Email           string
	Username        string
	CurrentPassword string
	NewPassword     string
	Bio             string
	Link            string
	ProfileImg      string
	CoverImg        string
}

// UserServiceInterface 定义了用户服务的接口
type UserServiceInterface interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetProfile(ctx context.Context, username string) (*model.User, error)
	Suggested(ctx context.Context, actorID string) ([]*model.User, error)
	UpdateProfile(ctx context.Context, actorID string, in UpdateProfileInput) (*model.User, error)
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo  interfaces.UserRepository
	media     storage.MediaStore
	mailer    Mailer
	blacklist TokenBlacklist
}

// NewUserService 创建一个新的 UserService 实例，mailer 可以为 nil
func NewUserService(userRepo interfaces.UserRepository, media storage.MediaStore, mailer Mailer, blacklist TokenBlacklist) *UserService {
	if blacklist == nil {
		blacklist = NewMemoryTokenBlacklist()
	}
	return &UserService{
		userRepo:  userRepo,
		media:     media,
		mailer:    mailer,
		blacklist: blacklist,
	}
}

// Signup 注册新用户
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, errors.New(errors.ErrValidation, "All fields are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, errors.New(errors.ErrValidation, "Invalid email format")
	}
	if err := s.ensureAvailable(ctx, "", in.Username, in.Email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, errors.New(errors.ErrWeakPassword, passwordLengthHint)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	user := &model.User{
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.New(errors.ErrUserExists, "Username or email is already taken")
		}
		return nil, errors.Store("创建用户失败", err)
	}
	util.Logger.Info("用户注册成功", util.UserID(user.ID), zap.String("username", user.Username))

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(user.Email, user.Username); err != nil {
			util.Logger.Error("发送欢迎邮件失败", zap.Error(err))
		}
	}
	return publicUser(user), nil
}

// ensureAvailable 检查用户名和邮箱是否被他人占用
func (s *UserService) ensureAvailable(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		existing, err := s.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return errors.Store("查询用户失败", err)
		}
		if existing != nil && existing.ID != selfID {
			return errors.New(errors.ErrUserExists, "Username is already taken")
		}
	}
	if email != "" {
		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return errors.Store("查询用户失败", err)
		}
		if existing != nil && existing.ID != selfID {
			return errors.New(errors.ErrEmailExists, "Email is already taken")
		}
	}
	return nil
}

// Login 用户名密码登录
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		util.Logger.Info("用户登录失败", zap.String("username", username))
		return nil, errors.New(errors.ErrInvalidCredentials, "Invalid username or password")
	}

	util.Logger.Info("用户登录成功", util.UserID(user.ID))
	return publicUser(user), nil
}

// Logout 把令牌加入黑名单直到其过期
func (s *UserService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return nil
	}
	if err := s.blacklist.Add(ctx, token, expiresAt); err != nil {
		return errors.Wrap(errors.ErrCache, "注销令牌失败", err)
	}
	return nil
}

// IsTokenBlacklisted 检查令牌是否已注销
func (s *UserService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.blacklist.Contains(ctx, token)
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	return publicUser(user), nil
}

// GetProfile 通过用户名获取公开资料
func (s *UserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	return publicUser(user), nil
}

// Suggested 随机推荐尚未关注的用户
func (s *UserService) Suggested(ctx context.Context, actorID string) ([]*model.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if actor == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}

	sample, err := s.userRepo.Sample(ctx, actorID, suggestionSample)
	if err != nil {
		return nil, errors.Store("抽样用户失败", err)
	}
	suggested := make([]*model.User, 0, suggestionCount)
	for _, u := range sample {
		if u.ID == actorID || actor.IsFollowing(u.ID) {
			continue
		}
		suggested = append(suggested, publicUser(u))
		if len(suggested) == suggestionCount {
			break
		}
	}
	return suggested, nil
}

// UpdateProfile 更新资料、密码和头像封面
func (s *UserService) UpdateProfile(ctx context.Context, actorID string, in UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}

	if (in.NewPassword == "") != (in.CurrentPassword == "") {
		return nil, errors.New(errors.ErrValidation, "Please provide both current password and new password")
	}
	if in.NewPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return nil, errors.New(errors.ErrValidation, "Current password is incorrect")
		}
		if len(in.NewPassword) < minPasswordLength {
			return nil, errors.New(errors.ErrWeakPassword, passwordLengthHint)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcryptCost)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
		}
		user.PasswordHash = string(hashed)
	}

	if in.Email != "" && !emailPattern.MatchString(in.Email) {
		return nil, errors.New(errors.ErrValidation, "Invalid email format")
	}
	var username, email string
	if in.Username != "" && in.Username != user.Username {
		username = in.Username
	}
	if in.Email != "" && in.Email != user.Email {
		email = in.Email
	}
	if err := s.ensureAvailable(ctx, user.ID, username, email); err != nil {
		return nil, err
	}

	// 新图全部上传成功后才替换，旧图在资料保存后再删除
	var uploaded, replaced []string
	if in.ProfileImg != "" {
		url, err := s.uploadImage(ctx, in.ProfileImg)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, url)
		replaced = append(replaced, user.ProfileImg)
		user.ProfileImg = url
	}
	if in.CoverImg != "" {
		url, err := s.uploadImage(ctx, in.CoverImg)
		if err != nil {
			s.destroyImages(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, url)
		replaced = append(replaced, user.CoverImg)
		user.CoverImg = url
	}

	user.FullName = firstNonEmpty(in.FullName, user.FullName)
	user.Email = firstNonEmpty(in.Email, user.Email)
	user.Username = firstNonEmpty(in.Username, user.Username)
	user.Bio = firstNonEmpty(in.Bio, user.Bio)
	user.Link = firstNonEmpty(in.Link, user.Link)

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.destroyImages(ctx, uploaded)
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.New(errors.ErrUserExists, "Username or email is already taken")
		}
		return nil, errors.Store("更新用户失败", err)
	}
	s.destroyImages(ctx, replaced)
	util.Logger.Info("用户资料已更新", util.UserID(user.ID))
	return publicUser(user), nil
}

// uploadImage 上传 data URL 图片，失败时中止更新
func (s *UserService) uploadImage(ctx context.Context, dataURL string) (string, error) {
	if s.media == nil {
		return "", errors.New(errors.ErrMedia, "媒体存储未配置")
	}
	url, err := storage.UploadDataURL(ctx, s.media, dataURL)
	if err != nil {
		if stderrors.Is(err, util.ErrInvalidDataURL) {
			return "", errors.New(errors.ErrValidation, "Invalid image")
		}
		return "", errors.Wrap(errors.ErrMedia, "上传图片失败", err)
	}
	return url, nil
}

// destroyImages 尽力删除图片，失败只记日志
func (s *UserService) destroyImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.media.Destroy(ctx, util.MediaToken(url)); err != nil {
			util.Logger.Warn("删除图片失败", zap.String("url", url), zap.Error(err))
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
