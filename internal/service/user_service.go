package service

import (
	"errors"

	"go.uber.org/zap"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/apikey"
	"bugtracker/internal/pkg/crypto"
	"bugtracker/internal/pkg/logger"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// API key写入撞唯一索引后的最大重试次数
// 26^24的空间里实际撞上的概率可以忽略, 这里只是兜底
const maxAPIKeyAttempts = 10

type UserService interface {
	Register(req *dto.RegisterRequest, ip string) (*dto.UserResponse, error)
	Authenticate(username, password, ip string) (*model.User, error)
	RotateAPIKey(actor *model.User, targetID int64) (string, error)
	ResolveByAPIKey(key string) (*model.User, error)
	GetActor(id int64) (*model.User, error)
	GetUser(id int64) (*dto.UserResponse, error)
	ListUsers(actor *model.User) ([]*dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Register 注册用户, 用户名大小写敏感精确匹配
func (s *userService) Register(req *dto.RegisterRequest, ip string) (*dto.UserResponse, error) {
	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "该用户名已被注册")
	} else if !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "密码哈希失败", err)
	}

	user := &model.User{
		Username: req.Username,
		Password: hash,
		RegIP:    ip,
		LastIP:   ip,
	}
	if err := s.userRepo.Create(user); err != nil {
		// 并发注册同名用户时唯一索引兜底
		if errors.Is(err, pkgErrors.ErrRecordExists) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "该用户名已被注册")
		}
		return nil, err
	}

	logger.Info("用户注册成功", zap.String("username", user.Username), zap.String("ip", ip))
	return toUserResponse(user), nil
}

// Authenticate 校验用户名密码, 成功后刷新最近IP与登录时间
func (s *userService) Authenticate(username, password, ip string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			logger.Info("登录失败, 用户不存在", zap.String("username", username), zap.String("ip", ip))
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(password, user.Password) {
		logger.Info("登录失败, 密码错误", zap.String("username", username), zap.String("ip", ip))
		return nil, pkgErrors.ErrInvalidCredentials
	}

	_ = s.userRepo.UpdateLastSeen(user.ID, ip)
	return user, nil
}

// RotateAPIKey 签发或轮换API Key, 只有本人可以操作自己的key
func (s *userService) RotateAPIKey(actor *model.User, targetID int64) (string, error) {
	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return "", pkgErrors.ErrUserNotFound
		}
		return "", err
	}
	if actor.ID != targetID {
		logger.Info("拒绝轮换他人API Key",
			zap.String("actor", actor.Username), zap.Int64("target_id", targetID))
		return "", pkgErrors.ErrForbidden
	}

	for i := 0; i < maxAPIKeyAttempts; i++ {
		key, err := apikey.Generate()
		if err != nil {
			return "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成API Key失败", err)
		}
		err = s.userRepo.UpdateAPIKey(targetID, key)
		if err == nil {
			logger.Info("API Key已轮换", zap.String("username", actor.Username))
			return key, nil
		}
		if !errors.Is(err, pkgErrors.ErrRecordExists) {
			return "", err
		}
	}
	return "", pkgErrors.New(pkgErrors.CodeInternalError, "API Key多次冲突, 放弃")
}

// ResolveByAPIKey 按key解析调用者
// 空串和字面量"None"都按缺失处理, 绝不能解析成匿名放行
func (s *userService) ResolveByAPIKey(key string) (*model.User, error) {
	if key == "" || key == constants.APIKeyNone {
		return nil, pkgErrors.ErrInvalidAPIKey
	}
	user, err := s.userRepo.FindByAPIKey(key)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrInvalidAPIKey
		}
		return nil, err
	}
	return user, nil
}

// GetActor 认证中间件用, 按id取完整用户模型
func (s *userService) GetActor(id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(id int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

// ListUsers 全量用户列表, 仅站点Admin
func (s *userService) ListUsers(actor *model.User) ([]*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		logger.Info("拒绝访问用户列表", zap.String("actor", actor.Username))
		return nil, pkgErrors.ErrAdminOnly
	}
	users, err := s.userRepo.ListAll()
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		responses[i] = toUserResponse(u)
	}
	return responses, nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.SiteRole,
	}
}
