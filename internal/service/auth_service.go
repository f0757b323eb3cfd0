package service

import (
	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/config"
	"bugtracker/internal/pkg/jwt"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// AuthService 面向Web界面的Token登录
// REST API用API Key, 这里只服务管理界面那条通路
type AuthService interface {
	Login(req *dto.LoginRequest, ip string) (*dto.LoginResponse, error)
	RefreshToken(refreshToken string) (*dto.LoginResponse, error)
}

type authService struct {
	cfg         *config.AuthConfig
	userService UserService
}

func NewAuthService(cfg *config.AuthConfig, userService UserService) AuthService {
	return &authService{
		cfg:         cfg,
		userService: userService,
	}
}

func (s *authService) Login(req *dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	user, err := s.userService.Authenticate(req.Username, req.Password, ip)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *authService) RefreshToken(refreshToken string) (*dto.LoginResponse, error) {
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != constants.JWTTypeRefresh {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "无效的RefreshToken")
	}

	user := &model.User{
		BaseModel: model.BaseModel{ID: claims.UserID},
		Username:  claims.Username,
		SiteRole:  claims.SiteRole,
	}
	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Username, user.SiteRole)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, user.Username, user.SiteRole)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成RefreshToken失败", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenExpire,
		User: &dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.SiteRole,
		},
	}, nil
}
