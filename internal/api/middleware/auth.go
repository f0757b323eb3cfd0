package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bugtracker/internal/model"
	"bugtracker/internal/pkg/jwt"
	"bugtracker/internal/service"
	"bugtracker/pkg/constants"
	"bugtracker/pkg/responses"
)

// ActorKey context里当前请求用户的key
const ActorKey = "actor"

// APIKeyMiddleware API Key认证中间件
// key从query或form的API_KEY参数取, 缺失/"None"/未知一律401
func APIKeyMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query(constants.APIKeyParam)
		if key == "" {
			key = c.PostForm(constants.APIKeyParam)
		}

		user, err := userService.ResolveByAPIKey(key)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ActorKey, user)
		c.Next()
	}
}

// JWTMiddleware JWT认证中间件
func JWTMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			responses.ErrorWithCode(c, 401, "缺少Authorization Header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.ErrorWithCode(c, 401, "Authorization格式错误")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		if claims.Type != constants.JWTTypeAccess {
			responses.ErrorWithCode(c, 401, "无效的Token类型")
			c.Abort()
			return
		}

		// Token签发后用户可能已被改动, 以库里为准
		user, err := userService.GetActor(claims.UserID)
		if err != nil {
			responses.ErrorWithCode(c, 401, "用户不存在")
			c.Abort()
			return
		}

		c.Set(ActorKey, user)
		c.Next()
	}
}

// GetActor 从context取当前请求用户, 认证中间件之后必然存在
func GetActor(c *gin.Context) *model.User {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
