package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ankurMishraDev/GenX-AI/pkg/auth"
	pkgerrors "github.com/ankurMishraDev/GenX-AI/pkg/errors"
)

// SubjectKey 令牌主体在 gin.Context 中的键
const SubjectKey = "auth.subject"

// HandshakeAuth 校验 Authorization: Bearer 或 ?token= 中的令牌
// 校验通过后将令牌主体写入上下文
func HandshakeAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.GetHeader("Authorization"), c.Query("token"))

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				message = "token required"
			case errors.Is(err, auth.ErrExpiredToken):
				message = "token expired"
			}
			abortWithError(c, pkgerrors.NewUnauthorized(message), nil)
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// Subject 返回已校验令牌的主体，未鉴权时为空
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}
