package util

import (
	"errors"
	"time"

	"social-backend/config"

	"github.com/dgrijalva/jwt-go"
)

// ErrTokenExpired 令牌已过期
var ErrTokenExpired = errors.New("令牌已过期")

// TokenClaims 是令牌解析后的内容
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// GenerateToken 为用户签发令牌，有效期取自配置
func GenerateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(config.AppConfig.TokenTTL).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 校验令牌并返回其中的用户ID和过期时间
func ValidateToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("不支持的签名算法")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无效的令牌")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("无效的用户ID")
	}
	exp, _ := claims["exp"].(float64)
	return &TokenClaims{UserID: userID, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}
