package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid 表示令牌签名、算法或有效期校验失败。
var ErrTokenInvalid = errors.New("invalid session token")

// AuthService 负责签发与校验会话令牌。
type AuthService struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// Identity 是写入令牌的身份信息。
type Identity struct {
	AccountID          uint
	Role               string
	Email              string
	MustChangePassword bool
}

// SessionToken 封装已签名的令牌及其过期时间。
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenClaims 表示 JWT 中的业务字段，便于中间件读取用户信息。
type TokenClaims struct {
	AccountID          uint   `json:"account_id"`
	Role               string `json:"role"`
	Email              string `json:"email"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
	jwt.RegisteredClaims
}

// NewAuthService 使用服务端密钥构造实例。
func NewAuthService(secret []byte, sessionTTL time.Duration) (*AuthService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if sessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &AuthService{
		secret:     secret,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

// IssueSession 为身份签发一个固定有效期的会话令牌。
func (s *AuthService) IssueSession(identity Identity) (SessionToken, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)

	claims := TokenClaims{
		AccountID:          identity.AccountID,
		Role:               identity.Role,
		Email:              identity.Email,
		MustChangePassword: identity.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.AccountID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign token: %w", err)
	}
	return SessionToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken 解析并验证 JWT，失败时返回包装了 ErrTokenInvalid 的错误。
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token string is empty", ErrTokenInvalid)
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrTokenInvalid)
	}
	if claims.AccountID == 0 || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrTokenInvalid)
	}

	return claims, nil
}
