package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campus-attendance/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const issuer = "campus-attendance"

// Token 类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeFilter  = "filter"
)

// Claims 自定义 JWT 声明
type Claims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
	TokenType    string `json:"token_type"`
	RememberMe   bool   `json:"remember_me,omitempty"` // 仅 refresh token 使用
	jwtv5.RegisteredClaims
}

// FilterClaims 考勤筛选令牌声明
// Criteria 保存筛选参数原文，令牌仅对签发用户有效
type FilterClaims struct {
	UserID    string            `json:"user_id"`
	TokenType string            `json:"token_type"`
	Criteria  map[string]string `json:"criteria"`
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret                  []byte
	accessTokenTTL          time.Duration
	refreshTokenTTLDefault  time.Duration
	refreshTokenTTLRemember time.Duration
	filterTokenTTL          time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	filterTTL := cfg.FilterTokenTTL
	if filterTTL <= 0 {
		filterTTL = 30 * time.Minute
	}
	return &Manager{
		secret:                  []byte(cfg.JWTSecret),
		accessTokenTTL:          cfg.AccessTokenTTL,
		refreshTokenTTLDefault:  cfg.RefreshTokenTTLDefault,
		refreshTokenTTLRemember: cfg.RefreshTokenTTLRemember,
		filterTokenTTL:          filterTTL,
	}
}

// AccessTokenTTL Access Token 有效期
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken 生成 Access Token
func (m *Manager) GenerateAccessToken(userID, role, departmentID string) (string, error) {
	return m.sign(Claims{
		UserID:           userID,
		Role:             role,
		DepartmentID:     departmentID,
		TokenType:        TokenTypeAccess,
		RegisteredClaims: m.registered(m.accessTokenTTL),
	})
}

// GenerateRefreshToken 生成 Refresh Token
// rememberMe 为 true 时使用更长的有效期
func (m *Manager) GenerateRefreshToken(userID, role, departmentID string, rememberMe bool) (string, error) {
	ttl := m.refreshTokenTTLDefault
	if rememberMe {
		ttl = m.refreshTokenTTLRemember
	}
	return m.sign(Claims{
		UserID:           userID,
		Role:             role,
		DepartmentID:     departmentID,
		TokenType:        TokenTypeRefresh,
		RememberMe:       rememberMe,
		RegisteredClaims: m.registered(ttl),
	})
}

// GenerateFilterToken 签发筛选令牌，返回令牌与过期时间
func (m *Manager) GenerateFilterToken(userID string, criteria map[string]string) (string, time.Time, error) {
	rc := m.registered(m.filterTokenTTL)
	token, err := m.sign(FilterClaims{
		UserID:           userID,
		TokenType:        TokenTypeFilter,
		Criteria:         criteria,
		RegisteredClaims: rc,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, rc.ExpiresAt.Time, nil
}

// ParseToken 解析并验证 Access / Refresh Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType == TokenTypeFilter {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseFilterToken 解析筛选令牌
func (m *Manager) ParseFilterToken(tokenString string) (*FilterClaims, error) {
	claims := &FilterClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeFilter {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Manager) registered(ttl time.Duration) jwtv5.RegisteredClaims {
	now := time.Now()
	return jwtv5.RegisteredClaims{
		ID:        uuid.New().String(),
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}
}

func (m *Manager) sign(claims jwtv5.Claims) (string, error) {
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string, claims jwtv5.Claims) error {
	token, err := jwtv5.ParseWithClaims(tokenString, claims, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
