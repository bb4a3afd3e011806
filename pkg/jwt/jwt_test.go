package jwt

import (
	"errors"
	"testing"
	"time"

	"campus-attendance/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		FilterTokenTTL:          30 * time.Minute,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "hod", "dept-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.Role != "hod" {
		t.Errorf("期望 Role=hod，实际=%s", claims.Role)
	}
	if claims.DepartmentID != "dept-1" {
		t.Errorf("期望 DepartmentID=dept-1，实际=%s", claims.DepartmentID)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
	if claims.Issuer != "campus-attendance" {
		t.Errorf("期望 Issuer=campus-attendance，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}
}

func TestGenerateRefreshToken_RememberMe(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "student", "dept-1", true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	if !claims.RememberMe {
		t.Error("期望 RememberMe=true")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("RememberMe RefreshToken TTL 期望约7天，实际=%v", ttl)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken("user-1", "admin", "")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: 1 * time.Millisecond,
	})

	token, _ := m.GenerateAccessToken("user-1", "admin", "")
	time.Sleep(10 * time.Millisecond)

	_, err := m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestFilterToken_RoundTrip(t *testing.T) {
	m := newTestManager()
	criteria := map[string]string{
		"subject_code":    "CS101",
		"threshold":       "75",
		"comparison_type": "below",
	}

	token, expiresAt, err := m.GenerateFilterToken("teacher-1", criteria)
	if err != nil {
		t.Fatalf("GenerateFilterToken 失败: %v", err)
	}
	if time.Until(expiresAt) < 29*time.Minute {
		t.Errorf("筛选令牌有效期期望约30分钟，实际=%v", time.Until(expiresAt))
	}

	claims, err := m.ParseFilterToken(token)
	if err != nil {
		t.Fatalf("ParseFilterToken 失败: %v", err)
	}
	if claims.UserID != "teacher-1" {
		t.Errorf("期望 UserID=teacher-1，实际=%s", claims.UserID)
	}
	if claims.Criteria["subject_code"] != "CS101" || claims.Criteria["comparison_type"] != "below" {
		t.Errorf("筛选条件未完整保留: %v", claims.Criteria)
	}
}

func TestFilterToken_NotAcceptedAsAccessToken(t *testing.T) {
	m := newTestManager()

	token, _, _ := m.GenerateFilterToken("teacher-1", map[string]string{})
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("筛选令牌不应作为访问令牌使用，实际: %v", err)
	}

	access, _ := m.GenerateAccessToken("teacher-1", "teacher", "dept-1")
	if _, err := m.ParseFilterToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("访问令牌不应作为筛选令牌使用，实际: %v", err)
	}
}
