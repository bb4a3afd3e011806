package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uk_users_email"}
	wrapped := fmt.Errorf("创建用户失败: %w", pgErr)

	if !IsUniqueViolation(wrapped) {
		t.Error("包装后的 23505 应识别为唯一约束冲突")
	}
	if IsForeignKeyViolation(wrapped) {
		t.Error("23505 不应识别为外键冲突")
	}
	if got := ConstraintName(wrapped); got != "uk_users_email" {
		t.Errorf("期望约束名 uk_users_email，实际=%s", got)
	}
}

func TestIsUniqueViolation_PlainError(t *testing.T) {
	if IsUniqueViolation(errors.New("boom")) {
		t.Error("普通错误不应识别为唯一约束冲突")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil 不应识别为唯一约束冲突")
	}
	if ConstraintName(nil) != "" {
		t.Error("nil 的约束名应为空")
	}
}
