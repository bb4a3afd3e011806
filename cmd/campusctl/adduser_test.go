package main

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"campus-attendance/internal/model"
)

func TestBuildUser_Admin(t *testing.T) {
	user, err := buildUser(&addUserOptions{
		name:     " Root ",
		email:    " Admin@Campus.EDU ",
		password: "Passw0rd!",
		role:     "admin",
	})
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if user.Email != "admin@campus.edu" {
		t.Errorf("期望邮箱小写去空格，实际: %q", user.Email)
	}
	if user.Name != "Root" || user.Role != model.RoleAdmin || !user.MustChangePassword {
		t.Errorf("用户字段错误: %+v", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Passw0rd!")); err != nil {
		t.Errorf("密码哈希不匹配: %v", err)
	}
	if user.DepartmentID != nil {
		t.Errorf("未指定院系时期望 nil，实际: %v", *user.DepartmentID)
	}
}

func TestBuildUser_DisplayRoleAndDepartment(t *testing.T) {
	user, err := buildUser(&addUserOptions{
		name:         "CT",
		email:        "ct@campus.edu",
		password:     "Passw0rd!",
		role:         "Class Teacher",
		departmentID: "dept-1",
	})
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if user.Role != model.RoleClassTeacher {
		t.Errorf("期望 class_teacher，实际: %s", user.Role)
	}
	if user.DepartmentID == nil || *user.DepartmentID != "dept-1" {
		t.Errorf("院系未设置")
	}
}

func TestBuildUser_Rejects(t *testing.T) {
	cases := map[string]*addUserOptions{
		"邮箱无效": {email: "nobody", password: "Passw0rd!", role: "admin"},
		"密码过短": {email: "a@b.c", password: "short", role: "admin"},
		"未知角色": {email: "a@b.c", password: "Passw0rd!", role: "dean"},
		"待审角色": {email: "a@b.c", password: "Passw0rd!", role: "pending"},
	}
	for name, opts := range cases {
		if _, err := buildUser(opts); err == nil {
			t.Errorf("%s: 期望返回错误", name)
		}
	}
}
