package model

import "strings"

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePrincipal    Role = "principal"
	RoleHOD          Role = "hod"
	RoleTeacher      Role = "teacher"
	RoleClassTeacher Role = "class_teacher"
	RoleStudent      Role = "student"
	// RolePending 已注册但角色申请尚未获批
	RolePending Role = "pending"
)

var roleLabels = map[Role]string{
	RoleAdmin:        "Admin",
	RolePrincipal:    "Principal",
	RoleHOD:          "HOD",
	RoleTeacher:      "Teacher",
	RoleClassTeacher: "Class Teacher",
	RoleStudent:      "Student",
	RolePending:      "Pending",
}

// ParseRole 解析角色，兼容 "Class Teacher" 这类展示写法
func ParseRole(s string) (Role, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	r := Role(norm)
	if _, ok := roleLabels[r]; !ok {
		return "", false
	}
	return r, true
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label 展示名称
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// IsTeaching 任课教师或班主任
func (r Role) IsTeaching() bool {
	return r == RoleTeacher || r == RoleClassTeacher
}

// Requestable 可通过角色申请获得的角色
func (r Role) Requestable() bool {
	switch r {
	case RoleHOD, RoleTeacher, RoleClassTeacher, RoleStudent:
		return true
	}
	return false
}
