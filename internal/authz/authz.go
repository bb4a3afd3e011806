// Package authz 角色能力表：角色 → 允许的操作集合。
// 路由层通过 middleware.RequirePermission 检查能力，
// 数据范围（本院系、本班级、任课科目）由 Service 层按角色进一步收窄。
package authz

import "campus-attendance/internal/model"

// Permission 操作能力
type Permission string

const (
	// 考勤
	AttendanceMark   Permission = "attendance:mark"
	AttendanceEdit   Permission = "attendance:edit"
	AttendanceView   Permission = "attendance:view" // 按角色范围查看
	AttendanceFilter Permission = "attendance:filter"
	AttendanceExport Permission = "attendance:export"
	AttendanceSelf   Permission = "attendance:self" // 查看本人记录

	// 报表
	ReportStudent     Permission = "report:student"
	ReportClass       Permission = "report:class"
	ReportDepartment  Permission = "report:department"
	ReportInstitution Permission = "report:institution"
	ReportTeacher     Permission = "report:teacher"
	ReportNotify      Permission = "report:notify"

	// 基础数据
	UserList         Permission = "user:list"
	UserManage       Permission = "user:manage"
	DepartmentManage Permission = "department:manage"
	ClassManage      Permission = "class:manage"
	SubjectManage    Permission = "subject:manage"
	AssignmentManage Permission = "assignment:manage"
	EnrollmentManage Permission = "enrollment:manage"
	TermManage       Permission = "term:manage"
	PolicyManage     Permission = "policy:manage"

	// 审批
	RequestSubmit Permission = "request:submit"
	RequestReview Permission = "request:review"
	LeaveApply    Permission = "leave:apply"
	LeaveReview   Permission = "leave:review"
)

var (
	staffReports = []Permission{ReportStudent, ReportClass}
	// 所有已登录角色均可提交角色申请
	selfService = []Permission{RequestSubmit}

	table = map[model.Role][]Permission{
		model.RolePrincipal: concat(
			[]Permission{AttendanceView, AttendanceEdit, AttendanceFilter, AttendanceExport},
			staffReports,
			[]Permission{ReportDepartment, ReportInstitution, ReportTeacher, ReportNotify},
			[]Permission{UserList, EnrollmentManage, RequestReview, LeaveReview},
			selfService,
		),
		model.RoleHOD: concat(
			[]Permission{AttendanceMark, AttendanceEdit, AttendanceView, AttendanceFilter, AttendanceExport},
			staffReports,
			[]Permission{ReportDepartment, ReportTeacher, ReportNotify},
			[]Permission{UserList, ClassManage, AssignmentManage, EnrollmentManage, RequestReview, LeaveReview},
			selfService,
		),
		model.RoleClassTeacher: concat(
			[]Permission{AttendanceMark, AttendanceEdit, AttendanceView, AttendanceFilter, AttendanceExport},
			staffReports,
			[]Permission{ReportTeacher, ReportNotify, RequestReview, LeaveReview},
			selfService,
		),
		model.RoleTeacher: concat(
			[]Permission{AttendanceMark, AttendanceEdit, AttendanceView, AttendanceFilter, AttendanceExport},
			staffReports,
			[]Permission{ReportTeacher},
			selfService,
		),
		model.RoleStudent: concat([]Permission{AttendanceSelf, ReportStudent, LeaveApply}, selfService),
		model.RolePending: selfService,
	}

	index = buildIndex()
)

func concat(groups ...[]Permission) []Permission {
	var out []Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func buildIndex() map[model.Role]map[Permission]struct{} {
	idx := make(map[model.Role]map[Permission]struct{}, len(table))
	for role, perms := range table {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		idx[role] = set
	}
	return idx
}

// Can 角色是否拥有能力；admin 拥有全部能力
func Can(role model.Role, perm Permission) bool {
	if role == model.RoleAdmin {
		return true
	}
	_, ok := index[role][perm]
	return ok
}

// Permissions 角色的能力列表（GET /auth/me 返回给前端）
func Permissions(role model.Role) []Permission {
	if role == model.RoleAdmin {
		return all()
	}
	out := make([]Permission, len(table[role]))
	copy(out, table[role])
	return out
}

func all() []Permission {
	return []Permission{
		AttendanceMark, AttendanceEdit, AttendanceView, AttendanceFilter, AttendanceExport, AttendanceSelf,
		ReportStudent, ReportClass, ReportDepartment, ReportInstitution, ReportTeacher, ReportNotify,
		UserList, UserManage, DepartmentManage, ClassManage, SubjectManage, AssignmentManage,
		EnrollmentManage, TermManage, PolicyManage,
		RequestSubmit, RequestReview, LeaveApply, LeaveReview,
	}
}
