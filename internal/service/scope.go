package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/pkg/sqlfilter"
	"campus-attendance/pkg/validate"
)

// ── 访问范围错误 ──

var (
	ErrForbidden   = errors.New("无权访问该资源")
	ErrRolePending = errors.New("角色尚未审批，暂无考勤访问权限")
)

// Actor 当前请求的调用者
type Actor struct {
	UserID       string
	Role         model.Role
	DepartmentID string
}

// teacherScopeSQL 任课教师可见：存在覆盖 (班级, 科目) 的有效任课
const teacherScopeSQL = "SELECT 1 FROM teacher_assignments ta WHERE ta.teacher_id = ? " +
	"AND ta.subject_code = a.subject_code AND ta.class_id = a.class_id AND ta.is_active"

// hodScopeSQL 系主任可见：班级属于本院系
const hodScopeSQL = "SELECT 1 FROM classes dc WHERE dc.class_id = a.class_id AND dc.department_id = ?"

// scopeFilter 按角色生成考勤可见范围谓词
func scopeFilter(actor Actor) (*sqlfilter.Filter, error) {
	f := sqlfilter.New()
	switch actor.Role {
	case model.RoleStudent:
		f.Eq("a.student_id", actor.UserID)
	case model.RoleTeacher, model.RoleClassTeacher:
		f.Exists(teacherScopeSQL, actor.UserID)
	case model.RoleHOD:
		if actor.DepartmentID == "" {
			f.In("a.class_id")
		} else {
			f.Exists(hodScopeSQL, actor.DepartmentID)
		}
	case model.RolePrincipal, model.RoleAdmin:
	default:
		return nil, ErrRolePending
	}
	return f, nil
}

// criteriaFilter 可选筛选条件；缺省或无法解析的值不产生谓词
func criteriaFilter(c dto.AttendanceFilter) *sqlfilter.Filter {
	f := sqlfilter.New()
	if id, ok := parseUUID(c.StudentID); ok {
		f.Eq("a.student_id", id)
	}
	if code := strings.TrimSpace(c.SubjectCode); code != "" {
		f.Eq("a.subject_code", code)
	}
	if id, ok := parseUUID(c.ClassID); ok {
		f.Eq("a.class_id", id)
	}
	if sem, ok := parseSemester(c.Semester); ok {
		f.Eq("a.semester", sem)
	}
	if year := strings.TrimSpace(c.AcademicYear); validate.IsAcademicYear(year) {
		f.Eq("a.academic_year", year)
	}
	if d, ok := parseDate(c.FromDate); ok {
		f.Gte("a.attendance_date", d.Format(model.DateLayout))
	}
	if d, ok := parseDate(c.ToDate); ok {
		f.Lte("a.attendance_date", d.Format(model.DateLayout))
	}
	if st, ok := model.ParseStatus(c.Status); ok {
		f.Eq("a.status", string(st))
	}
	return f
}

// scopedCriteria 范围谓词 + 筛选谓词
func scopedCriteria(actor Actor, c dto.AttendanceFilter) (*sqlfilter.Filter, error) {
	scope, err := scopeFilter(actor)
	if err != nil {
		return nil, err
	}
	return scope.Merge(criteriaFilter(c)), nil
}

// ── 宽松解析 ──

func parseUUID(s string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func parseSemester(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 6 {
		return 0, false
	}
	return n, true
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func parseThreshold(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// parseMonth YYYY-MM，返回当月首日与末日
func parseMonth(s string) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 1, -1), true
}

// ── 归属检查 ──

// inClassSubjectScope 调用者能否操作 (班级, 科目)
func (s *attendanceService) inClassSubjectScope(ctx context.Context, actor Actor, class *model.Class, subjectCode string) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin, model.RolePrincipal:
		return true, nil
	case model.RoleHOD:
		return actor.DepartmentID != "" && class.DepartmentID == actor.DepartmentID, nil
	case model.RoleTeacher, model.RoleClassTeacher:
		return s.repo.Assignment.HasScope(ctx, actor.UserID, class.ClassID, subjectCode)
	}
	return false, nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
