package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User              UserRepository
	Department        DepartmentRepository
	Class             ClassRepository
	Subject           SubjectRepository
	Enrollment        EnrollmentRepository
	Assignment        AssignmentRepository
	Attendance        AttendanceRepository
	EnrollmentRequest EnrollmentRequestRepository
	Leave             LeaveRepository
	Term              TermRepository
	Policy            PolicyRepository
	Notification      NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                db,
		User:              NewUserRepo(db),
		Department:        NewDepartmentRepo(db),
		Class:             NewClassRepo(db),
		Subject:           NewSubjectRepo(db),
		Enrollment:        NewEnrollmentRepo(db),
		Assignment:        NewAssignmentRepo(db),
		Attendance:        NewAttendanceRepo(db),
		EnrollmentRequest: NewEnrollmentRequestRepo(db),
		Leave:             NewLeaveRepo(db),
		Term:              NewTermRepo(db),
		Policy:            NewPolicyRepo(db),
		Notification:      NewNotificationRepo(db),
	}
}

// Transaction 在同一事务中执行 fn，fn 返回错误时回滚
// 未绑定数据库（单元测试中手工组装的 Repository）时直接在当前实例上执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
