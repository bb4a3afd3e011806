package service

import (
	"go.uber.org/zap"

	"campus-attendance/config"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/jwt"
	"campus-attendance/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth              AuthService
	User              UserService
	Department        DepartmentService
	Class             ClassService
	Subject           SubjectService
	Assignment        AssignmentService
	Enrollment        EnrollmentService
	EnrollmentRequest EnrollmentRequestService
	Attendance        AttendanceService
	Report            ReportService
	Export            ExportService
	Leave             LeaveService
	Notification      NotificationService
	Term              TermService
	Policy            PolicyService
}

// NewService 创建 Service 聚合；m 可为 nil
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:              NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:              NewUserService(repo, logger),
		Department:        NewDepartmentService(repo, logger),
		Class:             NewClassService(repo, logger),
		Subject:           NewSubjectService(repo, logger),
		Assignment:        NewAssignmentService(repo, logger),
		Enrollment:        NewEnrollmentService(repo, logger),
		EnrollmentRequest: NewEnrollmentRequestService(repo, notifier, logger),
		Attendance:        NewAttendanceService(cfg, repo, jwtMgr, notifier, m, logger),
		Report:            NewReportService(cfg, repo, notifier, logger),
		Export:            NewExportService(logger),
		Leave:             NewLeaveService(repo, notifier, logger),
		Notification:      NewNotificationService(repo, logger),
		Term:              NewTermService(repo, logger),
		Policy:            NewPolicyService(cfg, repo, logger),
	}
}
