package handler

import (
	"go.uber.org/zap"

	"campus-attendance/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth              *AuthHandler
	User              *UserHandler
	Department        *DepartmentHandler
	Class             *ClassHandler
	Subject           *SubjectHandler
	Assignment        *AssignmentHandler
	Enrollment        *EnrollmentHandler
	EnrollmentRequest *EnrollmentRequestHandler
	Attendance        *AttendanceHandler
	Report            *ReportHandler
	Leave             *LeaveHandler
	Notification      *NotificationHandler
	Term              *TermHandler
	Policy            *PolicyHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:              NewAuthHandler(svc.Auth),
		User:              NewUserHandler(svc.User),
		Department:        NewDepartmentHandler(svc.Department),
		Class:             NewClassHandler(svc.Class),
		Subject:           NewSubjectHandler(svc.Subject),
		Assignment:        NewAssignmentHandler(svc.Assignment),
		Enrollment:        NewEnrollmentHandler(svc.Enrollment),
		EnrollmentRequest: NewEnrollmentRequestHandler(svc.EnrollmentRequest),
		Attendance:        NewAttendanceHandler(svc.Attendance, svc.Export, logger),
		Report:            NewReportHandler(svc.Report, svc.Export, logger),
		Leave:             NewLeaveHandler(svc.Leave),
		Notification:      NewNotificationHandler(svc.Notification),
		Term:              NewTermHandler(svc.Term),
		Policy:            NewPolicyHandler(svc.Policy),
	}
}
