package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
)

// ── 请假模块业务错误 ──

var (
	ErrLeaveNotFound        = errors.New("请假申请不存在")
	ErrLeaveDateRange       = errors.New("请假结束日期不能早于开始日期")
	ErrLeaveAlreadyDecided  = errors.New("该请假已审批，不能重复处理")
	ErrLeaveReviewForbidden = errors.New("无权审批该请假")
)

// LeaveService 请假业务接口
// 审批：本班班主任、本院系系主任或管理员
type LeaveService interface {
	Apply(ctx context.Context, req *dto.ApplyLeaveRequest, studentID string) (*dto.LeaveResponse, error)
	Mine(ctx context.Context, studentID string) ([]dto.LeaveResponse, error)
	ListPending(ctx context.Context, actor Actor) ([]dto.LeaveResponse, error)
	Approve(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.LeaveResponse, error)
	Reject(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.LeaveResponse, error)
}

type leaveService struct {
	repo     *repository.Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, notifier notify.Notifier, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── Apply ──────────────────────

func (s *leaveService) Apply(ctx context.Context, req *dto.ApplyLeaveRequest, studentID string) (*dto.LeaveResponse, error) {
	from, ok := parseDate(req.FromDate)
	if !ok {
		return nil, ErrInvalidDate
	}
	to, ok := parseDate(req.ToDate)
	if !ok {
		return nil, ErrInvalidDate
	}
	if to.Before(from) {
		return nil, ErrLeaveDateRange
	}

	enrollment, err := s.repo.Enrollment.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEnrollment
		}
		s.logger.Error("查询在读学籍失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	leave := &model.LeaveApplication{
		StudentID: studentID,
		ClassID:   enrollment.ClassID,
		FromDate:  from,
		ToDate:    to,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    model.ReviewPending,
	}
	leave.CreatedBy = &studentID
	leave.UpdatedBy = &studentID

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.Error(err))
		return nil, err
	}

	resp := toLeaveResponse(leave)
	return &resp, nil
}

// ────────────────────── Mine / ListPending ──────────────────────

func (s *leaveService) Mine(ctx context.Context, studentID string) ([]dto.LeaveResponse, error) {
	list, err := s.repo.Leave.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.Error(err))
		return nil, err
	}
	return toLeaveList(list), nil
}

func (s *leaveService) ListPending(ctx context.Context, actor Actor) ([]dto.LeaveResponse, error) {
	var (
		classIDs []string
		deptID   string
	)
	switch actor.Role {
	case model.RoleAdmin, model.RolePrincipal:
	case model.RoleHOD:
		if actor.DepartmentID == "" {
			return []dto.LeaveResponse{}, nil
		}
		deptID = actor.DepartmentID
	case model.RoleClassTeacher, model.RoleTeacher:
		ids, err := s.repo.Assignment.ClassTeacherClassIDs(ctx, actor.UserID)
		if err != nil {
			s.logger.Error("查询班主任班级失败", zap.Error(err))
			return nil, err
		}
		classIDs = append([]string{}, ids...)
	default:
		return nil, ErrForbidden
	}

	list, err := s.repo.Leave.ListPending(ctx, classIDs, deptID)
	if err != nil {
		s.logger.Error("查询待审批请假失败", zap.Error(err))
		return nil, err
	}
	return toLeaveList(list), nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *leaveService) Approve(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.LeaveResponse, error) {
	return s.decide(ctx, id, req.Note, actor, true)
}

func (s *leaveService) Reject(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.LeaveResponse, error) {
	return s.decide(ctx, id, req.Note, actor, false)
}

func (s *leaveService) decide(ctx context.Context, id, note string, actor Actor, approve bool) (*dto.LeaveResponse, error) {
	leave, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		s.logger.Error("查询请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if leave.Status != model.ReviewPending {
		return nil, ErrLeaveAlreadyDecided
	}

	allowed, err := s.canReview(ctx, actor, leave)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrLeaveReviewForbidden
	}

	status := model.ReviewRejected
	if approve {
		status = model.ReviewApproved
	}
	updated, err := s.repo.Leave.UpdateDecision(ctx, leave.LeaveID, status, actor.UserID, note)
	if err != nil {
		s.logger.Error("审批请假失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !updated {
		return nil, ErrLeaveAlreadyDecided
	}

	from := leave.FromDate.Format(model.DateLayout)
	to := leave.ToDate.Format(model.DateLayout)
	if err := s.notifier.Notify(ctx, notify.LeaveDecided(leave.StudentID, from, to, approve, note)); err != nil {
		s.logger.Warn("请假审批通知投递失败", zap.String("leave_id", leave.LeaveID), zap.Error(err))
	}

	leave.Status = status
	leave.ReviewerID = strPtr(actor.UserID)
	leave.ReviewNote = note
	resp := toLeaveResponse(leave)
	return &resp, nil
}

func (s *leaveService) canReview(ctx context.Context, actor Actor, leave *model.LeaveApplication) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleHOD:
		if actor.DepartmentID == "" {
			return false, nil
		}
		class, err := s.repo.Class.GetByID(ctx, leave.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			s.logger.Error("查询班级失败", zap.Error(err))
			return false, err
		}
		return class.DepartmentID == actor.DepartmentID, nil
	case model.RoleClassTeacher, model.RoleTeacher:
		ok, err := s.repo.Assignment.IsClassTeacher(ctx, actor.UserID, leave.ClassID)
		if err != nil {
			s.logger.Error("查询班主任身份失败", zap.Error(err))
			return false, err
		}
		return ok, nil
	}
	return false, nil
}

// ── 转换 ──

func toLeaveList(list []model.LeaveApplication) []dto.LeaveResponse {
	result := make([]dto.LeaveResponse, 0, len(list))
	for i := range list {
		result = append(result, toLeaveResponse(&list[i]))
	}
	return result
}

func toLeaveResponse(l *model.LeaveApplication) dto.LeaveResponse {
	resp := dto.LeaveResponse{
		ID:         l.LeaveID,
		StudentID:  l.StudentID,
		ClassID:    l.ClassID,
		FromDate:   l.FromDate.Format(model.DateLayout),
		ToDate:     l.ToDate.Format(model.DateLayout),
		Reason:     l.Reason,
		Status:     l.Status,
		ReviewerID: deref(l.ReviewerID),
		ReviewedAt: formatTimePtr(l.ReviewedAt),
		ReviewNote: l.ReviewNote,
	}
	if !l.CreatedAt.IsZero() {
		resp.CreatedAt = formatTime(l.CreatedAt)
	}
	if l.Student != nil {
		resp.StudentName = l.Student.Name
	}
	return resp
}
