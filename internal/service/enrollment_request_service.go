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
	pkgerrors "campus-attendance/pkg/errors"
)

// ── 角色申请模块业务错误 ──

var (
	ErrRequestNotFound        = errors.New("角色申请不存在")
	ErrRequestPendingExists   = errors.New("已有待审批的角色申请")
	ErrRequestAlreadyDecided  = errors.New("该申请已审批，不能重复处理")
	ErrInvalidRequestedRole   = errors.New("不能申请该角色")
	ErrStudentDetailsRequired = errors.New("申请学生角色需提供班级与学号")
	ErrClassNotInDepartment   = errors.New("班级不属于所选院系")
	ErrReviewForbidden        = errors.New("无权审批该申请")
)

// EnrollmentRequestService 角色申请业务接口
//
// 审批规则：
//   - 校长审批系主任申请
//   - 系主任审批本院系的教师、班主任、学生申请
//   - 班主任审批本班学生申请
//   - 管理员可审批全部
type EnrollmentRequestService interface {
	Submit(ctx context.Context, req *dto.SubmitEnrollmentRequest, userID string) (*dto.EnrollmentRequestResponse, error)
	Mine(ctx context.Context, userID string) ([]dto.EnrollmentRequestResponse, error)
	ListPending(ctx context.Context, actor Actor) ([]dto.EnrollmentRequestResponse, error)
	Approve(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.EnrollmentRequestResponse, error)
	Reject(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.EnrollmentRequestResponse, error)
}

type enrollmentRequestService struct {
	repo     *repository.Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewEnrollmentRequestService 创建 EnrollmentRequestService 实例
func NewEnrollmentRequestService(repo *repository.Repository, notifier notify.Notifier, logger *zap.Logger) EnrollmentRequestService {
	return &enrollmentRequestService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *enrollmentRequestService) Submit(ctx context.Context, req *dto.SubmitEnrollmentRequest, userID string) (*dto.EnrollmentRequestResponse, error) {
	role, ok := model.ParseRole(req.RequestedRole)
	if !ok || !role.Requestable() {
		return nil, ErrInvalidRequestedRole
	}

	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, err
	}

	er := &model.EnrollmentRequest{
		UserID:        userID,
		RequestedRole: role,
		DepartmentID:  req.DepartmentID,
		Status:        model.ReviewPending,
	}

	if role == model.RoleStudent {
		number := strings.TrimSpace(req.EnrollmentNumber)
		if req.ClassID == "" || number == "" {
			return nil, ErrStudentDetailsRequired
		}
		class, err := s.repo.Class.GetByID(ctx, req.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClassNotFound
			}
			s.logger.Error("查询班级失败", zap.Error(err))
			return nil, err
		}
		if class.DepartmentID != req.DepartmentID {
			return nil, ErrClassNotInDepartment
		}
		er.ClassID = strPtr(class.ClassID)
		er.EnrollmentNumber = strPtr(number)
	}

	if _, err := s.repo.EnrollmentRequest.GetPendingByUser(ctx, userID); err == nil {
		return nil, ErrRequestPendingExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询待审批申请失败", zap.Error(err))
		return nil, err
	}

	er.CreatedBy = &userID
	if err := s.repo.EnrollmentRequest.Create(ctx, er); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrRequestPendingExists
		}
		s.logger.Error("创建角色申请失败", zap.Error(err))
		return nil, err
	}

	resp := toEnrollmentRequestResponse(er)
	return &resp, nil
}

// ────────────────────── Listing ──────────────────────

func (s *enrollmentRequestService) Mine(ctx context.Context, userID string) ([]dto.EnrollmentRequestResponse, error) {
	list, err := s.repo.EnrollmentRequest.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询我的申请失败", zap.Error(err))
		return nil, err
	}
	return toEnrollmentRequestList(list), nil
}

func (s *enrollmentRequestService) ListPending(ctx context.Context, actor Actor) ([]dto.EnrollmentRequestResponse, error) {
	var filter repository.RequestFilter
	switch actor.Role {
	case model.RoleAdmin:
	case model.RolePrincipal:
		filter.Roles = []model.Role{model.RoleHOD}
	case model.RoleHOD:
		filter.Roles = []model.Role{model.RoleTeacher, model.RoleClassTeacher, model.RoleStudent}
		filter.DepartmentID = actor.DepartmentID
		if actor.DepartmentID == "" {
			return []dto.EnrollmentRequestResponse{}, nil
		}
	case model.RoleClassTeacher:
		ids, err := s.repo.Assignment.ClassTeacherClassIDs(ctx, actor.UserID)
		if err != nil {
			s.logger.Error("查询班主任班级失败", zap.Error(err))
			return nil, err
		}
		filter.Roles = []model.Role{model.RoleStudent}
		filter.RestrictClasses = true
		filter.ClassIDs = ids
	default:
		return nil, ErrReviewForbidden
	}

	list, err := s.repo.EnrollmentRequest.ListPending(ctx, filter)
	if err != nil {
		s.logger.Error("查询待审批申请失败", zap.Error(err))
		return nil, err
	}
	return toEnrollmentRequestList(list), nil
}

// ────────────────────── Decide ──────────────────────

func (s *enrollmentRequestService) Approve(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.EnrollmentRequestResponse, error) {
	return s.decide(ctx, id, req.Note, actor, true)
}

func (s *enrollmentRequestService) Reject(ctx context.Context, id string, req *dto.ReviewRequest, actor Actor) (*dto.EnrollmentRequestResponse, error) {
	return s.decide(ctx, id, req.Note, actor, false)
}

func (s *enrollmentRequestService) decide(ctx context.Context, id, note string, actor Actor, approve bool) (*dto.EnrollmentRequestResponse, error) {
	er, err := s.repo.EnrollmentRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询角色申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if er.IsTerminal() {
		return nil, ErrRequestAlreadyDecided
	}

	allowed, err := s.canReview(ctx, actor, er)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrReviewForbidden
	}

	status := model.ReviewRejected
	if approve {
		status = model.ReviewApproved
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		updated, err := tx.EnrollmentRequest.UpdateDecision(ctx, er.RequestID, status, actor.UserID, note)
		if err != nil {
			return err
		}
		if !updated {
			return ErrRequestAlreadyDecided
		}
		if !approve {
			return nil
		}

		deptID := er.DepartmentID
		if err := tx.User.UpdateRole(ctx, er.UserID, er.RequestedRole, &deptID, actor.UserID); err != nil {
			return err
		}
		if er.RequestedRole != model.RoleStudent {
			return nil
		}

		class, err := tx.Class.GetByID(ctx, deref(er.ClassID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClassNotFound
			}
			return err
		}
		_, err = enrollStudent(ctx, tx, er.UserID, class, deref(er.EnrollmentNumber), actor.UserID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestAlreadyDecided), errors.Is(err, ErrClassNotFound):
			return nil, err
		case pkgerrors.IsUniqueViolation(err):
			return nil, ErrEnrollmentExists
		}
		s.logger.Error("审批角色申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("角色申请已审批",
		zap.String("request_id", er.RequestID),
		zap.String("user_id", er.UserID),
		zap.String("role", string(er.RequestedRole)),
		zap.String("status", status),
		zap.String("reviewer", actor.UserID),
	)

	if err := s.notifier.Notify(ctx, notify.EnrollmentDecided(er.UserID, er.RequestedRole, approve, note)); err != nil {
		s.logger.Warn("审批通知投递失败", zap.String("request_id", er.RequestID), zap.Error(err))
	}

	er.Status = status
	er.ReviewerID = strPtr(actor.UserID)
	er.ReviewNote = note
	resp := toEnrollmentRequestResponse(er)
	return &resp, nil
}

func (s *enrollmentRequestService) canReview(ctx context.Context, actor Actor, er *model.EnrollmentRequest) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RolePrincipal:
		return er.RequestedRole == model.RoleHOD, nil
	case model.RoleHOD:
		switch er.RequestedRole {
		case model.RoleTeacher, model.RoleClassTeacher, model.RoleStudent:
			return actor.DepartmentID != "" && er.DepartmentID == actor.DepartmentID, nil
		}
		return false, nil
	case model.RoleClassTeacher:
		if er.RequestedRole != model.RoleStudent || er.ClassID == nil {
			return false, nil
		}
		ok, err := s.repo.Assignment.IsClassTeacher(ctx, actor.UserID, *er.ClassID)
		if err != nil {
			s.logger.Error("查询班主任身份失败", zap.Error(err))
			return false, err
		}
		return ok, nil
	}
	return false, nil
}

// ── 转换 ──

func toEnrollmentRequestList(list []model.EnrollmentRequest) []dto.EnrollmentRequestResponse {
	result := make([]dto.EnrollmentRequestResponse, 0, len(list))
	for i := range list {
		result = append(result, toEnrollmentRequestResponse(&list[i]))
	}
	return result
}

func toEnrollmentRequestResponse(r *model.EnrollmentRequest) dto.EnrollmentRequestResponse {
	resp := dto.EnrollmentRequestResponse{
		ID:               r.RequestID,
		UserID:           r.UserID,
		RequestedRole:    string(r.RequestedRole),
		DepartmentID:     r.DepartmentID,
		ClassID:          deref(r.ClassID),
		EnrollmentNumber: deref(r.EnrollmentNumber),
		Status:           r.Status,
		ReviewerID:       deref(r.ReviewerID),
		ReviewedAt:       formatTimePtr(r.ReviewedAt),
		ReviewNote:       r.ReviewNote,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = formatTime(r.CreatedAt)
	}
	if r.User != nil {
		resp.UserName = r.User.Name
		resp.UserEmail = r.User.Email
	}
	return resp
}
