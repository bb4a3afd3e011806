package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// NotificationService 站内通知与邮件偏好
type NotificationService interface {
	List(ctx context.Context, req *dto.NotificationListRequest, userID string) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	GetPreference(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	UpdatePreference(ctx context.Context, req *dto.UpdatePreferenceRequest, userID string) (*dto.PreferenceResponse, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, req *dto.NotificationListRequest, userID string) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		result = append(result, dto.NotificationResponse{
			ID:        n.NotificationID,
			Kind:      n.Kind,
			Title:     n.Title,
			Content:   n.Content,
			IsRead:    n.IsRead,
			Emailed:   n.Emailed,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) GetPreference(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.preference(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

func (s *notificationService) UpdatePreference(ctx context.Context, req *dto.UpdatePreferenceRequest, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.preference(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&pref.AttendanceUpdate, req.AttendanceUpdate)
	set(&pref.LowAttendance, req.LowAttendance)
	set(&pref.WeeklyReport, req.WeeklyReport)
	set(&pref.EnrollmentDecision, req.EnrollmentDecision)
	set(&pref.LeaveDecision, req.LeaveDecision)
	pref.UpdatedBy = &userID

	if err := s.repo.Notification.SavePreference(ctx, pref); err != nil {
		s.logger.Error("保存通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

// preference 未设置时返回全部开启的默认偏好
func (s *notificationService) preference(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultPreference(userID), nil
		}
		s.logger.Error("查询通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return pref, nil
}

func toPreferenceResponse(p *model.NotificationPreference) *dto.PreferenceResponse {
	return &dto.PreferenceResponse{
		AttendanceUpdate:   p.AttendanceUpdate,
		LowAttendance:      p.LowAttendance,
		WeeklyReport:       p.WeeklyReport,
		EnrollmentDecision: p.EnrollmentDecision,
		LeaveDecision:      p.LeaveDecision,
	}
}
