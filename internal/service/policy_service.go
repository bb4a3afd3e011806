package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/config"
	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	"campus-attendance/internal/stats"
)

// effectivePolicy 计算与提醒时使用的策略
type effectivePolicy struct {
	Leave        stats.LeavePolicy
	LowThreshold float64
	NotifyOnMark bool
}

// policyLoader 读取 attendance_policy，缺失时回退到配置默认值
type policyLoader struct {
	repo   *repository.Repository
	cfg    config.AttendanceConfig
	logger *zap.Logger
}

func newPolicyLoader(repo *repository.Repository, cfg config.AttendanceConfig, logger *zap.Logger) *policyLoader {
	return &policyLoader{repo: repo, cfg: cfg, logger: logger}
}

func (p *policyLoader) load(ctx context.Context) effectivePolicy {
	fallback := effectivePolicy{
		Leave:        stats.ParseLeavePolicy(p.cfg.LeavePolicy),
		LowThreshold: p.cfg.LowThreshold,
		NotifyOnMark: p.cfg.NotifyOnMark,
	}
	if p.repo == nil || p.repo.Policy == nil {
		return fallback
	}
	row, err := p.repo.Policy.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			p.logger.Warn("读取考勤策略失败，使用配置默认值", zap.Error(err))
		}
		return fallback
	}
	leave := stats.LeaveInTotal
	if !row.LeaveCountsInTotal {
		leave = stats.LeaveExcluded
	}
	return effectivePolicy{Leave: leave, LowThreshold: row.LowThreshold, NotifyOnMark: row.NotifyOnMark}
}

// PolicyService 考勤策略业务接口
type PolicyService interface {
	Get(ctx context.Context) (*dto.PolicyResponse, error)
	Update(ctx context.Context, req *dto.UpdatePolicyRequest, callerID string) (*dto.PolicyResponse, error)
}

type policyService struct {
	repo   *repository.Repository
	loader *policyLoader
	logger *zap.Logger
}

// NewPolicyService 创建 PolicyService 实例
func NewPolicyService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) PolicyService {
	return &policyService{repo: repo, loader: newPolicyLoader(repo, cfg.Attendance, logger), logger: logger}
}

func (s *policyService) current(ctx context.Context) (*model.AttendancePolicy, error) {
	row, err := s.repo.Policy.Get(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询考勤策略失败", zap.Error(err))
		return nil, err
	}
	ep := s.loader.load(ctx)
	return &model.AttendancePolicy{
		Singleton:          true,
		LowThreshold:       ep.LowThreshold,
		LeaveCountsInTotal: ep.Leave == stats.LeaveInTotal,
		NotifyOnMark:       ep.NotifyOnMark,
	}, nil
}

func (s *policyService) Get(ctx context.Context) (*dto.PolicyResponse, error) {
	row, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return toPolicyResponse(row), nil
}

func (s *policyService) Update(ctx context.Context, req *dto.UpdatePolicyRequest, callerID string) (*dto.PolicyResponse, error) {
	row, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if req.LowThreshold != nil {
		row.LowThreshold = *req.LowThreshold
	}
	if req.LeaveCountsInTotal != nil {
		row.LeaveCountsInTotal = *req.LeaveCountsInTotal
	}
	if req.NotifyOnMark != nil {
		row.NotifyOnMark = *req.NotifyOnMark
	}
	row.UpdatedBy = &callerID

	if err := s.repo.Policy.Save(ctx, row); err != nil {
		s.logger.Error("更新考勤策略失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("考勤策略已更新",
		zap.Float64("low_threshold", row.LowThreshold),
		zap.Bool("leave_counts_in_total", row.LeaveCountsInTotal),
		zap.String("by", callerID),
	)
	return toPolicyResponse(row), nil
}

func toPolicyResponse(p *model.AttendancePolicy) *dto.PolicyResponse {
	resp := &dto.PolicyResponse{
		LowThreshold:       p.LowThreshold,
		LeaveCountsInTotal: p.LeaveCountsInTotal,
		NotifyOnMark:       p.NotifyOnMark,
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTime(p.UpdatedAt)
	}
	return resp
}
