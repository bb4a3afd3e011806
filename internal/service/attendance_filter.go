package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/stats"
	"campus-attendance/pkg/jwt"
)

// ── 筛选 / 导出模块业务错误 ──

var (
	ErrFilterTokenInvalid  = errors.New("筛选令牌无效")
	ErrFilterTokenExpired  = errors.New("筛选令牌已过期，请重新提交筛选条件")
	ErrFilterTokenNotOwned = errors.New("筛选令牌不属于当前用户")
)

func (s *attendanceService) Filter(ctx context.Context, criteria dto.AttendanceFilter, actor Actor) (*dto.FilterTokenResponse, error) {
	rows, err := s.filterRows(ctx, criteria, actor)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.jwtMgr.GenerateFilterToken(actor.UserID, criteria.ToMap())
	if err != nil {
		s.logger.Error("签发筛选令牌失败", zap.Error(err))
		return nil, err
	}

	return &dto.FilterTokenResponse{
		Token:     token,
		ExpiresAt: formatTime(expiresAt),
		Total:     len(rows),
	}, nil
}

func (s *attendanceService) FilterResults(ctx context.Context, req *dto.FilterResultRequest, actor Actor) (*dto.FilterResultResponse, error) {
	rows, criteria, err := s.FilterRows(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	policy := s.policy.load(ctx)
	return &dto.FilterResultResponse{
		Criteria: criteria,
		Total:    len(rows),
		Summary:  toSummary(stats.CountRows(rows), policy.Leave),
		Records:  toRecordResponses(rows),
	}, nil
}

func (s *attendanceService) FilterRows(ctx context.Context, req *dto.FilterResultRequest, actor Actor) ([]model.AttendanceRow, dto.AttendanceFilter, error) {
	criteria := req.AttendanceFilter
	if token := strings.TrimSpace(req.Token); token != "" {
		claims, err := s.jwtMgr.ParseFilterToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, criteria, ErrFilterTokenExpired
			}
			return nil, criteria, ErrFilterTokenInvalid
		}
		if claims.UserID != actor.UserID {
			return nil, criteria, ErrFilterTokenNotOwned
		}
		criteria = dto.AttendanceFilterFromMap(claims.Criteria)
	}

	rows, err := s.filterRows(ctx, criteria, actor)
	if err != nil {
		return nil, criteria, err
	}
	return rows, criteria, nil
}

// filterRows 范围 + 条件查询，再按阈值过滤
func (s *attendanceService) filterRows(ctx context.Context, criteria dto.AttendanceFilter, actor Actor) ([]model.AttendanceRow, error) {
	f, err := scopedCriteria(actor, criteria)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Attendance.ListRows(ctx, f)
	if err != nil {
		s.logger.Error("筛选考勤失败", zap.Error(err))
		return nil, err
	}

	threshold, ok := parseThreshold(criteria.Threshold)
	if !ok {
		return rows, nil
	}
	cmp := stats.ParseComparison(criteria.ComparisonType)
	return stats.FilterByThreshold(rows, threshold, cmp, s.policy.load(ctx).Leave), nil
}

func toSummary(c stats.Counts, policy stats.LeavePolicy) dto.AttendanceSummary {
	return dto.AttendanceSummary{
		Present:    c.Present,
		Absent:     c.Absent,
		Leave:      c.Leave,
		Total:      c.Total(),
		Percentage: stats.Round2(c.Percentage(policy)),
	}
}
