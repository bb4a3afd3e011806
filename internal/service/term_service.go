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

// ── 学期模块业务错误 ──

var (
	ErrTermNotFound  = errors.New("学期不存在")
	ErrTermDateRange = errors.New("学期结束日期不能早于开始日期")
	ErrNoCurrentTerm = errors.New("当前没有启用的学期")
)

// TermService 学期业务接口；同一时刻至多一个启用学期
type TermService interface {
	Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error)
	List(ctx context.Context) ([]dto.TermResponse, error)
	Current(ctx context.Context) (*dto.TermResponse, error)
	Activate(ctx context.Context, id string, callerID string) (*dto.TermResponse, error)
}

type termService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTermService 创建 TermService 实例
func NewTermService(repo *repository.Repository, logger *zap.Logger) TermService {
	return &termService{repo: repo, logger: logger}
}

func (s *termService) Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error) {
	start, ok := parseDate(req.StartDate)
	if !ok {
		return nil, ErrInvalidDate
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrTermDateRange
	}

	term := &model.AcademicTerm{
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		StartDate:    start,
		EndDate:      end,
	}
	term.CreatedBy = &callerID
	term.UpdatedBy = &callerID

	if err := s.repo.Term.Create(ctx, term); err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}
	return toTermResponse(term), nil
}

func (s *termService) List(ctx context.Context) ([]dto.TermResponse, error) {
	list, err := s.repo.Term.List(ctx)
	if err != nil {
		s.logger.Error("查询学期列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TermResponse, 0, len(list))
	for i := range list {
		result = append(result, *toTermResponse(&list[i]))
	}
	return result, nil
}

func (s *termService) Current(ctx context.Context) (*dto.TermResponse, error) {
	term, err := s.repo.Term.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentTerm
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}
	return toTermResponse(term), nil
}

// Activate 取消原启用学期并启用指定学期（同一事务）
func (s *termService) Activate(ctx context.Context, id string, callerID string) (*dto.TermResponse, error) {
	var term *model.AcademicTerm
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		t, err := tx.Term.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Term.ClearActive(ctx); err != nil {
			return err
		}
		if err := tx.Term.SetActive(ctx, id, callerID); err != nil {
			return err
		}
		t.IsActive = true
		term = t
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("启用学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学期已启用",
		zap.String("term_id", id),
		zap.String("academic_year", term.AcademicYear),
		zap.Int("semester", term.Semester),
	)
	return toTermResponse(term), nil
}

func toTermResponse(t *model.AcademicTerm) *dto.TermResponse {
	return &dto.TermResponse{
		ID:           t.TermID,
		AcademicYear: t.AcademicYear,
		Semester:     t.Semester,
		StartDate:    t.StartDate.Format(model.DateLayout),
		EndDate:      t.EndDate.Format(model.DateLayout),
		IsActive:     t.IsActive,
	}
}
