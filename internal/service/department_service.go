package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	pkgerrors "campus-attendance/pkg/errors"
)

// ── 院系模块业务错误 ──

var (
	ErrDepartmentNotFound   = errors.New("院系不存在")
	ErrDepartmentCodeExists = errors.New("院系代码已存在")
	ErrDepartmentHasMembers = errors.New("院系下存在成员或班级，无法删除")
)

// DepartmentService 院系业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// AddSubject 院系在某学期开设科目（重复添加视为成功）
	AddSubject(ctx context.Context, id string, req *dto.AddDepartmentSubjectRequest, callerID string) error
	// ListSubjects semester 为 0 时返回全部学期
	ListSubjects(ctx context.Context, id string, semester int) ([]dto.DepartmentSubjectResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	// 检查代码唯一性
	existing, err := s.repo.Department.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrDepartmentCodeExists
	}

	dept := &model.Department{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	}
	dept.CreatedBy = &callerID
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrDepartmentCodeExists
		}
		s.logger.Error("创建院系失败", zap.Error(err))
		return nil, err
	}

	return s.toDetail(ctx, dept), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDetail(ctx, dept), nil
}

func (s *departmentService) get(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error) {
	var depts []model.Department
	var err error

	if req.IncludeInactive {
		depts, err = s.repo.Department.ListAll(ctx)
	} else {
		depts, err = s.repo.Department.List(ctx)
	}
	if err != nil {
		s.logger.Error("列出院系失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *s.toDetail(ctx, &depts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		dept.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		s.logger.Error("更新院系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toDetail(ctx, dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	dept, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	members, err := s.repo.Department.CountMembers(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Error("查询院系成员数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	classes, err := s.repo.Department.CountClasses(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Error("查询院系班级数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if members > 0 || classes > 0 {
		return ErrDepartmentHasMembers
	}

	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除院系失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── Subjects ──────────────────────

func (s *departmentService) AddSubject(ctx context.Context, id string, req *dto.AddDepartmentSubjectRequest, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.Subject.GetByCode(ctx, req.SubjectCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("code", req.SubjectCode), zap.Error(err))
		return err
	}

	ds := &model.DepartmentSubject{
		DepartmentID: id,
		SubjectCode:  req.SubjectCode,
		Semester:     req.Semester,
	}
	ds.CreatedBy = &callerID
	if err := s.repo.Department.AddSubject(ctx, ds); err != nil {
		s.logger.Error("院系开设科目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *departmentService) ListSubjects(ctx context.Context, id string, semester int) ([]dto.DepartmentSubjectResponse, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.repo.Department.ListSubjects(ctx, id, semester)
	if err != nil {
		s.logger.Error("查询院系科目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentSubjectResponse, 0, len(list))
	for _, ds := range list {
		item := dto.DepartmentSubjectResponse{SubjectCode: ds.SubjectCode, Semester: ds.Semester}
		if ds.Subject != nil {
			item.SubjectName = ds.Subject.Name
			item.Credits = ds.Subject.Credits
		}
		result = append(result, item)
	}
	return result, nil
}

// ── 辅助 ──

func (s *departmentService) toDetail(ctx context.Context, dept *model.Department) *dto.DepartmentDetailResponse {
	count, err := s.repo.Department.CountMembers(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Warn("查询成员数失败", zap.String("department_id", dept.DepartmentID), zap.Error(err))
		count = 0
	}

	return &dto.DepartmentDetailResponse{
		ID:          dept.DepartmentID,
		Code:        dept.Code,
		Name:        dept.Name,
		Description: dept.Description,
		IsActive:    dept.IsActive,
		MemberCount: count,
		CreatedAt:   formatTime(dept.CreatedAt),
		UpdatedAt:   formatTime(dept.UpdatedAt),
	}
}
