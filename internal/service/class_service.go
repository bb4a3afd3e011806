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

// ── 班级 / 科目模块业务错误 ──

var (
	ErrClassNotFound     = errors.New("班级不存在")
	ErrClassExists       = errors.New("该院系本学年已存在同名班级")
	ErrSubjectNotFound   = errors.New("科目不存在")
	ErrSubjectCodeExists = errors.New("科目代码已存在")
)

// ClassService 班级业务接口
type ClassService interface {
	Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassResponse, error)
	List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Students 班级在籍学生
	Students(ctx context.Context, id string) ([]dto.ClassStudentResponse, error)
}

type classService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClassService 创建 ClassService 实例
func NewClassService(repo *repository.Repository, logger *zap.Logger) ClassService {
	return &classService{repo: repo, logger: logger}
}

func (s *classService) Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error) {
	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, err
	}

	class := &model.Class{
		Name:         strings.TrimSpace(req.Name),
		DepartmentID: req.DepartmentID,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		IsActive:     true,
	}
	class.CreatedBy = &callerID
	class.UpdatedBy = &callerID

	if err := s.repo.Class.Create(ctx, class); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrClassExists
		}
		s.logger.Error("创建班级失败", zap.Error(err))
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) get(ctx context.Context, id string) (*model.Class, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return class, nil
}

func (s *classService) GetByID(ctx context.Context, id string) (*dto.ClassResponse, error) {
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error) {
	classes, err := s.repo.Class.List(ctx, repository.ClassFilter{
		DepartmentID: req.DepartmentID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	})
	if err != nil {
		s.logger.Error("查询班级列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, *toClassResponse(&classes[i]))
	}
	return result, nil
}

func (s *classService) Update(ctx context.Context, id string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error) {
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Semester != nil {
		class.Semester = *req.Semester
	}
	if req.AcademicYear != nil {
		class.AcademicYear = *req.AcademicYear
	}
	if req.IsActive != nil {
		class.IsActive = *req.IsActive
	}
	class.UpdatedBy = &callerID

	if err := s.repo.Class.Update(ctx, class); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrClassExists
		}
		s.logger.Error("更新班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Class.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除班级失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *classService) Students(ctx context.Context, id string) ([]dto.ClassStudentResponse, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.Enrollment.ListActiveByClass(ctx, id)
	if err != nil {
		s.logger.Error("查询班级学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ClassStudentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		item := dto.ClassStudentResponse{StudentID: e.StudentID, EnrollmentNumber: e.EnrollmentNumber}
		if e.Student != nil {
			item.Name = e.Student.Name
			item.Email = e.Student.Email
		}
		result = append(result, item)
	}
	return result, nil
}

func toClassResponse(c *model.Class) *dto.ClassResponse {
	resp := &dto.ClassResponse{
		ID:           c.ClassID,
		Name:         c.Name,
		DepartmentID: c.DepartmentID,
		Semester:     c.Semester,
		AcademicYear: c.AcademicYear,
		IsActive:     c.IsActive,
	}
	if c.Department != nil {
		resp.DepartmentName = c.Department.Name
	}
	return resp
}

// ────────────────────── Subject ──────────────────────

// SubjectService 科目业务接口
type SubjectService interface {
	Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	GetByCode(ctx context.Context, code string) (*dto.SubjectResponse, error)
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, code string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, code string, callerID string) error
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.Subject.GetByCode(ctx, code); err == nil {
		return nil, ErrSubjectCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询科目失败", zap.Error(err))
		return nil, err
	}

	subject := &model.Subject{SubjectCode: code, Name: strings.TrimSpace(req.Name), Credits: req.Credits}
	subject.CreatedBy = &callerID
	subject.UpdatedBy = &callerID
	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSubjectCodeExists
		}
		s.logger.Error("创建科目失败", zap.Error(err))
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

func (s *subjectService) get(ctx context.Context, code string) (*model.Subject, error) {
	subject, err := s.repo.Subject.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) GetByCode(ctx context.Context, code string) (*dto.SubjectResponse, error) {
	subject, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("查询科目列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, *toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

func (s *subjectService) Update(ctx context.Context, code string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	subject, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.Credits != nil {
		subject.Credits = *req.Credits
	}
	subject.UpdatedBy = &callerID
	if err := s.repo.Subject.Update(ctx, subject); err != nil {
		s.logger.Error("更新科目失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, code string, callerID string) error {
	if _, err := s.get(ctx, code); err != nil {
		return err
	}
	if err := s.repo.Subject.Delete(ctx, code, callerID); err != nil {
		s.logger.Error("删除科目失败", zap.String("code", code), zap.Error(err))
		return err
	}
	return nil
}

func toSubjectResponse(s *model.Subject) *dto.SubjectResponse {
	return &dto.SubjectResponse{Code: s.SubjectCode, Name: s.Name, Credits: s.Credits}
}
