package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	pkgerrors "campus-attendance/pkg/errors"
)

// ── 任课模块业务错误 ──

var (
	ErrAssignmentNotFound = errors.New("任课记录不存在")
	ErrAssignmentExists   = errors.New("该教师已担任此班级该科目")
	ErrClassTeacherExists = errors.New("该班级已有班主任")
	ErrNotTeacher         = errors.New("指定用户不是教师")
	ErrNotClassTeacher    = errors.New("班主任任课只能分配给班主任角色")
)

// AssignmentService 任课业务接口
type AssignmentService interface {
	Create(ctx context.Context, req *dto.CreateAssignmentRequest, actor Actor) (*dto.AssignmentResponse, error)
	List(ctx context.Context, req *dto.AssignmentListRequest, actor Actor) ([]dto.AssignmentResponse, error)
	Mine(ctx context.Context, teacherID string) ([]dto.AssignmentResponse, error)
	Deactivate(ctx context.Context, id string, actor Actor) error
}

type assignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, logger: logger}
}

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest, actor Actor) (*dto.AssignmentResponse, error) {
	teacher, err := s.repo.User.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	if !teacher.Role.IsTeaching() && teacher.Role != model.RoleHOD {
		return nil, ErrNotTeacher
	}

	class, err := s.repo.Class.GetByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.Error(err))
		return nil, err
	}
	if actor.Role == model.RoleHOD && class.DepartmentID != actor.DepartmentID {
		return nil, ErrForbidden
	}

	subject, err := s.repo.Subject.GetByCode(ctx, req.SubjectCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.Error(err))
		return nil, err
	}

	kind := req.AssignmentType
	if kind == "" {
		kind = model.AssignmentTeacher
	}
	if kind == model.AssignmentClassTeacher {
		// 班主任任课只分配给 class_teacher 角色
		if teacher.Role != model.RoleClassTeacher {
			return nil, ErrNotClassTeacher
		}
		if _, err := s.repo.Assignment.GetClassTeacher(ctx, class.ClassID); err == nil {
			return nil, ErrClassTeacherExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询班主任失败", zap.Error(err))
			return nil, err
		}
	}

	a := &model.TeacherAssignment{
		TeacherID:      teacher.UserID,
		SubjectCode:    subject.SubjectCode,
		ClassID:        class.ClassID,
		AssignmentType: kind,
		Semester:       class.Semester,
		AcademicYear:   class.AcademicYear,
		IsActive:       true,
	}
	a.CreatedBy = &actor.UserID
	a.UpdatedBy = &actor.UserID

	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			if pkgerrors.ConstraintName(err) == "uk_assignments_class_teacher" {
				return nil, ErrClassTeacherExists
			}
			return nil, ErrAssignmentExists
		}
		s.logger.Error("创建任课失败", zap.Error(err))
		return nil, err
	}

	a.Teacher, a.Subject, a.Class = teacher, subject, class
	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *assignmentService) List(ctx context.Context, req *dto.AssignmentListRequest, actor Actor) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{
		TeacherID:   req.TeacherID,
		ClassID:     req.ClassID,
		SubjectCode: req.SubjectCode,
		ActiveOnly:  true,
	}
	if actor.Role == model.RoleHOD {
		filter.DepartmentID = actor.DepartmentID
	}
	return s.list(ctx, filter)
}

func (s *assignmentService) Mine(ctx context.Context, teacherID string) ([]dto.AssignmentResponse, error) {
	return s.list(ctx, repository.AssignmentFilter{TeacherID: teacherID, ActiveOnly: true})
}

func (s *assignmentService) list(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询任课列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *assignmentService) Deactivate(ctx context.Context, id string, actor Actor) error {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("查询任课失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if actor.Role == model.RoleHOD && (a.Class == nil || a.Class.DepartmentID != actor.DepartmentID) {
		return ErrForbidden
	}
	if err := s.repo.Assignment.Deactivate(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("停用任课失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toAssignmentResponse(a *model.TeacherAssignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:             a.AssignmentID,
		TeacherID:      a.TeacherID,
		SubjectCode:    a.SubjectCode,
		ClassID:        a.ClassID,
		AssignmentType: a.AssignmentType,
		Semester:       a.Semester,
		AcademicYear:   a.AcademicYear,
		IsActive:       a.IsActive,
	}
	if a.Teacher != nil {
		resp.TeacherName = a.Teacher.Name
	}
	if a.Subject != nil {
		resp.SubjectName = a.Subject.Name
	}
	if a.Class != nil {
		resp.ClassName = a.Class.Name
	}
	return resp
}
