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

// ── 学籍模块业务错误 ──

var (
	ErrEnrollmentNotFound = errors.New("学籍记录不存在")
	ErrEnrollmentExists   = errors.New("该学生已有在读学籍")
	ErrNoActiveEnrollment = errors.New("该学生当前没有在读学籍")
	ErrNotStudent         = errors.New("指定用户不是学生")
)

// EnrollmentService 学籍业务接口
type EnrollmentService interface {
	// Create 将学生注册到班级，原有 active 学籍置为 completed
	Create(ctx context.Context, req *dto.CreateEnrollmentRequest, callerID string) (*dto.EnrollmentResponse, error)
	History(ctx context.Context, studentID string, actor Actor) ([]dto.EnrollmentResponse, error)
	Current(ctx context.Context, studentID string, actor Actor) (*dto.EnrollmentResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateEnrollmentStatusRequest, callerID string) error
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

func (s *enrollmentService) Create(ctx context.Context, req *dto.CreateEnrollmentRequest, callerID string) (*dto.EnrollmentResponse, error) {
	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, ErrNotStudent
	}

	class, err := s.repo.Class.GetByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.Error(err))
		return nil, err
	}

	var created *model.StudentEnrollment
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var txErr error
		created, txErr = enrollStudent(ctx, tx, student.UserID, class, req.EnrollmentNumber, callerID)
		return txErr
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEnrollmentExists
		}
		s.logger.Error("创建学籍失败", zap.String("student_id", student.UserID), zap.Error(err))
		return nil, err
	}

	created.Student, created.Class = student, class
	resp := toEnrollmentResponse(created)
	return &resp, nil
}

// enrollStudent 关闭旧学籍并创建新的 active 学籍，须在事务内调用
func enrollStudent(ctx context.Context, tx *repository.Repository, studentID string, class *model.Class, number, callerID string) (*model.StudentEnrollment, error) {
	if err := tx.Enrollment.CloseActive(ctx, studentID, callerID); err != nil {
		return nil, err
	}
	e := &model.StudentEnrollment{
		StudentID:        studentID,
		ClassID:          class.ClassID,
		EnrollmentNumber: number,
		Semester:         class.Semester,
		AcademicYear:     class.AcademicYear,
		Status:           model.EnrollmentActive,
	}
	e.CreatedBy = &callerID
	e.UpdatedBy = &callerID
	if err := tx.Enrollment.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *enrollmentService) History(ctx context.Context, studentID string, actor Actor) ([]dto.EnrollmentResponse, error) {
	if actor.Role == model.RoleStudent && actor.UserID != studentID {
		return nil, ErrForbidden
	}
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学籍历史失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.EnrollmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toEnrollmentResponse(&list[i]))
	}
	return result, nil
}

func (s *enrollmentService) Current(ctx context.Context, studentID string, actor Actor) (*dto.EnrollmentResponse, error) {
	if actor.Role == model.RoleStudent && actor.UserID != studentID {
		return nil, ErrForbidden
	}
	e, err := s.repo.Enrollment.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEnrollment
		}
		s.logger.Error("查询当前学籍失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	resp := toEnrollmentResponse(e)
	return &resp, nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateEnrollmentStatusRequest, callerID string) error {
	if err := s.repo.Enrollment.UpdateStatus(ctx, id, req.Status, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		if pkgerrors.IsUniqueViolation(err) {
			return ErrEnrollmentExists
		}
		s.logger.Error("更新学籍状态失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toEnrollmentResponse(e *model.StudentEnrollment) dto.EnrollmentResponse {
	resp := dto.EnrollmentResponse{
		ID:               e.EnrollmentID,
		StudentID:        e.StudentID,
		ClassID:          e.ClassID,
		EnrollmentNumber: e.EnrollmentNumber,
		Semester:         e.Semester,
		AcademicYear:     e.AcademicYear,
		Status:           e.Status,
	}
	if !e.EnrolledAt.IsZero() {
		resp.EnrolledAt = formatTime(e.EnrolledAt)
	}
	if e.Student != nil {
		resp.StudentName = e.Student.Name
	}
	if e.Class != nil {
		resp.ClassName = e.Class.Name
	}
	return resp
}
