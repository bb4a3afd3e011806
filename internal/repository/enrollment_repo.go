package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-attendance/internal/model"
)

// EnrollmentRepository 学籍数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.StudentEnrollment) error
	GetByID(ctx context.Context, id string) (*model.StudentEnrollment, error)
	GetActiveByStudent(ctx context.Context, studentID string) (*model.StudentEnrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentEnrollment, error)
	ListActiveByClass(ctx context.Context, classID string) ([]model.StudentEnrollment, error)
	CloseActive(ctx context.Context, studentID string, updatedBy string) error
	UpdateStatus(ctx context.Context, id string, status string, updatedBy string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.StudentEnrollment) error {
	return r.db.WithContext(ctx).Omit("Student", "Class").Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.StudentEnrollment, error) {
	var e model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("enrollment_id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) GetActiveByStudent(ctx context.Context, studentID string) (*model.StudentEnrollment, error) {
	var e model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentActive).
		Order("enrolled_at DESC").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByStudent 学籍历史，最近的在前
func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentEnrollment, error) {
	var list []model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListActiveByClass(ctx context.Context, classID string) ([]model.StudentEnrollment, error) {
	var list []model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ? AND status = ?", classID, model.EnrollmentActive).
		Order("enrollment_number ASC").
		Find(&list).Error
	return list, err
}

// CloseActive 将学生当前 active 学籍置为 completed
func (r *enrollmentRepo) CloseActive(ctx context.Context, studentID string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentEnrollment{}).
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentActive).
		Updates(map[string]interface{}{
			"status":     model.EnrollmentCompleted,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *enrollmentRepo) UpdateStatus(ctx context.Context, id string, status string, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.StudentEnrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
