package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-attendance/internal/model"
)

// LeaveRepository 请假数据访问接口
type LeaveRepository interface {
	Create(ctx context.Context, leave *model.LeaveApplication) error
	GetByID(ctx context.Context, id string) (*model.LeaveApplication, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.LeaveApplication, error)
	// ListPending classIDs 非 nil 时按班级限定，departmentID 非空时按院系限定
	ListPending(ctx context.Context, classIDs []string, departmentID string) ([]model.LeaveApplication, error)
	UpdateDecision(ctx context.Context, id, status, reviewerID, note string) (bool, error)
	// ListApprovedCovering 返回覆盖 date 的已批准请假
	ListApprovedCovering(ctx context.Context, studentIDs []string, date time.Time) ([]model.LeaveApplication, error)
}

type leaveRepo struct {
	db *gorm.DB
}

// NewLeaveRepo 创建 LeaveRepository 实例
func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, leave *model.LeaveApplication) error {
	return r.db.WithContext(ctx).Omit("Student").Create(leave).Error
}

func (r *leaveRepo) GetByID(ctx context.Context, id string) (*model.LeaveApplication, error) {
	var l model.LeaveApplication
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("leave_id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *leaveRepo) ListByStudent(ctx context.Context, studentID string) ([]model.LeaveApplication, error) {
	var list []model.LeaveApplication
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("from_date DESC").
		Find(&list).Error
	return list, err
}

func (r *leaveRepo) ListPending(ctx context.Context, classIDs []string, departmentID string) ([]model.LeaveApplication, error) {
	var list []model.LeaveApplication
	db := r.db.WithContext(ctx).
		Preload("Student").
		Where("status = ?", model.ReviewPending)
	if classIDs != nil {
		if len(classIDs) == 0 {
			return list, nil
		}
		db = db.Where("class_id IN ?", classIDs)
	}
	if departmentID != "" {
		db = db.Where("class_id IN (?)",
			r.db.Model(&model.Class{}).Select("class_id").Where("department_id = ?", departmentID))
	}
	err := db.Order("from_date ASC").Find(&list).Error
	return list, err
}

func (r *leaveRepo) UpdateDecision(ctx context.Context, id, status, reviewerID, note string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.LeaveApplication{}).
		Where("leave_id = ? AND status = ?", id, model.ReviewPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewer_id": reviewerID,
			"reviewed_at": time.Now().UTC(),
			"review_note": note,
			"updated_by":  reviewerID,
			"updated_at":  gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *leaveRepo) ListApprovedCovering(ctx context.Context, studentIDs []string, date time.Time) ([]model.LeaveApplication, error) {
	var list []model.LeaveApplication
	if len(studentIDs) == 0 {
		return list, nil
	}
	day := date.Format(model.DateLayout)
	err := r.db.WithContext(ctx).
		Where("student_id IN ? AND status = ? AND from_date <= ? AND to_date >= ?",
			studentIDs, model.ReviewApproved, day, day).
		Find(&list).Error
	return list, err
}
