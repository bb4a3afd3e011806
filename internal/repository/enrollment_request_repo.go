package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-attendance/internal/model"
)

// RequestFilter 待审批申请列表条件
type RequestFilter struct {
	Roles        []model.Role
	DepartmentID string
	// RestrictClasses 为 true 时仅返回 ClassIDs 内的学生申请
	RestrictClasses bool
	ClassIDs        []string
}

// EnrollmentRequestRepository 角色申请数据访问接口
type EnrollmentRequestRepository interface {
	Create(ctx context.Context, req *model.EnrollmentRequest) error
	GetByID(ctx context.Context, id string) (*model.EnrollmentRequest, error)
	GetPendingByUser(ctx context.Context, userID string) (*model.EnrollmentRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.EnrollmentRequest, error)
	ListPending(ctx context.Context, filter RequestFilter) ([]model.EnrollmentRequest, error)
	// UpdateDecision 仅当申请仍为 pending 时写入审批结果，返回是否更新
	UpdateDecision(ctx context.Context, id, status, reviewerID, note string) (bool, error)
}

type enrollmentRequestRepo struct {
	db *gorm.DB
}

// NewEnrollmentRequestRepo 创建 EnrollmentRequestRepository 实例
func NewEnrollmentRequestRepo(db *gorm.DB) EnrollmentRequestRepository {
	return &enrollmentRequestRepo{db: db}
}

func (r *enrollmentRequestRepo) Create(ctx context.Context, req *model.EnrollmentRequest) error {
	return r.db.WithContext(ctx).Omit("User").Create(req).Error
}

func (r *enrollmentRequestRepo) GetByID(ctx context.Context, id string) (*model.EnrollmentRequest, error) {
	var req model.EnrollmentRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *enrollmentRequestRepo) GetPendingByUser(ctx context.Context, userID string) (*model.EnrollmentRequest, error) {
	var req model.EnrollmentRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.ReviewPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *enrollmentRequestRepo) ListByUser(ctx context.Context, userID string) ([]model.EnrollmentRequest, error) {
	var list []model.EnrollmentRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRequestRepo) ListPending(ctx context.Context, filter RequestFilter) ([]model.EnrollmentRequest, error) {
	var list []model.EnrollmentRequest
	db := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", model.ReviewPending)
	if len(filter.Roles) > 0 {
		db = db.Where("requested_role IN ?", filter.Roles)
	}
	if filter.DepartmentID != "" {
		db = db.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.RestrictClasses {
		if len(filter.ClassIDs) == 0 {
			return list, nil
		}
		db = db.Where("class_id IN ?", filter.ClassIDs)
	}
	err := db.Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *enrollmentRequestRepo) UpdateDecision(ctx context.Context, id, status, reviewerID, note string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.EnrollmentRequest{}).
		Where("request_id = ? AND status = ?", id, model.ReviewPending).
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
