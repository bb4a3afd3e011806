package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-attendance/internal/model"
)

// TermRepository 学期数据访问接口
type TermRepository interface {
	Create(ctx context.Context, term *model.AcademicTerm) error
	GetByID(ctx context.Context, id string) (*model.AcademicTerm, error)
	GetCurrent(ctx context.Context) (*model.AcademicTerm, error)
	List(ctx context.Context) ([]model.AcademicTerm, error)
	ClearActive(ctx context.Context) error
	SetActive(ctx context.Context, id string, updatedBy string) error
}

type termRepo struct {
	db *gorm.DB
}

// NewTermRepo 创建 TermRepository 实例
func NewTermRepo(db *gorm.DB) TermRepository {
	return &termRepo{db: db}
}

func (r *termRepo) Create(ctx context.Context, term *model.AcademicTerm) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepo) GetByID(ctx context.Context, id string) (*model.AcademicTerm, error) {
	var t model.AcademicTerm
	err := r.db.WithContext(ctx).Where("term_id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *termRepo) GetCurrent(ctx context.Context) (*model.AcademicTerm, error) {
	var t model.AcademicTerm
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *termRepo) List(ctx context.Context) ([]model.AcademicTerm, error) {
	var list []model.AcademicTerm
	err := r.db.WithContext(ctx).Order("start_date DESC").Find(&list).Error
	return list, err
}

func (r *termRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.AcademicTerm{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}

func (r *termRepo) SetActive(ctx context.Context, id string, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.AcademicTerm{}).
		Where("term_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  true,
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

// PolicyRepository 考勤策略数据访问接口
type PolicyRepository interface {
	Get(ctx context.Context) (*model.AttendancePolicy, error)
	Save(ctx context.Context, policy *model.AttendancePolicy) error
}

type policyRepo struct {
	db *gorm.DB
}

// NewPolicyRepo 创建 PolicyRepository 实例
func NewPolicyRepo(db *gorm.DB) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) Get(ctx context.Context) (*model.AttendancePolicy, error) {
	var p model.AttendancePolicy
	err := r.db.WithContext(ctx).Where("singleton = ?", true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *policyRepo) Save(ctx context.Context, policy *model.AttendancePolicy) error {
	policy.Singleton = true
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "singleton"}},
			DoUpdates: clause.AssignmentColumns([]string{"low_threshold", "leave_counts_in_total", "notify_on_mark", "updated_at", "updated_by"}),
		}).
		Create(policy).Error
}
