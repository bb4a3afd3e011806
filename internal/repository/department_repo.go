package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-attendance/internal/model"
)

// DepartmentRepository 院系数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByCode(ctx context.Context, code string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	ListAll(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountMembers(ctx context.Context, departmentID string) (int64, error)
	CountClasses(ctx context.Context, departmentID string) (int64, error)
	AddSubject(ctx context.Context, ds *model.DepartmentSubject) error
	ListSubjects(ctx context.Context, departmentID string, semester int) ([]model.DepartmentSubject, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) ListAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *departmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *departmentRepo) CountMembers(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

func (r *departmentRepo) CountClasses(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Class{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

// AddSubject 重复添加同一 (院系, 科目, 学期) 视为成功
func (r *departmentRepo) AddSubject(ctx context.Context, ds *model.DepartmentSubject) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ds).Error
}

// ListSubjects semester 为 0 时返回全部学期
func (r *departmentRepo) ListSubjects(ctx context.Context, departmentID string, semester int) ([]model.DepartmentSubject, error) {
	var list []model.DepartmentSubject
	db := r.db.WithContext(ctx).
		Preload("Subject").
		Where("department_id = ?", departmentID)
	if semester > 0 {
		db = db.Where("semester = ?", semester)
	}
	err := db.Order("semester ASC, subject_code ASC").Find(&list).Error
	return list, err
}
