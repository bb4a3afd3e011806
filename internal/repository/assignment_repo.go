package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-attendance/internal/model"
)

// AssignmentFilter 任课列表条件
type AssignmentFilter struct {
	TeacherID    string
	ClassID      string
	SubjectCode  string
	DepartmentID string // 按班级所属院系
	ActiveOnly   bool
}

// AssignmentRepository 教师任课数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.TeacherAssignment) error
	GetByID(ctx context.Context, id string) (*model.TeacherAssignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]model.TeacherAssignment, error)
	HasScope(ctx context.Context, teacherID, classID, subjectCode string) (bool, error)
	IsClassTeacher(ctx context.Context, teacherID, classID string) (bool, error)
	GetClassTeacher(ctx context.Context, classID string) (*model.TeacherAssignment, error)
	ClassTeacherClassIDs(ctx context.Context, teacherID string) ([]string, error)
	Deactivate(ctx context.Context, id string, updatedBy string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.TeacherAssignment) error {
	return r.db.WithContext(ctx).Omit("Teacher", "Subject", "Class").Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.TeacherAssignment, error) {
	var a model.TeacherAssignment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) List(ctx context.Context, filter AssignmentFilter) ([]model.TeacherAssignment, error) {
	var list []model.TeacherAssignment
	db := r.db.WithContext(ctx).
		Preload("Teacher").Preload("Subject").Preload("Class")
	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.ClassID != "" {
		db = db.Where("class_id = ?", filter.ClassID)
	}
	if filter.SubjectCode != "" {
		db = db.Where("subject_code = ?", filter.SubjectCode)
	}
	if filter.DepartmentID != "" {
		db = db.Where("class_id IN (?)",
			r.db.Model(&model.Class{}).Select("class_id").Where("department_id = ?", filter.DepartmentID))
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("academic_year DESC, semester ASC, subject_code ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) HasScope(ctx context.Context, teacherID, classID, subjectCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Where("teacher_id = ? AND class_id = ? AND subject_code = ? AND is_active = ?", teacherID, classID, subjectCode, true).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepo) IsClassTeacher(ctx context.Context, teacherID, classID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Where("teacher_id = ? AND class_id = ? AND assignment_type = ? AND is_active = ?",
			teacherID, classID, model.AssignmentClassTeacher, true).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepo) GetClassTeacher(ctx context.Context, classID string) (*model.TeacherAssignment, error) {
	var a model.TeacherAssignment
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("class_id = ? AND assignment_type = ? AND is_active = ?", classID, model.AssignmentClassTeacher, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ClassTeacherClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Where("teacher_id = ? AND assignment_type = ? AND is_active = ?", teacherID, model.AssignmentClassTeacher, true).
		Distinct().
		Pluck("class_id", &ids).Error
	return ids, err
}

func (r *assignmentRepo) Deactivate(ctx context.Context, id string, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.TeacherAssignment{}).
		Where("assignment_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
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
