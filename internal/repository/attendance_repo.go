package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-attendance/internal/model"
	"campus-attendance/pkg/sqlfilter"
)

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	// Upsert 以 (student_id, subject_code, attendance_date) 为键批量写入，返回写入条数
	Upsert(ctx context.Context, records []model.Attendance) (int, error)
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	Update(ctx context.Context, record *model.Attendance) error
	ListRows(ctx context.Context, filter *sqlfilter.Filter) ([]model.AttendanceRow, error)
	PageRows(ctx context.Context, filter *sqlfilter.Filter, offset, limit int) ([]model.AttendanceRow, int64, error)
	ListForClassDate(ctx context.Context, classID, subjectCode string, date time.Time) ([]model.Attendance, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

const attendanceRowColumns = `a.attendance_id, a.student_id, u.name AS student_name, u.email AS student_email,
	a.subject_code, s.name AS subject_name, a.class_id, c.name AS class_name, c.department_id,
	a.attendance_date, a.semester, a.academic_year, a.status, a.marked_by, a.remarks`

const attendanceRowOrder = "a.attendance_date DESC, a.subject_code ASC, a.class_id ASC, a.student_id ASC"

func (r *attendanceRepo) Upsert(ctx context.Context, records []model.Attendance) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_code"}, {Name: "attendance_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "remarks", "marked_by", "class_id",
				"semester", "academic_year", "updated_at", "updated_by",
			}),
		}).
		Create(&records).Error
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).Where("attendance_id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) Update(ctx context.Context, record *model.Attendance) error {
	res := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("attendance_id = ?", record.AttendanceID).
		Updates(map[string]interface{}{
			"status":     record.Status,
			"remarks":    record.Remarks,
			"marked_by":  record.MarkedBy,
			"updated_by": record.UpdatedBy,
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

// baseRows 考勤联表查询（未附加 SELECT 列，供计数复用）；软删除的学生、班级、科目不参与
func (r *attendanceRepo) baseRows(ctx context.Context, filter *sqlfilter.Filter) *gorm.DB {
	db := r.db.WithContext(ctx).
		Table("attendance AS a").
		Joins("JOIN users u ON u.user_id = a.student_id AND u.deleted_at IS NULL").
		Joins("JOIN subjects s ON s.subject_code = a.subject_code AND s.deleted_at IS NULL").
		Joins("JOIN classes c ON c.class_id = a.class_id AND c.deleted_at IS NULL")
	if filter != nil {
		db = filter.Apply(db)
	}
	return db
}

func (r *attendanceRepo) ListRows(ctx context.Context, filter *sqlfilter.Filter) ([]model.AttendanceRow, error) {
	var rows []model.AttendanceRow
	err := r.baseRows(ctx, filter).
		Select(attendanceRowColumns).
		Order(attendanceRowOrder).
		Scan(&rows).Error
	return rows, err
}

func (r *attendanceRepo) PageRows(ctx context.Context, filter *sqlfilter.Filter, offset, limit int) ([]model.AttendanceRow, int64, error) {
	var total int64
	if err := r.baseRows(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.AttendanceRow
	err := r.baseRows(ctx, filter).
		Select(attendanceRowColumns).
		Order(attendanceRowOrder).
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *attendanceRepo) ListForClassDate(ctx context.Context, classID, subjectCode string, date time.Time) ([]model.Attendance, error) {
	var list []model.Attendance
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_code = ? AND attendance_date = ?", classID, subjectCode, date.Format(model.DateLayout)).
		Find(&list).Error
	return list, err
}
