//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/database"
	pkgerrors "campus-attendance/pkg/errors"
	"campus-attendance/pkg/sqlfilter"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=campus_attendance_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

type fixture struct {
	dept    *model.Department
	class   *model.Class
	subject *model.Subject
	teacher *model.User
	student *model.User
}

// setupFixture 创建院系、班级、科目、教师和学生，返回清理函数
func setupFixture(t *testing.T) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	f := &fixture{}
	f.dept = &model.Department{Code: fmt.Sprintf("D%d", suffix%100000000), Name: fmt.Sprintf("测试院系-%d", suffix), IsActive: true}
	if err := testDB.WithContext(ctx).Create(f.dept).Error; err != nil {
		t.Fatalf("创建院系失败: %v", err)
	}

	f.class = &model.Class{Name: fmt.Sprintf("CSE-%d", suffix%10000), DepartmentID: f.dept.DepartmentID, Semester: 3, AcademicYear: "2024-2025", IsActive: true}
	if err := testDB.WithContext(ctx).Omit("Department").Create(f.class).Error; err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}

	f.subject = &model.Subject{SubjectCode: fmt.Sprintf("S%d", suffix%100000000), Name: "数据结构", Credits: 4}
	if err := testDB.WithContext(ctx).Create(f.subject).Error; err != nil {
		t.Fatalf("创建科目失败: %v", err)
	}

	deptID := f.dept.DepartmentID
	f.teacher = &model.User{Name: "测试教师", Email: fmt.Sprintf("t%d@campus.edu", suffix), PasswordHash: "$2a$10$placeholder", Role: model.RoleTeacher, DepartmentID: &deptID, Status: model.UserStatusActive}
	f.student = &model.User{Name: "测试学生", Email: fmt.Sprintf("s%d@campus.edu", suffix), PasswordHash: "$2a$10$placeholder", Role: model.RoleStudent, DepartmentID: &deptID, Status: model.UserStatusActive}
	for _, u := range []*model.User{f.teacher, f.student} {
		if err := testDB.WithContext(ctx).Omit("Department").Create(u).Error; err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
	}

	cleanup := func() {
		testDB.Where("student_id = ?", f.student.UserID).Delete(&model.Attendance{})
		testDB.Where("student_id = ?", f.student.UserID).Delete(&model.StudentEnrollment{})
		testDB.Where("teacher_id = ?", f.teacher.UserID).Delete(&model.TeacherAssignment{})
		testDB.Unscoped().Where("user_id IN ?", []string{f.teacher.UserID, f.student.UserID}).Delete(&model.User{})
		testDB.Unscoped().Where("subject_code = ?", f.subject.SubjectCode).Delete(&model.Subject{})
		testDB.Unscoped().Where("class_id = ?", f.class.ClassID).Delete(&model.Class{})
		testDB.Unscoped().Where("department_id = ?", f.dept.DepartmentID).Delete(&model.Department{})
	}
	return f, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Attendance Upsert
// ═══════════════════════════════════════════════════════════

func TestAttendance_UpsertOverwritesSameKey(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	record := model.Attendance{
		StudentID: f.student.UserID, SubjectCode: f.subject.SubjectCode, ClassID: f.class.ClassID,
		AttendanceDate: date, Semester: 3, AcademicYear: "2024-2025",
		Status: model.StatusPresent, MarkedBy: f.teacher.UserID,
	}
	if n, err := repo.Attendance.Upsert(ctx, []model.Attendance{record}); err != nil || n != 1 {
		t.Fatalf("首次写入失败: n=%d err=%v", n, err)
	}

	record.AttendanceID = ""
	record.Status = model.StatusAbsent
	if _, err := repo.Attendance.Upsert(ctx, []model.Attendance{record}); err != nil {
		t.Fatalf("重复写入失败: %v", err)
	}

	rows, err := repo.Attendance.ListRows(ctx, sqlfilter.New().Eq("a.student_id", f.student.UserID))
	if err != nil {
		t.Fatalf("ListRows 失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("期望 1 条记录，实际 %d", len(rows))
	}
	if rows[0].Status != model.StatusAbsent {
		t.Errorf("期望状态被覆盖为 absent，实际 %s", rows[0].Status)
	}
	if rows[0].SubjectName != "数据结构" || rows[0].ClassName != f.class.Name {
		t.Errorf("联表字段不正确: %+v", rows[0])
	}
}

func TestAttendance_PageRowsCountsWholeSet(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var batch []model.Attendance
	for d := 1; d <= 5; d++ {
		batch = append(batch, model.Attendance{
			StudentID: f.student.UserID, SubjectCode: f.subject.SubjectCode, ClassID: f.class.ClassID,
			AttendanceDate: time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC), Semester: 3, AcademicYear: "2024-2025",
			Status: model.StatusPresent, MarkedBy: f.teacher.UserID,
		})
	}
	if _, err := repo.Attendance.Upsert(ctx, batch); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	rows, total, err := repo.Attendance.PageRows(ctx, sqlfilter.New().Eq("a.student_id", f.student.UserID), 0, 2)
	if err != nil {
		t.Fatalf("PageRows 失败: %v", err)
	}
	if total != 5 || len(rows) != 2 {
		t.Errorf("期望 total=5 len=2，实际 total=%d len=%d", total, len(rows))
	}
	if !rows[0].AttendanceDate.After(rows[1].AttendanceDate) {
		t.Errorf("期望按日期倒序")
	}
}

func TestAttendance_RowsSkipSoftDeletedStudentAndClass(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	record := model.Attendance{
		StudentID: f.student.UserID, SubjectCode: f.subject.SubjectCode, ClassID: f.class.ClassID,
		AttendanceDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Semester: 3, AcademicYear: "2024-2025",
		Status: model.StatusPresent, MarkedBy: f.teacher.UserID,
	}
	if _, err := repo.Attendance.Upsert(ctx, []model.Attendance{record}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	byStudent := sqlfilter.New().Eq("a.student_id", f.student.UserID)

	if err := testDB.WithContext(ctx).Delete(&model.User{}, "user_id = ?", f.student.UserID).Error; err != nil {
		t.Fatalf("软删除学生失败: %v", err)
	}
	rows, total, err := repo.Attendance.PageRows(ctx, byStudent, 0, 10)
	if err != nil {
		t.Fatalf("PageRows 失败: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Errorf("软删除学生的记录不应返回，实际 total=%d len=%d", total, len(rows))
	}

	testDB.WithContext(ctx).Unscoped().Model(&model.User{}).Where("user_id = ?", f.student.UserID).Update("deleted_at", nil)
	if err := testDB.WithContext(ctx).Delete(&model.Class{}, "class_id = ?", f.class.ClassID).Error; err != nil {
		t.Fatalf("软删除班级失败: %v", err)
	}
	rows, err = repo.Attendance.ListRows(ctx, byStudent)
	if err != nil {
		t.Fatalf("ListRows 失败: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("软删除班级的记录不应返回，实际 %d", len(rows))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Enrollment Invariants
// ═══════════════════════════════════════════════════════════

func TestEnrollment_SingleActivePerStudent(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first := &model.StudentEnrollment{StudentID: f.student.UserID, ClassID: f.class.ClassID, EnrollmentNumber: "CSE001", Semester: 3, AcademicYear: "2024-2025", Status: model.EnrollmentActive}
	if err := repo.Enrollment.Create(ctx, first); err != nil {
		t.Fatalf("创建学籍失败: %v", err)
	}

	second := &model.StudentEnrollment{StudentID: f.student.UserID, ClassID: f.class.ClassID, EnrollmentNumber: "CSE002", Semester: 3, AcademicYear: "2024-2025", Status: model.EnrollmentActive}
	err := repo.Enrollment.Create(ctx, second)
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突，实际 %v", err)
	}

	if err := repo.Enrollment.CloseActive(ctx, f.student.UserID, f.teacher.UserID); err != nil {
		t.Fatalf("CloseActive 失败: %v", err)
	}
	if err := repo.Enrollment.Create(ctx, second); err != nil {
		t.Fatalf("关闭旧学籍后创建失败: %v", err)
	}

	history, err := repo.Enrollment.ListByStudent(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("ListByStudent 失败: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("期望 2 条学籍历史，实际 %d", len(history))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	sentinel := errors.New("rollback")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		a := &model.TeacherAssignment{TeacherID: f.teacher.UserID, SubjectCode: f.subject.SubjectCode, ClassID: f.class.ClassID, AssignmentType: model.AssignmentTeacher, Semester: 3, AcademicYear: "2024-2025", IsActive: true}
		if err := tx.Assignment.Create(ctx, a); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望返回 sentinel，实际 %v", err)
	}

	ok, err := repo.Assignment.HasScope(ctx, f.teacher.UserID, f.class.ClassID, f.subject.SubjectCode)
	if err != nil {
		t.Fatalf("HasScope 失败: %v", err)
	}
	if ok {
		t.Fatal("期望回滚后不存在任课记录")
	}
}

func TestTransaction_Commit(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		a := &model.TeacherAssignment{TeacherID: f.teacher.UserID, SubjectCode: f.subject.SubjectCode, ClassID: f.class.ClassID, AssignmentType: model.AssignmentClassTeacher, Semester: 3, AcademicYear: "2024-2025", IsActive: true}
		return tx.Assignment.Create(ctx, a)
	})
	if err != nil {
		t.Fatalf("事务提交失败: %v", err)
	}

	ok, err := repo.Assignment.IsClassTeacher(ctx, f.teacher.UserID, f.class.ClassID)
	if err != nil || !ok {
		t.Fatalf("期望提交后为班主任，ok=%v err=%v", ok, err)
	}

	ids, err := repo.Assignment.ClassTeacherClassIDs(ctx, f.teacher.UserID)
	if err != nil || len(ids) != 1 || ids[0] != f.class.ClassID {
		t.Errorf("ClassTeacherClassIDs 结果不正确: %v err=%v", ids, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Enrollment Request Decision Guard
// ═══════════════════════════════════════════════════════════

func TestEnrollmentRequest_DecisionOnlyOnce(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	classID := f.class.ClassID
	req := &model.EnrollmentRequest{UserID: f.student.UserID, RequestedRole: model.RoleStudent, DepartmentID: f.dept.DepartmentID, ClassID: &classID, Status: model.ReviewPending}
	if err := repo.EnrollmentRequest.Create(ctx, req); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	defer testDB.Where("request_id = ?", req.RequestID).Delete(&model.EnrollmentRequest{})

	ok, err := repo.EnrollmentRequest.UpdateDecision(ctx, req.RequestID, model.ReviewApproved, f.teacher.UserID, "")
	if err != nil || !ok {
		t.Fatalf("首次审批失败: ok=%v err=%v", ok, err)
	}
	ok, err = repo.EnrollmentRequest.UpdateDecision(ctx, req.RequestID, model.ReviewRejected, f.teacher.UserID, "")
	if err != nil {
		t.Fatalf("二次审批返回错误: %v", err)
	}
	if ok {
		t.Error("期望终态申请不可再次审批")
	}
}
