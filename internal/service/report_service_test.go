package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/stats"
)

func setupReportService() (ReportService, *mockRepos, *mockNotifier) {
	repo, m := newMockRepository()
	seedCampus(m)
	notifier := &mockNotifier{}
	svc := NewReportService(testConfig(), repo, notifier, zap.NewNop())
	return svc, m, notifier
}

var principalActor = Actor{UserID: "principal", Role: model.RolePrincipal}

func TestStudentReport_LeaveCountsInTotal(t *testing.T) {
	svc, m, _ := setupReportService()
	m.attendance.rows = rowsFor(testStudent1, "张三", 7, 2, 1)

	report, err := svc.Student(context.Background(), testStudent1, &dto.ReportScopeRequest{}, principalActor)
	if err != nil {
		t.Fatalf("Student 应成功: %v", err)
	}
	if report.Overall.Percentage != 70.0 {
		t.Errorf("期望 70.0，实际=%v", report.Overall.Percentage)
	}
	if report.Overall.Total != 10 || report.Overall.Leave != 1 {
		t.Errorf("计数不符: %+v", report.Overall)
	}
	if len(report.Subjects) != 1 || report.Subjects[0].Percentage != 70.0 {
		t.Errorf("科目汇总不符: %+v", report.Subjects)
	}
}

func TestStudentReport_ExcludeLeavePolicy(t *testing.T) {
	svc, m, _ := setupReportService()
	m.policy.policy = &model.AttendancePolicy{Singleton: true, LowThreshold: 75, LeaveCountsInTotal: false}
	m.attendance.rows = rowsFor(testStudent1, "张三", 6, 2, 2)

	report, err := svc.Student(context.Background(), testStudent1, nil, principalActor)
	if err != nil {
		t.Fatalf("Student 应成功: %v", err)
	}
	if report.Overall.Percentage != 75.0 {
		t.Errorf("请假不计入分母时期望 75.0，实际=%v", report.Overall.Percentage)
	}
}

func TestStudentReport_OtherStudentForbidden(t *testing.T) {
	svc, _, _ := setupReportService()

	_, err := svc.Student(context.Background(), testStudent2, nil, Actor{UserID: testStudent1, Role: model.RoleStudent})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
}

func TestStudentReport_EmptyIsZero(t *testing.T) {
	svc, _, _ := setupReportService()

	report, err := svc.Student(context.Background(), testStudent1, nil, principalActor)
	if err != nil {
		t.Fatalf("Student 应成功: %v", err)
	}
	if report.Overall.Percentage != 0 || len(report.Subjects) != 0 {
		t.Errorf("无记录时出勤率应为 0，实际=%+v", report)
	}
}

func TestClassReport_PerStudent(t *testing.T) {
	svc, m, _ := setupReportService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)

	report, err := svc.Class(context.Background(), testClassID, testSubject, nil, teacherActor)
	if err != nil {
		t.Fatalf("Class 应成功: %v", err)
	}
	if len(report.Students) != 2 {
		t.Fatalf("期望 2 名学生，实际=%d", len(report.Students))
	}
	if report.Overall.Percentage != 75.0 {
		t.Errorf("期望整体 75.0，实际=%v", report.Overall.Percentage)
	}
}

func TestDepartmentReport_HODOtherDepartment(t *testing.T) {
	svc, _, _ := setupReportService()
	hod := Actor{UserID: "hod", Role: model.RoleHOD, DepartmentID: "other"}

	_, err := svc.Department(context.Background(), testDeptID, nil, hod)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
}

func TestLow_ThresholdBelowStrict(t *testing.T) {
	svc, m, _ := setupReportService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)

	low, err := svc.Low(context.Background(), &dto.LowAttendanceRequest{Threshold: "75"}, principalActor)
	if err != nil {
		t.Fatalf("Low 应成功: %v", err)
	}
	if len(low) != 1 || low[0].StudentID != testStudent1 {
		t.Fatalf("只应返回学生 1，实际=%+v", low)
	}
	if low[0].Percentage != 70.0 {
		t.Errorf("期望 70.0，实际=%v", low[0].Percentage)
	}

	// 边界值不算低于
	low, _ = svc.Low(context.Background(), &dto.LowAttendanceRequest{Threshold: "70"}, principalActor)
	if len(low) != 0 {
		t.Errorf("70%% 不应低于 70，实际=%+v", low)
	}
}

func TestLow_DefaultsToPolicyThreshold(t *testing.T) {
	svc, m, _ := setupReportService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)

	low, err := svc.Low(context.Background(), &dto.LowAttendanceRequest{Threshold: "oops"}, principalActor)
	if err != nil {
		t.Fatalf("Low 应成功: %v", err)
	}
	if len(low) != 1 {
		t.Errorf("默认阈值 75 下期望 1 条，实际=%d", len(low))
	}
}

func TestTop_SortedDescending(t *testing.T) {
	svc, m, _ := setupReportService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 9, 1, 0)...)

	top, err := svc.Top(context.Background(), &dto.LowAttendanceRequest{Limit: 1}, principalActor)
	if err != nil {
		t.Fatalf("Top 应成功: %v", err)
	}
	if len(top) != 1 || top[0].StudentID != testStudent2 {
		t.Errorf("期望学生 2 排第一，实际=%+v", top)
	}
}

func TestNotifyLow_QueuesAlerts(t *testing.T) {
	svc, m, notifier := setupReportService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)

	resp, err := svc.NotifyLow(context.Background(), &dto.LowAttendanceRequest{}, principalActor)
	if err != nil {
		t.Fatalf("NotifyLow 应成功: %v", err)
	}
	if resp.Students != 1 || resp.Queued != 1 {
		t.Errorf("期望 1/1，实际=%+v", resp)
	}
	if notifier.messages[0].UserID != testStudent1 || notifier.messages[0].Kind != model.NotifyLowAttendance {
		t.Errorf("通知不符: %+v", notifier.messages[0])
	}
}

func TestMonthlyTrend_SortedByPeriod(t *testing.T) {
	svc, m, _ := setupReportService()
	rows := rowsFor(testStudent1, "张三", 2, 0, 0)
	rows[0].AttendanceDate = mustDate("2024-04-02")
	rows[1].AttendanceDate = mustDate("2024-03-02")
	m.attendance.rows = rows

	points, err := svc.MonthlyTrend(context.Background(), &dto.ReportScopeRequest{}, principalActor)
	if err != nil {
		t.Fatalf("MonthlyTrend 应成功: %v", err)
	}
	if len(points) != 2 || points[0].Period != "2024-03" || points[1].Period != "2024-04" {
		t.Errorf("趋势点不符: %+v", points)
	}
}

func TestSendWeeklyReports_OnePerTeacher(t *testing.T) {
	svc, _, notifier := setupReportService()

	sent, err := svc.SendWeeklyReports(context.Background())
	if err != nil {
		t.Fatalf("SendWeeklyReports 应成功: %v", err)
	}
	if sent != 2 {
		t.Errorf("期望 2 位教师，实际=%d", sent)
	}
	if notifier.kinds()[model.NotifyWeeklyReport] != 2 {
		t.Errorf("期望 2 条周报，实际=%v", notifier.kinds())
	}
}

func TestWeeklySummaries_CountsDistinctDates(t *testing.T) {
	rows := rowsFor(testStudent1, "张三", 3, 0, 0)
	rows = append(rows, rowsFor(testStudent2, "李四", 3, 0, 0)...)

	out := weeklySummaries(rows, stats.LeaveInTotal)
	if len(out) != 1 {
		t.Fatalf("期望 1 组，实际=%d", len(out))
	}
	if out[0].Sessions != 3 {
		t.Errorf("期望 3 次课，实际=%d", out[0].Sessions)
	}
	if out[0].Total != 6 {
		t.Errorf("期望 6 条记录，实际=%d", out[0].Total)
	}
}
