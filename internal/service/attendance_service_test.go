package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/pkg/jwt"
)

func setupAttendanceService() (AttendanceService, *mockRepos, *mockNotifier) {
	cfg := testConfig()
	repo, m := newMockRepository()
	seedCampus(m)
	notifier := &mockNotifier{}
	svc := NewAttendanceService(cfg, repo, jwt.NewManager(&cfg.Auth), notifier, nil, zap.NewNop())
	return svc, m, notifier
}

var teacherActor = Actor{UserID: testTeacherID, Role: model.RoleTeacher, DepartmentID: testDeptID}

func markRequest(entries ...dto.MarkEntry) *dto.MarkAttendanceRequest {
	return &dto.MarkAttendanceRequest{
		ClassID:     testClassID,
		SubjectCode: testSubject,
		Date:        testDate,
		Entries:     entries,
	}
}

// ── Mark ──

func TestMark_TwiceKeepsOneRecordWithLatestStatus(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	ctx := context.Background()

	if _, err := svc.Mark(ctx, markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"}), teacherActor); err != nil {
		t.Fatalf("第一次标记应成功: %v", err)
	}
	resp, err := svc.Mark(ctx, markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "Absent"}), teacherActor)
	if err != nil {
		t.Fatalf("第二次标记应成功: %v", err)
	}
	if resp.Written != 1 {
		t.Errorf("期望 Written=1，实际=%d", resp.Written)
	}
	if len(m.attendance.records) != 1 {
		t.Fatalf("期望 1 条记录，实际=%d", len(m.attendance.records))
	}
	for _, rec := range m.attendance.records {
		if rec.Status != model.StatusAbsent {
			t.Errorf("期望状态 absent，实际=%s", rec.Status)
		}
		if rec.Semester != 3 || rec.AcademicYear != "2023-2024" {
			t.Errorf("学期应取班级默认值，实际=%d %s", rec.Semester, rec.AcademicYear)
		}
		if rec.MarkedBy != testTeacherID {
			t.Errorf("期望 MarkedBy=%s，实际=%s", testTeacherID, rec.MarkedBy)
		}
	}
}

func TestMark_SkipsStudentsNotEnrolled(t *testing.T) {
	svc, m, _ := setupAttendanceService()

	resp, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
		dto.MarkEntry{StudentID: testStudent3, Status: "present"},
	), teacherActor)
	if err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	if resp.Written != 1 {
		t.Errorf("期望 Written=1，实际=%d", resp.Written)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != testStudent3 {
		t.Errorf("期望跳过学生 3，实际=%v", resp.Skipped)
	}
	if len(m.attendance.records) != 1 {
		t.Errorf("期望 1 条记录，实际=%d", len(m.attendance.records))
	}
}

func TestMark_DuplicateEntryLastWins(t *testing.T) {
	svc, m, _ := setupAttendanceService()

	resp, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
		dto.MarkEntry{StudentID: testStudent1, Status: "leave"},
	), teacherActor)
	if err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	if resp.Written != 1 {
		t.Errorf("期望 Written=1，实际=%d", resp.Written)
	}
	for _, rec := range m.attendance.records {
		if rec.Status != model.StatusLeave {
			t.Errorf("期望状态 leave，实际=%s", rec.Status)
		}
	}
}

func TestMark_ApprovedLeaveTurnsAbsentIntoLeave(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	m.leaves.leaves["leave-1"] = &model.LeaveApplication{
		LeaveID:   "leave-1",
		StudentID: testStudent2,
		ClassID:   testClassID,
		FromDate:  mustDate("2024-03-01"),
		ToDate:    mustDate("2024-03-08"),
		Status:    model.ReviewApproved,
	}

	resp, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent2, Status: "absent"},
	), teacherActor)
	if err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	if len(resp.Leave) != 1 {
		t.Errorf("期望 1 名学生改记请假，实际=%v", resp.Leave)
	}
	for _, rec := range m.attendance.records {
		if rec.Status != model.StatusLeave {
			t.Errorf("期望状态 leave，实际=%s", rec.Status)
		}
	}
}

func TestMark_NotifiesEachWrittenStudent(t *testing.T) {
	svc, _, notifier := setupAttendanceService()

	_, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
		dto.MarkEntry{StudentID: testStudent2, Status: "absent"},
	), teacherActor)
	if err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	if got := notifier.kinds()[model.NotifyAttendanceUpdate]; got != 2 {
		t.Errorf("期望 2 条考勤通知，实际=%d", got)
	}
}

func TestMark_NotifierFailureDoesNotFail(t *testing.T) {
	svc, m, notifier := setupAttendanceService()
	notifier.err = errors.New("queue down")

	if _, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
	), teacherActor); err != nil {
		t.Fatalf("通知失败不应影响标记: %v", err)
	}
	if len(m.attendance.records) != 1 {
		t.Errorf("期望 1 条记录，实际=%d", len(m.attendance.records))
	}
}

func TestMark_TeacherWithoutAssignment(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	m.assignments.assignments = nil

	_, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
	), teacherActor)
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("期望 ErrNotAssigned，实际: %v", err)
	}
}

func TestMark_HODOfOtherDepartment(t *testing.T) {
	svc, _, _ := setupAttendanceService()
	hod := Actor{UserID: "hod-x", Role: model.RoleHOD, DepartmentID: "other-dept"}

	_, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "present"},
	), hod)
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("期望 ErrNotAssigned，实际: %v", err)
	}
}

func TestMark_FutureDate(t *testing.T) {
	svc, _, _ := setupAttendanceService()
	req := markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"})
	req.Date = time.Now().AddDate(0, 0, 2).Format(model.DateLayout)

	_, err := svc.Mark(context.Background(), req, teacherActor)
	if !errors.Is(err, ErrFutureDate) {
		t.Errorf("期望 ErrFutureDate，实际: %v", err)
	}
}

func TestMark_InvalidStatus(t *testing.T) {
	svc, m, _ := setupAttendanceService()

	_, err := svc.Mark(context.Background(), markRequest(
		dto.MarkEntry{StudentID: testStudent1, Status: "late"},
	), teacherActor)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("期望 ErrInvalidStatus，实际: %v", err)
	}
	if m.attendance.upserts != 0 {
		t.Error("校验失败时不应写入")
	}
}

func TestMark_UnknownClass(t *testing.T) {
	svc, _, _ := setupAttendanceService()
	req := markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"})
	req.ClassID = "99999999-9999-9999-9999-999999999999"

	_, err := svc.Mark(context.Background(), req, teacherActor)
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际: %v", err)
	}
}

// ── Sheet / Update ──

func TestSheet_ShowsRosterWithMarkedStatus(t *testing.T) {
	svc, _, _ := setupAttendanceService()
	ctx := context.Background()
	if _, err := svc.Mark(ctx, markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"}), teacherActor); err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}

	sheet, err := svc.Sheet(ctx, &dto.AttendanceSheetRequest{ClassID: testClassID, SubjectCode: testSubject, Date: testDate}, teacherActor)
	if err != nil {
		t.Fatalf("Sheet 应成功: %v", err)
	}
	if len(sheet) != 2 {
		t.Fatalf("期望 2 名在读学生，实际=%d", len(sheet))
	}
	byID := map[string]dto.AttendanceSheetEntry{}
	for _, e := range sheet {
		byID[e.StudentID] = e
	}
	if byID[testStudent1].Status != "present" {
		t.Errorf("学生 1 期望 present，实际=%q", byID[testStudent1].Status)
	}
	if byID[testStudent2].Status != "" {
		t.Errorf("学生 2 未标记，实际=%q", byID[testStudent2].Status)
	}
}

func TestUpdate_ChangesStatus(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	ctx := context.Background()
	if _, err := svc.Mark(ctx, markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"}), teacherActor); err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	var id string
	for _, rec := range m.attendance.records {
		id = rec.AttendanceID
	}

	status := "absent"
	resp, err := svc.Update(ctx, id, &dto.UpdateAttendanceRequest{Status: &status}, teacherActor)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Status != "absent" {
		t.Errorf("期望 absent，实际=%s", resp.Status)
	}
}

func TestUpdate_StudentForbidden(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	ctx := context.Background()
	if _, err := svc.Mark(ctx, markRequest(dto.MarkEntry{StudentID: testStudent1, Status: "present"}), teacherActor); err != nil {
		t.Fatalf("Mark 应成功: %v", err)
	}
	var id string
	for _, rec := range m.attendance.records {
		id = rec.AttendanceID
	}

	status := "absent"
	student := Actor{UserID: testStudent1, Role: model.RoleStudent}
	_, err := svc.Update(ctx, id, &dto.UpdateAttendanceRequest{Status: &status}, student)
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("期望 ErrNotAssigned，实际: %v", err)
	}
}

// ── View ──

func TestView_PendingRoleRejected(t *testing.T) {
	svc, _, _ := setupAttendanceService()

	_, _, err := svc.View(context.Background(), &dto.AttendanceViewRequest{}, Actor{UserID: "x", Role: model.RolePending})
	if !errors.Is(err, ErrRolePending) {
		t.Errorf("期望 ErrRolePending，实际: %v", err)
	}
}

func TestView_PaginatesScopedRows(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	m.attendance.rows = rowsFor(testStudent1, "张三", 5, 0, 0)

	list, total, err := svc.View(context.Background(), &dto.AttendanceViewRequest{
		PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2},
	}, teacherActor)
	if err != nil {
		t.Fatalf("View 应成功: %v", err)
	}
	if total != 5 {
		t.Errorf("期望 total=5，实际=%d", total)
	}
	if len(list) != 2 {
		t.Errorf("期望本页 2 条，实际=%d", len(list))
	}
	sql, _ := m.attendance.filters[0].Compile()
	if sql == "" {
		t.Error("教师查询必须带范围条件")
	}
}

// ── Filter ──

func TestFilter_TokenRoundTripAppliesThreshold(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)
	ctx := context.Background()

	tok, err := svc.Filter(ctx, dto.AttendanceFilter{Threshold: "75", ComparisonType: "below"}, teacherActor)
	if err != nil {
		t.Fatalf("Filter 应成功: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("Token 不应为空")
	}
	if tok.Total != 10 {
		t.Errorf("期望 total=10，实际=%d", tok.Total)
	}

	res, err := svc.FilterResults(ctx, &dto.FilterResultRequest{Token: tok.Token}, teacherActor)
	if err != nil {
		t.Fatalf("FilterResults 应成功: %v", err)
	}
	if res.Total != 10 {
		t.Errorf("期望 10 条，实际=%d", res.Total)
	}
	for _, r := range res.Records {
		if r.StudentID != testStudent1 {
			t.Errorf("只应保留学生 1，实际出现 %s", r.StudentID)
		}
	}
	if res.Criteria.Threshold != "75" {
		t.Errorf("条件应来自令牌，实际=%+v", res.Criteria)
	}
}

func TestFilter_TokenOfAnotherUser(t *testing.T) {
	svc, _, _ := setupAttendanceService()
	ctx := context.Background()

	tok, err := svc.Filter(ctx, dto.AttendanceFilter{}, teacherActor)
	if err != nil {
		t.Fatalf("Filter 应成功: %v", err)
	}
	other := Actor{UserID: testCTID, Role: model.RoleClassTeacher}
	_, err = svc.FilterResults(ctx, &dto.FilterResultRequest{Token: tok.Token}, other)
	if !errors.Is(err, ErrFilterTokenNotOwned) {
		t.Errorf("期望 ErrFilterTokenNotOwned，实际: %v", err)
	}
}

func TestFilter_GarbageToken(t *testing.T) {
	svc, _, _ := setupAttendanceService()

	_, err := svc.FilterResults(context.Background(), &dto.FilterResultRequest{Token: "not-a-token"}, teacherActor)
	if !errors.Is(err, ErrFilterTokenInvalid) {
		t.Errorf("期望 ErrFilterTokenInvalid，实际: %v", err)
	}
}

func TestFilter_UnparsableThresholdIgnored(t *testing.T) {
	svc, m, _ := setupAttendanceService()
	m.attendance.rows = append(rowsFor(testStudent1, "张三", 7, 3, 0), rowsFor(testStudent2, "李四", 8, 2, 0)...)

	res, err := svc.FilterResults(context.Background(), &dto.FilterResultRequest{
		AttendanceFilter: dto.AttendanceFilter{Threshold: "abc", ComparisonType: "below"},
	}, teacherActor)
	if err != nil {
		t.Fatalf("FilterResults 应成功: %v", err)
	}
	if res.Total != 20 {
		t.Errorf("无法解析的阈值不应过滤，期望 20，实际=%d", res.Total)
	}
}
