package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
)

const applicantID = "66666666-6666-6666-6666-666666666666"

func setupRequestService() (EnrollmentRequestService, *mockRepos, *mockNotifier) {
	repo, m := newMockRepository()
	seedCampus(m)
	m.users.users[applicantID] = &model.User{
		UserID: applicantID, Name: "新同学", Email: "new@test.com",
		Role: model.RolePending, Status: model.UserStatusActive,
	}
	notifier := &mockNotifier{}
	return NewEnrollmentRequestService(repo, notifier, zap.NewNop()), m, notifier
}

func submitStudentRequest(t *testing.T, svc EnrollmentRequestService) string {
	t.Helper()
	resp, err := svc.Submit(context.Background(), &dto.SubmitEnrollmentRequest{
		RequestedRole:    "student",
		DepartmentID:     testDeptID,
		ClassID:          testClassID,
		EnrollmentNumber: "CSE099",
	}, applicantID)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	return resp.ID
}

var classTeacherActor = Actor{UserID: testCTID, Role: model.RoleClassTeacher, DepartmentID: testDeptID}

func TestApprove_ClassTeacherCreatesOneActiveEnrollment(t *testing.T) {
	svc, m, notifier := setupRequestService()
	// 旧学籍应被关闭
	m.enrollments.enrollments = append(m.enrollments.enrollments, &model.StudentEnrollment{
		EnrollmentID: "enr-old", StudentID: applicantID, ClassID: "old-class",
		EnrollmentNumber: "OLD", Status: model.EnrollmentActive,
	})
	id := submitStudentRequest(t, svc)

	resp, err := svc.Approve(context.Background(), id, &dto.ReviewRequest{Note: "ok"}, classTeacherActor)
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if resp.Status != model.ReviewApproved {
		t.Errorf("期望 approved，实际=%s", resp.Status)
	}

	if n := m.enrollments.activeCount(applicantID); n != 1 {
		t.Fatalf("期望恰好 1 条在读学籍，实际=%d", n)
	}
	active, _ := m.enrollments.GetActiveByStudent(context.Background(), applicantID)
	if active.EnrollmentNumber != "CSE099" || active.ClassID != testClassID {
		t.Errorf("学籍信息不符: %+v", active)
	}
	if active.Semester != 3 || active.AcademicYear != "2023-2024" {
		t.Errorf("学籍应取班级学期: %d %s", active.Semester, active.AcademicYear)
	}

	u := m.users.users[applicantID]
	if u.Role != model.RoleStudent || u.DeptID() != testDeptID {
		t.Errorf("用户角色或院系未更新: %s %s", u.Role, u.DeptID())
	}
	if notifier.kinds()[model.NotifyEnrollmentDecision] != 1 {
		t.Errorf("期望 1 条审批通知，实际=%v", notifier.kinds())
	}
}

func TestApprove_AlreadyDecided(t *testing.T) {
	svc, m, _ := setupRequestService()
	id := submitStudentRequest(t, svc)

	if _, err := svc.Reject(context.Background(), id, &dto.ReviewRequest{Note: "no"}, classTeacherActor); err != nil {
		t.Fatalf("Reject 应成功: %v", err)
	}
	_, err := svc.Approve(context.Background(), id, &dto.ReviewRequest{}, classTeacherActor)
	if !errors.Is(err, ErrRequestAlreadyDecided) {
		t.Errorf("期望 ErrRequestAlreadyDecided，实际: %v", err)
	}
	if n := m.enrollments.activeCount(applicantID); n != 0 {
		t.Errorf("驳回后不应产生学籍，实际=%d", n)
	}
}

func TestApprove_PrincipalCannotApproveStudent(t *testing.T) {
	svc, _, _ := setupRequestService()
	id := submitStudentRequest(t, svc)

	_, err := svc.Approve(context.Background(), id, &dto.ReviewRequest{}, principalActor)
	if !errors.Is(err, ErrReviewForbidden) {
		t.Errorf("期望 ErrReviewForbidden，实际: %v", err)
	}
}

func TestApprove_HODOfOtherDepartment(t *testing.T) {
	svc, _, _ := setupRequestService()
	id := submitStudentRequest(t, svc)

	hod := Actor{UserID: "hod", Role: model.RoleHOD, DepartmentID: "other"}
	_, err := svc.Approve(context.Background(), id, &dto.ReviewRequest{}, hod)
	if !errors.Is(err, ErrReviewForbidden) {
		t.Errorf("期望 ErrReviewForbidden，实际: %v", err)
	}
}

func TestApprove_PrincipalApprovesHOD(t *testing.T) {
	svc, m, _ := setupRequestService()
	resp, err := svc.Submit(context.Background(), &dto.SubmitEnrollmentRequest{
		RequestedRole: "hod",
		DepartmentID:  testDeptID,
	}, applicantID)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	if _, err := svc.Approve(context.Background(), resp.ID, &dto.ReviewRequest{}, principalActor); err != nil {
		t.Fatalf("校长审批系主任应成功: %v", err)
	}
	if m.users.users[applicantID].Role != model.RoleHOD {
		t.Errorf("期望角色 hod，实际=%s", m.users.users[applicantID].Role)
	}
	if n := m.enrollments.activeCount(applicantID); n != 0 {
		t.Errorf("非学生角色不应产生学籍，实际=%d", n)
	}
}

func TestSubmit_OnePendingPerUser(t *testing.T) {
	svc, _, _ := setupRequestService()
	submitStudentRequest(t, svc)

	_, err := svc.Submit(context.Background(), &dto.SubmitEnrollmentRequest{
		RequestedRole: "teacher",
		DepartmentID:  testDeptID,
	}, applicantID)
	if !errors.Is(err, ErrRequestPendingExists) {
		t.Errorf("期望 ErrRequestPendingExists，实际: %v", err)
	}
}

func TestSubmit_StudentNeedsClassAndNumber(t *testing.T) {
	svc, _, _ := setupRequestService()

	_, err := svc.Submit(context.Background(), &dto.SubmitEnrollmentRequest{
		RequestedRole: "student",
		DepartmentID:  testDeptID,
	}, applicantID)
	if !errors.Is(err, ErrStudentDetailsRequired) {
		t.Errorf("期望 ErrStudentDetailsRequired，实际: %v", err)
	}
}

func TestSubmit_CannotRequestAdmin(t *testing.T) {
	svc, _, _ := setupRequestService()

	_, err := svc.Submit(context.Background(), &dto.SubmitEnrollmentRequest{
		RequestedRole: "admin",
		DepartmentID:  testDeptID,
	}, applicantID)
	if !errors.Is(err, ErrInvalidRequestedRole) {
		t.Errorf("期望 ErrInvalidRequestedRole，实际: %v", err)
	}
}
