package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
)

func setupAssignmentService() (AssignmentService, *mockRepos) {
	repo, m := newMockRepository()
	seedCampus(m)
	// 去掉种子中的班主任任课，便于重新分配
	m.assignments.assignments = m.assignments.assignments[:1]
	return NewAssignmentService(repo, zap.NewNop()), m
}

var adminActor = Actor{UserID: "admin", Role: model.RoleAdmin}

func TestAssignmentService_Create_ClassTeacherRequiresRole(t *testing.T) {
	svc, m := setupAssignmentService()

	_, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		TeacherID: testTeacherID, SubjectCode: testSubject, ClassID: testClassID,
		AssignmentType: string(model.AssignmentClassTeacher),
	}, adminActor)
	if !errors.Is(err, ErrNotClassTeacher) {
		t.Fatalf("期望 ErrNotClassTeacher，实际: %v", err)
	}
	if len(m.assignments.assignments) != 1 {
		t.Errorf("不应写入任课记录，实际: %d 条", len(m.assignments.assignments))
	}
}

func TestAssignmentService_Create_ClassTeacher(t *testing.T) {
	svc, m := setupAssignmentService()

	resp, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		TeacherID: testCTID, SubjectCode: testSubject, ClassID: testClassID,
		AssignmentType: string(model.AssignmentClassTeacher),
	}, adminActor)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.TeacherID != testCTID {
		t.Errorf("教师错误: %+v", resp)
	}
	ok, _ := m.assignments.IsClassTeacher(context.Background(), testCTID, testClassID)
	if !ok {
		t.Error("期望成为该班班主任")
	}
}

func TestAssignmentService_Create_SecondClassTeacher(t *testing.T) {
	repo, m := newMockRepository()
	seedCampus(m)
	other := "66666666-6666-6666-6666-666666666666"
	dept := testDeptID
	m.users.users[other] = &model.User{UserID: other, Name: "赵老师", Email: "zhao@test.com", Role: model.RoleClassTeacher, DepartmentID: &dept}
	svc := NewAssignmentService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		TeacherID: other, SubjectCode: testSubject, ClassID: testClassID,
		AssignmentType: string(model.AssignmentClassTeacher),
	}, adminActor)
	if !errors.Is(err, ErrClassTeacherExists) {
		t.Fatalf("期望 ErrClassTeacherExists，实际: %v", err)
	}
}

func TestAssignmentService_Create_StudentIsNotTeacher(t *testing.T) {
	svc, _ := setupAssignmentService()

	_, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		TeacherID: testStudent1, SubjectCode: testSubject, ClassID: testClassID,
	}, adminActor)
	if !errors.Is(err, ErrNotTeacher) {
		t.Fatalf("期望 ErrNotTeacher，实际: %v", err)
	}
}
