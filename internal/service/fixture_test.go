package service

import (
	"time"

	"campus-attendance/config"
	"campus-attendance/internal/model"
)

const (
	testDeptID    = "11111111-1111-1111-1111-111111111111"
	testClassID   = "22222222-2222-2222-2222-222222222222"
	testSubject   = "CS101"
	testTeacherID = "33333333-3333-3333-3333-333333333333"
	testCTID      = "44444444-4444-4444-4444-444444444444"
	testStudent1  = "55555555-5555-5555-5555-555555555551"
	testStudent2  = "55555555-5555-5555-5555-555555555552"
	testStudent3  = "55555555-5555-5555-5555-555555555553"
	testDate      = "2024-03-04"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
			FilterTokenTTL:          30 * time.Minute,
		},
		Attendance: config.AttendanceConfig{
			LeavePolicy:  "include",
			LowThreshold: 75,
			NotifyOnMark: true,
		},
	}
}

// seedCampus 一个院系、一个班级、一门科目；任课教师、班主任各一名；
// 学生 1、2 在读，学生 3 未注册
func seedCampus(m *mockRepos) {
	deptID := testDeptID
	m.depts.depts[testDeptID] = &model.Department{DepartmentID: testDeptID, Code: "CSE", Name: "计算机系"}
	m.classes.classes[testClassID] = &model.Class{
		ClassID:      testClassID,
		Name:         "CSE-3A",
		DepartmentID: testDeptID,
		Semester:     3,
		AcademicYear: "2023-2024",
		IsActive:     true,
	}
	m.subjects.subjects[testSubject] = &model.Subject{SubjectCode: testSubject, Name: "数据结构", Credits: 4}

	for _, u := range []*model.User{
		{UserID: testTeacherID, Name: "王老师", Email: "wang@test.com", Role: model.RoleTeacher, DepartmentID: &deptID, Status: model.UserStatusActive},
		{UserID: testCTID, Name: "李老师", Email: "li@test.com", Role: model.RoleClassTeacher, DepartmentID: &deptID, Status: model.UserStatusActive},
		{UserID: testStudent1, Name: "张三", Email: "s1@test.com", Role: model.RoleStudent, DepartmentID: &deptID, Status: model.UserStatusActive},
		{UserID: testStudent2, Name: "李四", Email: "s2@test.com", Role: model.RoleStudent, DepartmentID: &deptID, Status: model.UserStatusActive},
		{UserID: testStudent3, Name: "王五", Email: "s3@test.com", Role: model.RoleStudent, DepartmentID: &deptID, Status: model.UserStatusActive},
	} {
		m.users.users[u.UserID] = u
	}

	m.assignments.assignments = append(m.assignments.assignments,
		&model.TeacherAssignment{
			AssignmentID: "asg-teacher", TeacherID: testTeacherID, SubjectCode: testSubject, ClassID: testClassID,
			AssignmentType: model.AssignmentTeacher, Semester: 3, AcademicYear: "2023-2024", IsActive: true,
			Teacher: m.users.users[testTeacherID],
		},
		&model.TeacherAssignment{
			AssignmentID: "asg-ct", TeacherID: testCTID, SubjectCode: testSubject, ClassID: testClassID,
			AssignmentType: model.AssignmentClassTeacher, Semester: 3, AcademicYear: "2023-2024", IsActive: true,
			Teacher: m.users.users[testCTID],
		},
	)

	for i, id := range []string{testStudent1, testStudent2} {
		m.enrollments.enrollments = append(m.enrollments.enrollments, &model.StudentEnrollment{
			EnrollmentID:     "enr-seed-" + id,
			StudentID:        id,
			ClassID:          testClassID,
			EnrollmentNumber: []string{"CSE001", "CSE002"}[i],
			Semester:         3,
			AcademicYear:     "2023-2024",
			Status:           model.EnrollmentActive,
		})
	}
}

func mustDate(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// rowsFor 生成某学生某科目的考勤行：present 个出勤、absent 个缺勤、leave 个请假
func rowsFor(studentID, name string, present, absent, leave int) []model.AttendanceRow {
	var rows []model.AttendanceRow
	day := mustDate("2024-03-01")
	add := func(n int, st model.Status) {
		for i := 0; i < n; i++ {
			rows = append(rows, model.AttendanceRow{
				AttendanceID:   studentID + "-" + day.Format(model.DateLayout),
				StudentID:      studentID,
				StudentName:    name,
				SubjectCode:    testSubject,
				SubjectName:    "数据结构",
				ClassID:        testClassID,
				ClassName:      "CSE-3A",
				DepartmentID:   testDeptID,
				AttendanceDate: day,
				Semester:       3,
				AcademicYear:   "2023-2024",
				Status:         st,
				MarkedBy:       testTeacherID,
			})
			day = day.AddDate(0, 0, 1)
		}
	}
	add(present, model.StatusPresent)
	add(absent, model.StatusAbsent)
	add(leave, model.StatusLeave)
	return rows
}
