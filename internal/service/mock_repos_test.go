package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"campus-attendance/internal/model"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/sqlfilter"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role model.Role, departmentID *string, _ string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	u.DepartmentID = departmentID
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.DepartmentID != "" && u.DeptID() != filter.DepartmentID {
			continue
		}
		if filter.Role != "" && string(u.Role) != filter.Role {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts    map[string]*model.Department
	subjects []model.DepartmentSubject
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Code
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(ctx context.Context) ([]model.Department, error) {
	return m.ListAll(ctx)
}

func (m *mockDeptRepo) ListAll(_ context.Context) ([]model.Department, error) {
	var out []model.Department
	for _, d := range m.depts {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.depts, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, _ string) (int64, error) { return 0, nil }
func (m *mockDeptRepo) CountClasses(_ context.Context, _ string) (int64, error) { return 0, nil }

func (m *mockDeptRepo) AddSubject(_ context.Context, ds *model.DepartmentSubject) error {
	m.subjects = append(m.subjects, *ds)
	return nil
}

func (m *mockDeptRepo) ListSubjects(_ context.Context, departmentID string, semester int) ([]model.DepartmentSubject, error) {
	var out []model.DepartmentSubject
	for _, ds := range m.subjects {
		if ds.DepartmentID == departmentID && (semester == 0 || ds.Semester == semester) {
			out = append(out, ds)
		}
	}
	return out, nil
}

// ── Mock ClassRepository / SubjectRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		class.ClassID = "class-" + class.Name
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context, filter repository.ClassFilter) ([]model.Class, error) {
	var out []model.Class
	for _, c := range m.classes {
		if filter.DepartmentID != "" && c.DepartmentID != filter.DepartmentID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockClassRepo) ListByIDs(_ context.Context, ids []string) ([]model.Class, error) {
	var out []model.Class
	for _, id := range ids {
		if c, ok := m.classes[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	m.subjects[subject.SubjectCode] = subject
	return nil
}

func (m *mockSubjectRepo) GetByCode(_ context.Context, code string) (*model.Subject, error) {
	if s, ok := m.subjects[code]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range m.subjects {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	m.subjects[subject.SubjectCode] = subject
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, code string, _ string) error {
	delete(m.subjects, code)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	enrollments []*model.StudentEnrollment
	users       *mockUserRepo // ListActiveByClass 预加载学生
}

func newMockEnrollmentRepo(users *mockUserRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{users: users}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.StudentEnrollment) error {
	if e.EnrollmentID == "" {
		e.EnrollmentID = fmt.Sprintf("enr-%d", len(m.enrollments)+1)
	}
	m.enrollments = append(m.enrollments, e)
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.StudentEnrollment, error) {
	for _, e := range m.enrollments {
		if e.EnrollmentID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) GetActiveByStudent(_ context.Context, studentID string) (*model.StudentEnrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentActive {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.StudentEnrollment, error) {
	var out []model.StudentEnrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListActiveByClass(_ context.Context, classID string) ([]model.StudentEnrollment, error) {
	var out []model.StudentEnrollment
	for _, e := range m.enrollments {
		if e.ClassID != classID || e.Status != model.EnrollmentActive {
			continue
		}
		row := *e
		if m.users != nil {
			row.Student = m.users.users[e.StudentID]
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *mockEnrollmentRepo) CloseActive(_ context.Context, studentID string, _ string) error {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentActive {
			e.Status = model.EnrollmentCompleted
		}
	}
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(_ context.Context, id string, status string, _ string) error {
	for _, e := range m.enrollments {
		if e.EnrollmentID == id {
			e.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) activeCount(studentID string) int {
	n := 0
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == model.EnrollmentActive {
			n++
		}
	}
	return n
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments []*model.TeacherAssignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.TeacherAssignment) error {
	if a.AssignmentID == "" {
		a.AssignmentID = fmt.Sprintf("asg-%d", len(m.assignments)+1)
	}
	a.IsActive = true
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.TeacherAssignment, error) {
	for _, a := range m.assignments {
		if a.AssignmentID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]model.TeacherAssignment, error) {
	var out []model.TeacherAssignment
	for _, a := range m.assignments {
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		if filter.TeacherID != "" && a.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ClassID != "" && a.ClassID != filter.ClassID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAssignmentRepo) HasScope(_ context.Context, teacherID, classID, subjectCode string) (bool, error) {
	for _, a := range m.assignments {
		if a.IsActive && a.TeacherID == teacherID && a.ClassID == classID && a.SubjectCode == subjectCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAssignmentRepo) IsClassTeacher(_ context.Context, teacherID, classID string) (bool, error) {
	for _, a := range m.assignments {
		if a.IsActive && a.TeacherID == teacherID && a.ClassID == classID && a.AssignmentType == model.AssignmentClassTeacher {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAssignmentRepo) GetClassTeacher(_ context.Context, classID string) (*model.TeacherAssignment, error) {
	for _, a := range m.assignments {
		if a.IsActive && a.ClassID == classID && a.AssignmentType == model.AssignmentClassTeacher {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ClassTeacherClassIDs(_ context.Context, teacherID string) ([]string, error) {
	var ids []string
	for _, a := range m.assignments {
		if a.IsActive && a.TeacherID == teacherID && a.AssignmentType == model.AssignmentClassTeacher {
			ids = append(ids, a.ClassID)
		}
	}
	return ids, nil
}

func (m *mockAssignmentRepo) Deactivate(_ context.Context, id string, _ string) error {
	for _, a := range m.assignments {
		if a.AssignmentID == id {
			a.IsActive = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock AttendanceRepository ──

// mockAttendanceRepo 以 (学生, 科目, 日期) 为键保存，模拟唯一索引与 upsert
type mockAttendanceRepo struct {
	records map[string]*model.Attendance
	rows    []model.AttendanceRow // ListRows / PageRows 返回值
	filters []*sqlfilter.Filter   // 记录收到的查询条件
	upserts int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.Attendance)}
}

func attendanceKey(a *model.Attendance) string {
	return a.StudentID + "|" + a.SubjectCode + "|" + a.AttendanceDate.Format(model.DateLayout)
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, records []model.Attendance) (int, error) {
	m.upserts++
	for i := range records {
		rec := records[i]
		k := attendanceKey(&rec)
		if old, ok := m.records[k]; ok {
			rec.AttendanceID = old.AttendanceID
		} else {
			rec.AttendanceID = fmt.Sprintf("att-%d", len(m.records)+1)
		}
		m.records[k] = &rec
	}
	return len(records), nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.Attendance, error) {
	for _, a := range m.records {
		if a.AttendanceID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.Attendance) error {
	for k, a := range m.records {
		if a.AttendanceID == record.AttendanceID {
			cp := *record
			m.records[k] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListRows(_ context.Context, filter *sqlfilter.Filter) ([]model.AttendanceRow, error) {
	m.filters = append(m.filters, filter)
	return m.rows, nil
}

func (m *mockAttendanceRepo) PageRows(_ context.Context, filter *sqlfilter.Filter, offset, limit int) ([]model.AttendanceRow, int64, error) {
	m.filters = append(m.filters, filter)
	total := int64(len(m.rows))
	if offset >= len(m.rows) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	return m.rows[offset:end], total, nil
}

func (m *mockAttendanceRepo) ListForClassDate(_ context.Context, classID, subjectCode string, date time.Time) ([]model.Attendance, error) {
	var out []model.Attendance
	day := date.Format(model.DateLayout)
	for _, a := range m.records {
		if a.ClassID == classID && a.SubjectCode == subjectCode && a.AttendanceDate.Format(model.DateLayout) == day {
			out = append(out, *a)
		}
	}
	return out, nil
}

// ── Mock EnrollmentRequestRepository ──

type mockRequestRepo struct {
	requests map[string]*model.EnrollmentRequest
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.EnrollmentRequest)}
}

func (m *mockRequestRepo) Create(_ context.Context, req *model.EnrollmentRequest) error {
	if req.RequestID == "" {
		req.RequestID = fmt.Sprintf("req-%d", len(m.requests)+1)
	}
	m.requests[req.RequestID] = req
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.EnrollmentRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) GetPendingByUser(_ context.Context, userID string) (*model.EnrollmentRequest, error) {
	for _, r := range m.requests {
		if r.UserID == userID && r.Status == model.ReviewPending {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) ListByUser(_ context.Context, userID string) ([]model.EnrollmentRequest, error) {
	var out []model.EnrollmentRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) ListPending(_ context.Context, _ repository.RequestFilter) ([]model.EnrollmentRequest, error) {
	var out []model.EnrollmentRequest
	for _, r := range m.requests {
		if r.Status == model.ReviewPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) UpdateDecision(_ context.Context, id, status, reviewerID, note string) (bool, error) {
	r, ok := m.requests[id]
	if !ok || r.Status != model.ReviewPending {
		return false, nil
	}
	r.Status = status
	r.ReviewerID = &reviewerID
	r.ReviewNote = note
	return true, nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct {
	leaves map[string]*model.LeaveApplication
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.LeaveApplication)}
}

func (m *mockLeaveRepo) Create(_ context.Context, l *model.LeaveApplication) error {
	if l.LeaveID == "" {
		l.LeaveID = fmt.Sprintf("leave-%d", len(m.leaves)+1)
	}
	m.leaves[l.LeaveID] = l
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.LeaveApplication, error) {
	if l, ok := m.leaves[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) ListByStudent(_ context.Context, studentID string) ([]model.LeaveApplication, error) {
	var out []model.LeaveApplication
	for _, l := range m.leaves {
		if l.StudentID == studentID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLeaveRepo) ListPending(_ context.Context, classIDs []string, _ string) ([]model.LeaveApplication, error) {
	var out []model.LeaveApplication
	for _, l := range m.leaves {
		if l.Status != model.ReviewPending {
			continue
		}
		if classIDs != nil && !containsString(classIDs, l.ClassID) {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockLeaveRepo) UpdateDecision(_ context.Context, id, status, reviewerID, note string) (bool, error) {
	l, ok := m.leaves[id]
	if !ok || l.Status != model.ReviewPending {
		return false, nil
	}
	l.Status = status
	l.ReviewerID = &reviewerID
	l.ReviewNote = note
	return true, nil
}

func (m *mockLeaveRepo) ListApprovedCovering(_ context.Context, studentIDs []string, date time.Time) ([]model.LeaveApplication, error) {
	var out []model.LeaveApplication
	for _, l := range m.leaves {
		if l.Status == model.ReviewApproved && containsString(studentIDs, l.StudentID) && l.Covers(date) {
			out = append(out, *l)
		}
	}
	return out, nil
}

// ── Mock TermRepository / PolicyRepository ──

type mockTermRepo struct {
	terms map[string]*model.AcademicTerm
}

func newMockTermRepo() *mockTermRepo {
	return &mockTermRepo{terms: make(map[string]*model.AcademicTerm)}
}

func (m *mockTermRepo) Create(_ context.Context, t *model.AcademicTerm) error {
	if t.TermID == "" {
		t.TermID = fmt.Sprintf("term-%s-%d", t.AcademicYear, t.Semester)
	}
	m.terms[t.TermID] = t
	return nil
}

func (m *mockTermRepo) GetByID(_ context.Context, id string) (*model.AcademicTerm, error) {
	if t, ok := m.terms[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) GetCurrent(_ context.Context) (*model.AcademicTerm, error) {
	for _, t := range m.terms {
		if t.IsActive {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) List(_ context.Context) ([]model.AcademicTerm, error) {
	var out []model.AcademicTerm
	for _, t := range m.terms {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTermRepo) ClearActive(_ context.Context) error {
	for _, t := range m.terms {
		t.IsActive = false
	}
	return nil
}

func (m *mockTermRepo) SetActive(_ context.Context, id string, _ string) error {
	t, ok := m.terms[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.IsActive = true
	return nil
}

type mockPolicyRepo struct {
	policy *model.AttendancePolicy
}

func (m *mockPolicyRepo) Get(_ context.Context) (*model.AttendancePolicy, error) {
	if m.policy == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.policy
	return &cp, nil
}

func (m *mockPolicyRepo) Save(_ context.Context, p *model.AttendancePolicy) error {
	cp := *p
	m.policy = &cp
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []model.Notification
	prefs map[string]*model.NotificationPreference
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{prefs: make(map[string]*model.NotificationPreference)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("ntf-%d", len(m.items)+1)
	}
	m.items = append(m.items, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	for i := range m.items {
		if m.items[i].NotificationID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) GetPreference(_ context.Context, userID string) (*model.NotificationPreference, error) {
	if p, ok := m.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) SavePreference(_ context.Context, p *model.NotificationPreference) error {
	cp := *p
	m.prefs[p.UserID] = &cp
	return nil
}

// ── Mock Notifier ──

type mockNotifier struct {
	messages []notify.Message
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, msg notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) kinds() map[string]int {
	out := make(map[string]int)
	for _, msg := range m.messages {
		out[msg.Kind]++
	}
	return out
}

// ── 测试辅助 ──

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mockRepos 一组可直接断言的 mock
type mockRepos struct {
	users         *mockUserRepo
	depts         *mockDeptRepo
	classes       *mockClassRepo
	subjects      *mockSubjectRepo
	enrollments   *mockEnrollmentRepo
	assignments   *mockAssignmentRepo
	attendance    *mockAttendanceRepo
	requests      *mockRequestRepo
	leaves        *mockLeaveRepo
	terms         *mockTermRepo
	policy        *mockPolicyRepo
	notifications *mockNotificationRepo
}

// newMockRepository 未绑定数据库的 Repository，Transaction 直接在其上执行
func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	m := &mockRepos{
		users:         users,
		depts:         newMockDeptRepo(),
		classes:       newMockClassRepo(),
		subjects:      newMockSubjectRepo(),
		enrollments:   newMockEnrollmentRepo(users),
		assignments:   newMockAssignmentRepo(),
		attendance:    newMockAttendanceRepo(),
		requests:      newMockRequestRepo(),
		leaves:        newMockLeaveRepo(),
		terms:         newMockTermRepo(),
		policy:        &mockPolicyRepo{},
		notifications: newMockNotificationRepo(),
	}
	repo := &repository.Repository{
		User:              m.users,
		Department:        m.depts,
		Class:             m.classes,
		Subject:           m.subjects,
		Enrollment:        m.enrollments,
		Assignment:        m.assignments,
		Attendance:        m.attendance,
		EnrollmentRequest: m.requests,
		Leave:             m.leaves,
		Term:              m.terms,
		Policy:            m.policy,
		Notification:      m.notifications,
	}
	return repo, m
}
