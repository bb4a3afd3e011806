package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/config"
	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
	"campus-attendance/internal/stats"
	"campus-attendance/pkg/sqlfilter"
)

// ── 报表模块业务错误 ──

var (
	ErrReportStudentNotFound = errors.New("学生不存在")
)

const defaultTopLimit = 10

// weeklyWindow 周报统计天数（含当天）
const weeklyWindow = 7

// ReportService 考勤报表业务接口
// 所有报表都在调用者的可见范围内统计
type ReportService interface {
	Student(ctx context.Context, studentID string, req *dto.ReportScopeRequest, actor Actor) (*dto.StudentReportResponse, error)
	// Class subjectCode 为空时统计全部科目
	Class(ctx context.Context, classID, subjectCode string, req *dto.ReportScopeRequest, actor Actor) (*dto.ClassReportResponse, error)
	Department(ctx context.Context, departmentID string, req *dto.ReportScopeRequest, actor Actor) (*dto.AggregateReportResponse, error)
	Institution(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) (*dto.AggregateReportResponse, error)
	MonthlyTrend(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TrendPoint, error)
	SemesterTrend(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TrendPoint, error)
	TeachersMarked(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TeacherMarkedSummary, error)
	TeacherWeekly(ctx context.Context, teacherID string) ([]dto.WeeklySummary, error)
	Low(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) ([]dto.LowAttendanceEntry, error)
	NotifyLow(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) (*dto.NotifyResultResponse, error)
	Top(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) ([]dto.LowAttendanceEntry, error)
	CompareClasses(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.GroupSummary, error)
	CompareSubjects(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.GroupSummary, error)

	// NotifyLowAttendance 定时任务：当前学期全校低出勤提醒
	NotifyLowAttendance(ctx context.Context) (int, error)
	// SendWeeklyReports 定时任务：向每位有效任课教师发送近 7 天周报
	SendWeeklyReports(ctx context.Context) (int, error)
}

type reportService struct {
	repo     *repository.Repository
	notifier notify.Notifier
	policy   *policyLoader
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, notifier notify.Notifier, logger *zap.Logger) ReportService {
	return &reportService{
		repo:     repo,
		notifier: notifier,
		policy:   newPolicyLoader(repo, cfg.Attendance, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// systemActor 定时任务以管理员范围运行
var systemActor = Actor{Role: model.RoleAdmin}

// reportFilter 报表范围条件：学期、学年、月份、院系
func reportFilter(req *dto.ReportScopeRequest) *sqlfilter.Filter {
	f := sqlfilter.New()
	if req == nil {
		return f
	}
	f.Merge(criteriaFilter(dto.AttendanceFilter{Semester: req.Semester, AcademicYear: req.AcademicYear}))
	if start, end, ok := parseMonth(req.Month); ok {
		f.Gte("a.attendance_date", start.Format(model.DateLayout))
		f.Lte("a.attendance_date", end.Format(model.DateLayout))
	}
	if id, ok := parseUUID(req.DepartmentID); ok {
		f.Exists(hodScopeSQL, id)
	}
	return f
}

func (s *reportService) rows(ctx context.Context, actor Actor, extra *sqlfilter.Filter) ([]model.AttendanceRow, error) {
	f, err := scopeFilter(actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Attendance.ListRows(ctx, f.Merge(extra))
	if err != nil {
		s.logger.Error("查询报表数据失败", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// ────────────────────── Student ──────────────────────

func (s *reportService) Student(ctx context.Context, studentID string, req *dto.ReportScopeRequest, actor Actor) (*dto.StudentReportResponse, error) {
	if actor.Role == model.RoleStudent && actor.UserID != studentID {
		return nil, ErrForbidden
	}
	student, err := s.repo.User.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	rows, err := s.rows(ctx, actor, reportFilter(req).Eq("a.student_id", studentID))
	if err != nil {
		return nil, err
	}

	policy := s.policy.load(ctx).Leave
	names := make(map[string]string)
	for i := range rows {
		names[rows[i].SubjectCode] = rows[i].SubjectName
	}
	groups := stats.GroupBy(rows, func(r *model.AttendanceRow) string { return r.SubjectCode })
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	resp := &dto.StudentReportResponse{
		StudentID:   student.UserID,
		StudentName: student.Name,
		Subjects:    make([]dto.SubjectSummary, 0, len(groups)),
		Overall:     toSummary(stats.CountRows(rows), policy),
	}
	for _, g := range groups {
		resp.Subjects = append(resp.Subjects, dto.SubjectSummary{
			SubjectCode:       g.Key,
			SubjectName:       names[g.Key],
			AttendanceSummary: toSummary(g.Counts, policy),
		})
	}
	return resp, nil
}

// ────────────────────── Class ──────────────────────

func (s *reportService) Class(ctx context.Context, classID, subjectCode string, req *dto.ReportScopeRequest, actor Actor) (*dto.ClassReportResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	f := reportFilter(req).Eq("a.class_id", class.ClassID)
	if subjectCode != "" {
		if _, err := s.repo.Subject.GetByCode(ctx, subjectCode); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubjectNotFound
			}
			s.logger.Error("查询科目失败", zap.String("subject_code", subjectCode), zap.Error(err))
			return nil, err
		}
		f.Eq("a.subject_code", subjectCode)
	}

	rows, err := s.rows(ctx, actor, f)
	if err != nil {
		return nil, err
	}

	policy := s.policy.load(ctx).Leave
	names := make(map[string]string)
	for i := range rows {
		names[rows[i].StudentID] = rows[i].StudentName
	}
	groups := stats.GroupBy(rows, func(r *model.AttendanceRow) string { return r.StudentID })
	sort.Slice(groups, func(i, j int) bool { return names[groups[i].Key] < names[groups[j].Key] })

	resp := &dto.ClassReportResponse{
		ClassID:     class.ClassID,
		ClassName:   class.Name,
		SubjectCode: subjectCode,
		Students:    make([]dto.StudentSummary, 0, len(groups)),
		Overall:     toSummary(stats.CountRows(rows), policy),
	}
	for _, g := range groups {
		resp.Students = append(resp.Students, dto.StudentSummary{
			StudentID:         g.Key,
			StudentName:       names[g.Key],
			AttendanceSummary: toSummary(g.Counts, policy),
		})
	}
	return resp, nil
}

// ────────────────────── Department / Institution ──────────────────────

func (s *reportService) Department(ctx context.Context, departmentID string, req *dto.ReportScopeRequest, actor Actor) (*dto.AggregateReportResponse, error) {
	if actor.Role == model.RoleHOD && actor.DepartmentID != departmentID {
		return nil, ErrForbidden
	}
	dept, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.String("department_id", departmentID), zap.Error(err))
		return nil, err
	}

	rows, err := s.rows(ctx, actor, reportFilter(req).Exists(hodScopeSQL, dept.DepartmentID))
	if err != nil {
		return nil, err
	}
	policy := s.policy.load(ctx).Leave
	return &dto.AggregateReportResponse{
		Scope:   "department",
		ID:      dept.DepartmentID,
		Name:    dept.Name,
		Groups:  groupSummaries(rows, policy, classKey),
		Overall: toSummary(stats.CountRows(rows), policy),
	}, nil
}

func (s *reportService) Institution(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) (*dto.AggregateReportResponse, error) {
	rows, err := s.rows(ctx, actor, reportFilter(req))
	if err != nil {
		return nil, err
	}
	depts, err := s.repo.Department.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询院系列表失败", zap.Error(err))
		return nil, err
	}
	deptNames := make(map[string]string, len(depts))
	for _, d := range depts {
		deptNames[d.DepartmentID] = d.Name
	}

	policy := s.policy.load(ctx).Leave
	groups := groupSummaries(rows, policy, func(r *model.AttendanceRow) (string, string) {
		return r.DepartmentID, deptNames[r.DepartmentID]
	})
	return &dto.AggregateReportResponse{
		Scope:   "institution",
		Groups:  groups,
		Overall: toSummary(stats.CountRows(rows), policy),
	}, nil
}

// ────────────────────── Trends ──────────────────────

func (s *reportService) MonthlyTrend(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TrendPoint, error) {
	return s.trend(ctx, req, actor, func(r *model.AttendanceRow) string {
		return r.AttendanceDate.Format("2006-01")
	})
}

func (s *reportService) SemesterTrend(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TrendPoint, error) {
	return s.trend(ctx, req, actor, func(r *model.AttendanceRow) string {
		return fmt.Sprintf("%s/%d", r.AcademicYear, r.Semester)
	})
}

func (s *reportService) trend(ctx context.Context, req *dto.ReportScopeRequest, actor Actor, period func(*model.AttendanceRow) string) ([]dto.TrendPoint, error) {
	rows, err := s.rows(ctx, actor, reportFilter(req))
	if err != nil {
		return nil, err
	}
	policy := s.policy.load(ctx).Leave
	groups := stats.GroupBy(rows, period)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	points := make([]dto.TrendPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, dto.TrendPoint{Period: g.Key, AttendanceSummary: toSummary(g.Counts, policy)})
	}
	return points, nil
}

// ────────────────────── Teachers ──────────────────────

func (s *reportService) TeachersMarked(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.TeacherMarkedSummary, error) {
	rows, err := s.rows(ctx, actor, reportFilter(req))
	if err != nil {
		return nil, err
	}
	groups := stats.GroupBy(rows, func(r *model.AttendanceRow) string { return r.MarkedBy })

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Key)
	}
	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		users, err := s.repo.User.ListByIDs(ctx, ids)
		if err != nil {
			s.logger.Error("查询教师失败", zap.Error(err))
			return nil, err
		}
		for _, u := range users {
			names[u.UserID] = u.Name
		}
	}

	policy := s.policy.load(ctx).Leave
	out := make([]dto.TeacherMarkedSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.TeacherMarkedSummary{
			TeacherID:         g.Key,
			TeacherName:       names[g.Key],
			AttendanceSummary: toSummary(g.Counts, policy),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherName < out[j].TeacherName })
	return out, nil
}

func (s *reportService) TeacherWeekly(ctx context.Context, teacherID string) ([]dto.WeeklySummary, error) {
	from, to := s.weekRange()
	f := sqlfilter.New().
		Exists(teacherScopeSQL, teacherID).
		Gte("a.attendance_date", from).
		Lte("a.attendance_date", to)
	rows, err := s.repo.Attendance.ListRows(ctx, f)
	if err != nil {
		s.logger.Error("查询周报数据失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	return weeklySummaries(rows, s.policy.load(ctx).Leave), nil
}

func (s *reportService) weekRange() (string, string) {
	today := s.now()
	return today.AddDate(0, 0, -(weeklyWindow - 1)).Format(model.DateLayout), today.Format(model.DateLayout)
}

// weeklySummaries 按 (班级, 科目) 汇总，sessions 为不同上课日期数
func weeklySummaries(rows []model.AttendanceRow, policy stats.LeavePolicy) []dto.WeeklySummary {
	type acc struct {
		summary dto.WeeklySummary
		counts  stats.Counts
		dates   map[string]struct{}
	}
	var order []string
	byKey := make(map[string]*acc)
	for i := range rows {
		r := &rows[i]
		k := r.ClassID + "_" + r.SubjectCode
		a, ok := byKey[k]
		if !ok {
			a = &acc{
				summary: dto.WeeklySummary{
					ClassID:     r.ClassID,
					ClassName:   r.ClassName,
					SubjectCode: r.SubjectCode,
					SubjectName: r.SubjectName,
				},
				dates: make(map[string]struct{}),
			}
			byKey[k] = a
			order = append(order, k)
		}
		a.counts.Add(r.Status)
		a.dates[r.AttendanceDate.Format(model.DateLayout)] = struct{}{}
	}

	out := make([]dto.WeeklySummary, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		a.summary.Sessions = len(a.dates)
		a.summary.AttendanceSummary = toSummary(a.counts, policy)
		out = append(out, a.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassName != out[j].ClassName {
			return out[i].ClassName < out[j].ClassName
		}
		return out[i].SubjectCode < out[j].SubjectCode
	})
	return out
}

// ────────────────────── Low / Top ──────────────────────

func (s *reportService) Low(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) ([]dto.LowAttendanceEntry, error) {
	entries, threshold, err := s.studentSubjects(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	low := entries[:0]
	for _, e := range entries {
		if stats.Below.Matches(e.Percentage, threshold) {
			low = append(low, e)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Percentage < low[j].Percentage })
	return limitEntries(low, req.Limit), nil
}

func (s *reportService) Top(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) ([]dto.LowAttendanceEntry, error) {
	entries, _, err := s.studentSubjects(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Percentage > entries[j].Percentage })
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return limitEntries(entries, limit), nil
}

func (s *reportService) NotifyLow(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) (*dto.NotifyResultResponse, error) {
	low, err := s.Low(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	threshold, ok := parseThreshold(req.Threshold)
	if !ok {
		threshold = s.policy.load(ctx).LowThreshold
	}
	return s.sendLowAlerts(ctx, low, threshold), nil
}

func (s *reportService) sendLowAlerts(ctx context.Context, low []dto.LowAttendanceEntry, threshold float64) *dto.NotifyResultResponse {
	resp := &dto.NotifyResultResponse{}
	students := make(map[string]struct{})
	for _, e := range low {
		students[e.StudentID] = struct{}{}
		msg := notify.LowAttendance(e.StudentID, e.StudentName, e.SubjectName, e.Percentage, threshold)
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Warn("低出勤提醒投递失败", zap.String("student_id", e.StudentID), zap.Error(err))
			continue
		}
		resp.Queued++
	}
	resp.Students = len(students)
	return resp
}

// studentSubjects 范围内每个 (学生, 科目) 的汇总与生效阈值
func (s *reportService) studentSubjects(ctx context.Context, req *dto.LowAttendanceRequest, actor Actor) ([]dto.LowAttendanceEntry, float64, error) {
	f := reportFilter(&req.ReportScopeRequest)
	if id, ok := parseUUID(req.ClassID); ok {
		f.Eq("a.class_id", id)
	}
	rows, err := s.rows(ctx, actor, f)
	if err != nil {
		return nil, 0, err
	}

	policy := s.policy.load(ctx)
	threshold, ok := parseThreshold(req.Threshold)
	if !ok {
		threshold = policy.LowThreshold
	}

	firsts := make(map[string]*model.AttendanceRow)
	for i := range rows {
		k := stats.StudentSubjectKey(&rows[i])
		if _, ok := firsts[k]; !ok {
			firsts[k] = &rows[i]
		}
	}
	groups := stats.GroupBy(rows, stats.StudentSubjectKey)
	entries := make([]dto.LowAttendanceEntry, 0, len(groups))
	for _, g := range groups {
		r := firsts[g.Key]
		entries = append(entries, dto.LowAttendanceEntry{
			StudentID:         r.StudentID,
			StudentName:       r.StudentName,
			SubjectCode:       r.SubjectCode,
			SubjectName:       r.SubjectName,
			ClassID:           r.ClassID,
			ClassName:         r.ClassName,
			AttendanceSummary: toSummary(g.Counts, policy.Leave),
		})
	}
	return entries, threshold, nil
}

func limitEntries(entries []dto.LowAttendanceEntry, limit int) []dto.LowAttendanceEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// ────────────────────── Compare ──────────────────────

func (s *reportService) CompareClasses(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.GroupSummary, error) {
	rows, err := s.rows(ctx, actor, reportFilter(req))
	if err != nil {
		return nil, err
	}
	return sortByPercentage(groupSummaries(rows, s.policy.load(ctx).Leave, classKey)), nil
}

func (s *reportService) CompareSubjects(ctx context.Context, req *dto.ReportScopeRequest, actor Actor) ([]dto.GroupSummary, error) {
	rows, err := s.rows(ctx, actor, reportFilter(req))
	if err != nil {
		return nil, err
	}
	return sortByPercentage(groupSummaries(rows, s.policy.load(ctx).Leave, func(r *model.AttendanceRow) (string, string) {
		return r.SubjectCode, r.SubjectName
	})), nil
}

func classKey(r *model.AttendanceRow) (string, string) {
	return r.ClassID, r.ClassName
}

// groupSummaries 按 key 汇总，结果按名称排序
func groupSummaries(rows []model.AttendanceRow, policy stats.LeavePolicy, key func(*model.AttendanceRow) (string, string)) []dto.GroupSummary {
	names := make(map[string]string)
	groups := stats.GroupBy(rows, func(r *model.AttendanceRow) string {
		id, name := key(r)
		names[id] = name
		return id
	})
	out := make([]dto.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.GroupSummary{
			ID:                g.Key,
			Name:              names[g.Key],
			AttendanceSummary: toSummary(g.Counts, policy),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortByPercentage(groups []dto.GroupSummary) []dto.GroupSummary {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Percentage > groups[j].Percentage })
	return groups
}

// ────────────────────── 定时任务 ──────────────────────

func (s *reportService) NotifyLowAttendance(ctx context.Context) (int, error) {
	req := &dto.LowAttendanceRequest{}
	term, err := s.repo.Term.GetCurrent(ctx)
	switch {
	case err == nil:
		req.Semester = fmt.Sprint(term.Semester)
		req.AcademicYear = term.AcademicYear
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return 0, err
	}

	low, err := s.Low(ctx, req, systemActor)
	if err != nil {
		return 0, err
	}
	resp := s.sendLowAlerts(ctx, low, s.policy.load(ctx).LowThreshold)
	s.logger.Info("低出勤提醒已投递", zap.Int("students", resp.Students), zap.Int("queued", resp.Queued))
	return resp.Queued, nil
}

func (s *reportService) SendWeeklyReports(ctx context.Context) (int, error) {
	assignments, err := s.repo.Assignment.List(ctx, repository.AssignmentFilter{ActiveOnly: true})
	if err != nil {
		s.logger.Error("查询任课列表失败", zap.Error(err))
		return 0, err
	}

	from, to := s.weekRange()
	seen := make(map[string]struct{})
	sent := 0
	for _, a := range assignments {
		if _, ok := seen[a.TeacherID]; ok {
			continue
		}
		seen[a.TeacherID] = struct{}{}

		summaries, err := s.TeacherWeekly(ctx, a.TeacherID)
		if err != nil {
			return sent, err
		}
		lines := make([]notify.WeeklyLine, 0, len(summaries))
		for _, w := range summaries {
			lines = append(lines, notify.WeeklyLine{
				ClassName:   w.ClassName,
				SubjectName: w.SubjectName,
				Sessions:    w.Sessions,
				Percentage:  w.Percentage,
			})
		}
		name := ""
		if a.Teacher != nil {
			name = a.Teacher.Name
		}
		if err := s.notifier.Notify(ctx, notify.WeeklyReport(a.TeacherID, name, from, to, lines)); err != nil {
			s.logger.Warn("周报投递失败", zap.String("teacher_id", a.TeacherID), zap.Error(err))
			continue
		}
		sent++
	}
	s.logger.Info("教师周报已投递", zap.Int("teachers", len(seen)), zap.Int("queued", sent))
	return sent, nil
}
