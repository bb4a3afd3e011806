package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/config"
	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/jwt"
	"campus-attendance/pkg/metrics"
	"campus-attendance/pkg/sqlfilter"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceNotFound = errors.New("考勤记录不存在")
	ErrInvalidDate        = errors.New("日期格式错误，应为 YYYY-MM-DD")
	ErrFutureDate         = errors.New("不能为未来日期标记考勤")
	ErrInvalidStatus      = errors.New("无效的考勤状态")
	ErrEmptyEntries       = errors.New("考勤名单不能为空")
	ErrNotAssigned        = errors.New("无权操作该班级该科目的考勤")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Mark 批量标记；同一 (学生, 科目, 日期) 重复标记即覆盖
	Mark(ctx context.Context, req *dto.MarkAttendanceRequest, actor Actor) (*dto.MarkAttendanceResponse, error)
	// Sheet 班级点名表：在籍学生 + 当日已标记状态
	Sheet(ctx context.Context, req *dto.AttendanceSheetRequest, actor Actor) ([]dto.AttendanceSheetEntry, error)
	Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, actor Actor) (*dto.AttendanceRecordResponse, error)
	Mine(ctx context.Context, req *dto.AttendanceViewRequest, userID string) ([]dto.AttendanceRecordResponse, int64, error)
	View(ctx context.Context, req *dto.AttendanceViewRequest, actor Actor) ([]dto.AttendanceRecordResponse, int64, error)

	// Filter 第一步：签发筛选令牌
	Filter(ctx context.Context, criteria dto.AttendanceFilter, actor Actor) (*dto.FilterTokenResponse, error)
	// FilterResults 第二步：按令牌（或直接参数）返回范围内、阈值过滤后的记录
	FilterResults(ctx context.Context, req *dto.FilterResultRequest, actor Actor) (*dto.FilterResultResponse, error)
	// FilterRows 同 FilterResults，返回原始行供导出
	FilterRows(ctx context.Context, req *dto.FilterResultRequest, actor Actor) ([]model.AttendanceRow, dto.AttendanceFilter, error)
}

type attendanceService struct {
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	notifier notify.Notifier
	policy   *policyLoader
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例；m 可为 nil
func NewAttendanceService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:     repo,
		jwtMgr:   jwtMgr,
		notifier: notifier,
		policy:   newPolicyLoader(repo, cfg.Attendance, logger),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Mark ──────────────────────

func (s *attendanceService) Mark(ctx context.Context, req *dto.MarkAttendanceRequest, actor Actor) (*dto.MarkAttendanceResponse, error) {
	if len(req.Entries) == 0 {
		return nil, ErrEmptyEntries
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return nil, ErrInvalidDate
	}
	if date.Format(model.DateLayout) > s.now().Format(model.DateLayout) {
		return nil, ErrFutureDate
	}

	statuses := make([]model.Status, len(req.Entries))
	for i, e := range req.Entries {
		st, ok := model.ParseStatus(e.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		statuses[i] = st
	}

	class, subject, err := s.loadClassSubject(ctx, req.ClassID, req.SubjectCode)
	if err != nil {
		return nil, err
	}
	allowed, err := s.inClassSubjectScope(ctx, actor, class, subject.SubjectCode)
	if err != nil {
		s.logger.Error("检查任课范围失败", zap.Error(err))
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAssigned
	}

	semester, year := class.Semester, class.AcademicYear
	if req.Semester > 0 {
		semester = req.Semester
	}
	if req.AcademicYear != "" {
		year = req.AcademicYear
	}

	// 在籍学生
	enrollments, err := s.repo.Enrollment.ListActiveByClass(ctx, class.ClassID)
	if err != nil {
		s.logger.Error("查询在籍学生失败", zap.String("class_id", class.ClassID), zap.Error(err))
		return nil, err
	}
	enrolled := make(map[string]*model.User, len(enrollments))
	for i := range enrollments {
		enrolled[enrollments[i].StudentID] = enrollments[i].Student
	}

	// 同一学生多次出现时以最后一次为准，保持首次出现的顺序
	resp := &dto.MarkAttendanceResponse{}
	order := make([]string, 0, len(req.Entries))
	byStudent := make(map[string]int, len(req.Entries))
	for i, e := range req.Entries {
		if _, ok := enrolled[e.StudentID]; !ok {
			resp.Skipped = append(resp.Skipped, e.StudentID)
			continue
		}
		if _, seen := byStudent[e.StudentID]; !seen {
			order = append(order, e.StudentID)
		}
		byStudent[e.StudentID] = i
	}

	onLeave, err := s.approvedLeave(ctx, order, date)
	if err != nil {
		return nil, err
	}

	records := make([]model.Attendance, 0, len(order))
	for _, studentID := range order {
		i := byStudent[studentID]
		status := statuses[i]
		if status == model.StatusAbsent && onLeave[studentID] {
			status = model.StatusLeave
			resp.Leave = append(resp.Leave, studentID)
		}
		rec := model.Attendance{
			StudentID:      studentID,
			SubjectCode:    subject.SubjectCode,
			ClassID:        class.ClassID,
			AttendanceDate: date,
			Semester:       semester,
			AcademicYear:   year,
			Status:         status,
			MarkedBy:       actor.UserID,
			Remarks:        req.Entries[i].Remarks,
		}
		rec.CreatedBy = &actor.UserID
		rec.UpdatedBy = &actor.UserID
		records = append(records, rec)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		n, err := tx.Attendance.Upsert(ctx, records)
		resp.Written = n
		return err
	})
	if err != nil {
		s.logger.Error("写入考勤失败",
			zap.String("class_id", class.ClassID),
			zap.String("subject_code", subject.SubjectCode),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AttendanceWritten.Add(float64(resp.Written))
	}
	s.logger.Info("考勤已标记",
		zap.String("class_id", class.ClassID),
		zap.String("subject_code", subject.SubjectCode),
		zap.String("date", req.Date),
		zap.Int("written", resp.Written),
		zap.Int("skipped", len(resp.Skipped)),
		zap.String("by", actor.UserID),
	)

	if s.policy.load(ctx).NotifyOnMark {
		for _, rec := range records {
			name := ""
			if u := enrolled[rec.StudentID]; u != nil {
				name = u.Name
			}
			s.notify(ctx, notify.AttendanceMarked(rec.StudentID, name, subject.Name, req.Date, rec.Status))
		}
	}

	return resp, nil
}

func (s *attendanceService) loadClassSubject(ctx context.Context, classID, subjectCode string) (*model.Class, *model.Subject, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrClassNotFound
		}
		s.logger.Error("查询班级失败", zap.String("class_id", classID), zap.Error(err))
		return nil, nil, err
	}
	subject, err := s.repo.Subject.GetByCode(ctx, subjectCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("subject_code", subjectCode), zap.Error(err))
		return nil, nil, err
	}
	return class, subject, nil
}

func (s *attendanceService) approvedLeave(ctx context.Context, studentIDs []string, date time.Time) (map[string]bool, error) {
	leaves, err := s.repo.Leave.ListApprovedCovering(ctx, studentIDs, date)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.Error(err))
		return nil, err
	}
	out := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		out[l.StudentID] = true
	}
	return out, nil
}

func (s *attendanceService) notify(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("考勤通知投递失败", zap.String("user_id", msg.UserID), zap.Error(err))
	}
}

// ────────────────────── Sheet ──────────────────────

func (s *attendanceService) Sheet(ctx context.Context, req *dto.AttendanceSheetRequest, actor Actor) ([]dto.AttendanceSheetEntry, error) {
	date, ok := parseDate(req.Date)
	if !ok {
		return nil, ErrInvalidDate
	}
	class, subject, err := s.loadClassSubject(ctx, req.ClassID, req.SubjectCode)
	if err != nil {
		return nil, err
	}
	allowed, err := s.inClassSubjectScope(ctx, actor, class, subject.SubjectCode)
	if err != nil {
		s.logger.Error("检查任课范围失败", zap.Error(err))
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAssigned
	}

	enrollments, err := s.repo.Enrollment.ListActiveByClass(ctx, class.ClassID)
	if err != nil {
		s.logger.Error("查询在籍学生失败", zap.Error(err))
		return nil, err
	}
	marked, err := s.repo.Attendance.ListForClassDate(ctx, class.ClassID, subject.SubjectCode, date)
	if err != nil {
		s.logger.Error("查询当日考勤失败", zap.Error(err))
		return nil, err
	}
	byStudent := make(map[string]model.Attendance, len(marked))
	for _, a := range marked {
		byStudent[a.StudentID] = a
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	onLeave, err := s.approvedLeave(ctx, ids, date)
	if err != nil {
		return nil, err
	}

	sheet := make([]dto.AttendanceSheetEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := dto.AttendanceSheetEntry{
			StudentID:        e.StudentID,
			EnrollmentNumber: e.EnrollmentNumber,
			OnLeave:          onLeave[e.StudentID],
		}
		if e.Student != nil {
			entry.Name = e.Student.Name
		}
		if a, ok := byStudent[e.StudentID]; ok {
			entry.AttendanceID = a.AttendanceID
			entry.Status = string(a.Status)
			entry.Remarks = a.Remarks
		}
		sheet = append(sheet, entry)
	}
	return sheet, nil
}

// ────────────────────── Update ──────────────────────

func (s *attendanceService) Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, actor Actor) (*dto.AttendanceRecordResponse, error) {
	rec, err := s.repo.Attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("查询考勤失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	class, subject, err := s.loadClassSubject(ctx, rec.ClassID, rec.SubjectCode)
	if err != nil {
		return nil, err
	}
	allowed, err := s.inClassSubjectScope(ctx, actor, class, rec.SubjectCode)
	if err != nil {
		s.logger.Error("检查任课范围失败", zap.Error(err))
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAssigned
	}

	if req.Status != nil {
		st, ok := model.ParseStatus(*req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		rec.Status = st
	}
	if req.Remarks != nil {
		rec.Remarks = *req.Remarks
	}
	rec.MarkedBy = actor.UserID
	rec.UpdatedBy = &actor.UserID

	if err := s.repo.Attendance.Update(ctx, rec); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("更新考勤失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	date := rec.AttendanceDate.Format(model.DateLayout)
	if s.policy.load(ctx).NotifyOnMark {
		s.notify(ctx, notify.AttendanceMarked(rec.StudentID, "", subject.Name, date, rec.Status))
	}

	return &dto.AttendanceRecordResponse{
		ID:           rec.AttendanceID,
		Date:         date,
		StudentID:    rec.StudentID,
		SubjectCode:  rec.SubjectCode,
		SubjectName:  subject.Name,
		ClassID:      rec.ClassID,
		ClassName:    class.Name,
		Semester:     rec.Semester,
		AcademicYear: rec.AcademicYear,
		Status:       string(rec.Status),
		Remarks:      rec.Remarks,
		MarkedBy:     rec.MarkedBy,
	}, nil
}

// ────────────────────── Mine / View ──────────────────────

func (s *attendanceService) Mine(ctx context.Context, req *dto.AttendanceViewRequest, userID string) ([]dto.AttendanceRecordResponse, int64, error) {
	criteria := req.AttendanceFilter
	criteria.StudentID = ""
	f := sqlfilter.New().Eq("a.student_id", userID).Merge(criteriaFilter(criteria))
	return s.page(ctx, f, &req.PaginationRequest)
}

func (s *attendanceService) View(ctx context.Context, req *dto.AttendanceViewRequest, actor Actor) ([]dto.AttendanceRecordResponse, int64, error) {
	f, err := scopedCriteria(actor, req.AttendanceFilter)
	if err != nil {
		return nil, 0, err
	}
	return s.page(ctx, f, &req.PaginationRequest)
}

func (s *attendanceService) page(ctx context.Context, f *sqlfilter.Filter, p *dto.PaginationRequest) ([]dto.AttendanceRecordResponse, int64, error) {
	rows, total, err := s.repo.Attendance.PageRows(ctx, f, p.GetOffset(), p.GetPageSize())
	if err != nil {
		s.logger.Error("查询考勤失败", zap.Error(err))
		return nil, 0, err
	}
	return toRecordResponses(rows), total, nil
}

func toRecordResponses(rows []model.AttendanceRow) []dto.AttendanceRecordResponse {
	out := make([]dto.AttendanceRecordResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.AttendanceRecordResponse{
			ID:           r.AttendanceID,
			Date:         r.AttendanceDate.Format(model.DateLayout),
			StudentID:    r.StudentID,
			StudentName:  r.StudentName,
			SubjectCode:  r.SubjectCode,
			SubjectName:  r.SubjectName,
			ClassID:      r.ClassID,
			ClassName:    r.ClassName,
			Semester:     r.Semester,
			AcademicYear: r.AcademicYear,
			Status:       string(r.Status),
			Remarks:      r.Remarks,
			MarkedBy:     r.MarkedBy,
		})
	}
	return out
}
