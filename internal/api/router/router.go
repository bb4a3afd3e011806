package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"campus-attendance/config"
	"campus-attendance/internal/api/handler"
	"campus-attendance/internal/api/middleware"
	"campus-attendance/internal/authz"
	"campus-attendance/pkg/jwt"
	"campus-attendance/pkg/metrics"
	"campus-attendance/pkg/redis"
	"campus-attendance/pkg/validate"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 与 m 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validate.Register(v); err != nil {
			logger.Fatal("注册自定义校验标签失败", zap.Error(err))
		}
	}

	// Redis 不可用时黑名单与限流均降级为放行
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	need := middleware.RequirePermission
	loginLimit := middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/register", loginLimit, h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", need(authz.UserList), h.User.ListUsers)
				users.GET("/:id", need(authz.UserList), h.User.GetUser)
				users.PUT("/:id", need(authz.UserManage), h.User.UpdateUser)
				users.PUT("/:id/role", need(authz.UserManage), h.User.AssignRole)
				users.PUT("/:id/status", need(authz.UserManage), h.User.UpdateStatus)
				users.DELETE("/:id", need(authz.UserManage), h.User.DeleteUser)
				users.POST("/:id/reset-password", need(authz.UserManage), h.User.ResetPassword)
				users.POST("/import", need(authz.UserManage), h.User.ImportUsers)
			}

			// 院系模块
			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.ListDepartments)
				departments.GET("/:id", h.Department.GetDepartment)
				departments.POST("", need(authz.DepartmentManage), h.Department.CreateDepartment)
				departments.PUT("/:id", need(authz.DepartmentManage), h.Department.UpdateDepartment)
				departments.DELETE("/:id", need(authz.DepartmentManage), h.Department.DeleteDepartment)
				departments.GET("/:id/subjects", h.Department.ListSubjects)
				departments.POST("/:id/subjects", need(authz.SubjectManage), h.Department.AddSubject)
			}

			// 班级模块
			classes := authorized.Group("/classes")
			{
				classes.GET("", h.Class.ListClasses)
				classes.GET("/:id", h.Class.GetClass)
				classes.POST("", need(authz.ClassManage), h.Class.CreateClass)
				classes.PUT("/:id", need(authz.ClassManage), h.Class.UpdateClass)
				classes.DELETE("/:id", need(authz.ClassManage), h.Class.DeleteClass)
				classes.GET("/:id/students", need(authz.AttendanceView), h.Class.Students)
			}

			// 科目模块
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Subject.ListSubjects)
				subjects.GET("/:code", h.Subject.GetSubject)
				subjects.POST("", need(authz.SubjectManage), h.Subject.CreateSubject)
				subjects.PUT("/:code", need(authz.SubjectManage), h.Subject.UpdateSubject)
				subjects.DELETE("/:code", need(authz.SubjectManage), h.Subject.DeleteSubject)
			}

			// 任课分配
			assignments := authorized.Group("/assignments")
			{
				assignments.POST("", need(authz.AssignmentManage), h.Assignment.CreateAssignment)
				assignments.GET("", need(authz.AssignmentManage), h.Assignment.ListAssignments)
				assignments.GET("/me", need(authz.AttendanceMark), h.Assignment.MyAssignments)
				assignments.DELETE("/:id", need(authz.AssignmentManage), h.Assignment.DeactivateAssignment)
			}

			// 学期
			terms := authorized.Group("/terms")
			{
				terms.GET("", h.Term.List)
				terms.GET("/current", h.Term.Current)
				terms.POST("", need(authz.TermManage), h.Term.Create)
				terms.PUT("/:id/activate", need(authz.TermManage), h.Term.Activate)
			}

			// 学籍
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.POST("", need(authz.EnrollmentManage), h.Enrollment.CreateEnrollment)
				enrollments.GET("/students/:id", h.Enrollment.History)
				enrollments.GET("/students/:id/current", h.Enrollment.Current)
				enrollments.PUT("/:id/status", need(authz.EnrollmentManage), h.Enrollment.UpdateStatus)
			}

			// 角色申请
			requests := authorized.Group("/enrollment-requests")
			{
				requests.POST("", need(authz.RequestSubmit), h.EnrollmentRequest.Submit)
				requests.GET("/me", h.EnrollmentRequest.Mine)
				requests.GET("/pending", need(authz.RequestReview), h.EnrollmentRequest.ListPending)
				requests.POST("/:id/approve", need(authz.RequestReview), h.EnrollmentRequest.Approve)
				requests.POST("/:id/reject", need(authz.RequestReview), h.EnrollmentRequest.Reject)
			}

			// 考勤
			attendance := authorized.Group("/attendance")
			{
				attendance.POST("/mark", need(authz.AttendanceMark), h.Attendance.Mark)
				attendance.GET("/sheet", need(authz.AttendanceMark), h.Attendance.Sheet)
				attendance.PUT("/:id", need(authz.AttendanceEdit), h.Attendance.Update)
				attendance.GET("/me", need(authz.AttendanceSelf), h.Attendance.Mine)
				attendance.GET("/view", need(authz.AttendanceView), h.Attendance.View)

				attendance.POST("/filter", need(authz.AttendanceFilter), h.Attendance.Filter)
				attendance.GET("/filter/results", need(authz.AttendanceFilter), h.Attendance.FilterResults)
				attendance.GET("/filter/export", need(authz.AttendanceExport), h.Attendance.FilterExport)
			}

			// 考勤报表
			reports := authorized.Group("/reports/attendance")
			{
				reports.GET("/student/:id", need(authz.ReportStudent), h.Report.Student)
				reports.GET("/student/:id/pdf", need(authz.ReportStudent), h.Report.StudentPDF)
				reports.GET("/class/:id", need(authz.ReportClass), h.Report.Class)
				reports.GET("/class/:id/subject/:code", need(authz.ReportClass), h.Report.Class)
				reports.GET("/class/:id/xlsx", need(authz.ReportClass), h.Report.ClassXLSX)
				reports.GET("/department/:id", need(authz.ReportDepartment), h.Report.Department)
				reports.GET("/institution", need(authz.ReportInstitution), h.Report.Institution)
				reports.GET("/trend/monthly", need(authz.ReportDepartment), h.Report.MonthlyTrend)
				reports.GET("/trend/semester", need(authz.ReportDepartment), h.Report.SemesterTrend)
				reports.GET("/teachers/marked", need(authz.ReportDepartment), h.Report.TeachersMarked)
				reports.GET("/teachers/me/weekly", need(authz.ReportTeacher), h.Report.MyWeekly)
				reports.GET("/low", need(authz.ReportClass), h.Report.Low)
				reports.POST("/low/notify", need(authz.ReportNotify), h.Report.NotifyLow)
				reports.GET("/top", need(authz.ReportClass), h.Report.Top)
				reports.GET("/compare/classes", need(authz.ReportDepartment), h.Report.CompareClasses)
				reports.GET("/compare/subjects", need(authz.ReportDepartment), h.Report.CompareSubjects)
			}

			// 请假
			leaves := authorized.Group("/leaves")
			{
				leaves.POST("", need(authz.LeaveApply), h.Leave.Apply)
				leaves.GET("/me", need(authz.LeaveApply), h.Leave.Mine)
				leaves.GET("/pending", need(authz.LeaveReview), h.Leave.ListPending)
				leaves.POST("/:id/approve", need(authz.LeaveReview), h.Leave.Approve)
				leaves.POST("/:id/reject", need(authz.LeaveReview), h.Leave.Reject)
			}

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.GET("/preferences", h.Notification.GetPreference)
				notifications.PUT("/preferences", h.Notification.UpdatePreference)
			}

			// 考勤策略
			authorized.GET("/attendance-policy", h.Policy.Get)
			authorized.PUT("/attendance-policy", need(authz.PolicyManage), h.Policy.Update)
		}
	}

	return r
}
