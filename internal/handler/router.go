package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/middleware"
	"github.com/nexskill/institute-api/internal/models"
	"github.com/nexskill/institute-api/internal/repository"
	"github.com/nexskill/institute-api/internal/service"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Leads         *LeadHandler
	Admissions    *AdmissionHandler
	Students      *StudentHandler
	Catalog       *CatalogHandler
	Batches       *BatchHandler
	Attendance    *AttendanceHandler
	Assessments   *AssessmentHandler
	Portfolio     *PortfolioHandler
	Placements    *PlacementHandler
	Notifications *NotificationHandler
	Operations    *OperationsHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Metrics       *MetricsHandler

	AuthService *service.AuthService
	AuditRepo   *repository.UserRepository
}

// Register mounts every API route under /api with its access policy.
func Register(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	// Public surface: first-run setup, session bootstrap and the enquiry form.
	api.GET("/setup/status", d.Auth.SetupStatus)
	api.POST("/setup/initialize", d.Auth.SetupInitialize)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/leads/public", middleware.OptionalJWT(d.AuthService), d.Leads.CreatePublic)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.AuthService))

	auth := secured.Group("/auth")
	{
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Profile)
		auth.PUT("/me", d.Auth.UpdateProfile)
		auth.POST("/change-password", d.Auth.ChangePassword)
	}

	users := secured.Group("/users")
	users.Use(middleware.Audit(d.AuditRepo, models.AuditActionAccess, "users"))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Users.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleCEO), "SELF"), d.Users.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Users.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Users.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Users.Delete)
	}

	leads := secured.Group("/leads")
	leads.Use(middleware.Staff())
	{
		leads.GET("", d.Leads.List)
		leads.GET("/:id", d.Leads.Get)
		leads.POST("", d.Leads.Create)
		leads.PUT("/:id", d.Leads.Update)
		leads.PATCH("/:id/status", d.Leads.UpdateStatus)
		leads.POST("/:id/convert", d.Leads.Convert)
		leads.DELETE("/:id", d.Leads.Delete)
	}

	admissions := secured.Group("/admissions")
	admissions.Use(middleware.Staff())
	{
		admissions.GET("", d.Admissions.List)
		admissions.GET("/:id", d.Admissions.Get)
		admissions.POST("", d.Admissions.Create)
		admissions.PUT("/:id", d.Admissions.Update)
		admissions.POST("/:id/approve", d.Admissions.Approve)
		admissions.POST("/:id/reject", d.Admissions.Reject)
		admissions.POST("/:id/convert", d.Admissions.Convert)
		admissions.POST("/:id/payments", d.Admissions.RecordPayment)
		admissions.GET("/:id/payments", d.Admissions.ListPayments)
	}

	students := secured.Group("/students")
	{
		students.GET("/me", middleware.RequireRoles(models.RoleStudent), d.Students.Me)
		students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO, models.RoleChannelPartner, models.RoleTrainer), d.Students.List)
		students.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO, models.RoleChannelPartner, models.RoleTrainer), d.Students.Get)
		students.PUT("/:id", middleware.Staff(), d.Students.Update)
		students.PATCH("/:id/eligibility", middleware.Staff(), d.Students.SetEligibility)
		students.PATCH("/:id/certificate-lock", middleware.Staff(), d.Students.SetCertificateLock)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Students.Delete)
	}

	courses := secured.Group("/courses")
	{
		courses.GET("", d.Catalog.ListCourses)
		courses.GET("/:id", d.Catalog.GetCourse)
		courses.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Catalog.CreateCourse)
		courses.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Catalog.UpdateCourse)
	}

	branches := secured.Group("/branches")
	{
		branches.GET("", d.Catalog.ListBranches)
		branches.GET("/:id", d.Catalog.GetBranch)
		branches.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Catalog.CreateBranch)
		branches.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Catalog.UpdateBranch)
	}

	teaching := middleware.RequireRoles(models.RoleAdmin, models.RoleCEO, models.RoleChannelPartner, models.RoleTrainer)

	batches := secured.Group("/batches")
	{
		batches.GET("", teaching, d.Batches.List)
		batches.GET("/:id", teaching, d.Batches.Get)
		batches.POST("", middleware.Staff(), d.Batches.Create)
		batches.PUT("/:id", middleware.Staff(), d.Batches.Update)
		batches.GET("/:id/students", teaching, d.Batches.Roster)
		batches.POST("/:id/students", middleware.Staff(), d.Batches.AssignStudent)
		batches.DELETE("/:id/students/:studentId", middleware.Staff(), d.Batches.RemoveStudent)

		batches.POST("/:id/attendance", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Attendance.Mark)
		batches.GET("/:id/attendance", teaching, d.Attendance.Sheet)
		batches.GET("/:id/attendance/summary", teaching, d.Attendance.Summary)

		batches.GET("/:id/tests", teaching, d.Assessments.ListTests)
		batches.POST("/:id/tests", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Assessments.CreateTest)

		batches.GET("/:id/tasks", d.Portfolio.ListTasks)
		batches.POST("/:id/tasks", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Portfolio.CreateTask)
	}

	tests := secured.Group("/tests")
	{
		tests.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Assessments.DeleteTest)
		tests.POST("/:id/scores", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Assessments.RecordScores)
		tests.GET("/:id/scores", teaching, d.Assessments.ListScores)
	}

	tasks := secured.Group("/tasks")
	{
		tasks.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Portfolio.DeleteTask)
		tasks.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), d.Portfolio.Submit)
		tasks.GET("/:id/submissions", teaching, d.Portfolio.ListSubmissions)
	}
	secured.POST("/submissions/:id/review", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), d.Portfolio.Review)

	companies := secured.Group("/companies")
	companies.Use(middleware.Staff())
	{
		companies.GET("", d.Placements.ListCompanies)
		companies.POST("", d.Placements.CreateCompany)
		companies.PUT("/:id", d.Placements.UpdateCompany)
	}

	placements := secured.Group("/placements")
	placements.Use(middleware.Staff())
	{
		placements.GET("", d.Placements.ListPlacements)
		placements.POST("", d.Placements.CreatePlacement)
	}

	incentives := secured.Group("/incentives")
	{
		incentives.GET("", middleware.Staff(), d.Placements.ListIncentives)
		incentives.POST("/:id/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Placements.ApproveIncentive)
		incentives.POST("/:id/pay", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Placements.PayIncentive)
	}

	operations := secured.Group("")
	operations.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCEO))
	operations.Use(middleware.Audit(d.AuditRepo, models.AuditActionAccess, "operations"))
	{
		operations.GET("/expenses", d.Operations.ListExpenses)
		operations.POST("/expenses", d.Operations.CreateExpense)
		operations.DELETE("/expenses/:id", d.Operations.DeleteExpense)
		operations.GET("/events", d.Operations.ListEvents)
		operations.POST("/events", d.Operations.CreateEvent)
		operations.PUT("/events/:id", d.Operations.UpdateEvent)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", d.Notifications.List)
		notifications.GET("/unread", d.Notifications.UnreadCount)
		notifications.POST("/:id/read", d.Notifications.MarkRead)
		notifications.POST("/read-all", d.Notifications.MarkAllRead)
	}

	secured.GET("/dashboard", d.Dashboard.Get)

	reports := secured.Group("/reports")
	{
		reports.GET("/fees", middleware.Staff(), d.Exports.Fees)
		reports.GET("/batches/:id/attendance", teaching, d.Exports.Attendance)
		reports.GET("/placements", middleware.Staff(), d.Exports.Placements)
	}

	secured.GET("/metrics", middleware.RequireRoles(models.RoleAdmin, models.RoleCEO), d.Metrics.Prometheus)
}
