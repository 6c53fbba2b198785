package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/campusworks/lms-quiz-service/internal/config"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/services"
	"github.com/campusworks/lms-quiz-service/internal/utils"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

type HandlerManager struct {
	courseHandler     *CourseHandler
	quizHandler       *QuizHandler
	attemptHandler    *AttemptHandler
	gradingHandler    *GradingHandler
	rosterHandler     *RosterHandler
	enrollmentHandler *EnrollmentHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:     NewCourseHandler(serviceManager.Course(), validator, logger),
		quizHandler:       NewQuizHandler(serviceManager.Quiz(), validator, logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		gradingHandler:    NewGradingHandler(serviceManager.Grading(), validator, logger),
		rosterHandler:     NewRosterHandler(serviceManager.Roster(), serviceManager.Export(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), validator, logger),
		userHandler:       NewUserHandler(userRepo, logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course routes
		courses := v1.Group("/courses")
		{
			// Create/modify courses - Instructors and Admins only
			courses.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.DeleteCourse)

			// View courses - All authenticated users
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/mine", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.GetMyCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/details", hm.courseHandler.GetCourseWithDetails)

			// Stats - Instructors and Admins only
			courses.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.GetCourseStats)

			// Lesson management
			courses.GET("/:id/lessons", hm.courseHandler.GetLessons)
			courses.POST("/:id/lessons", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.AddLesson)
			courses.PUT("/:id/lessons/:lesson_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.UpdateLesson)
			courses.DELETE("/:id/lessons/:lesson_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.courseHandler.DeleteLesson)
		}

		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			// Create/modify quizzes - Instructors and Admins only
			quizzes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/deactivate", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.DeactivateQuiz)

			// View quizzes - All authenticated users
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/course/:course_id", hm.quizHandler.GetQuizzesByCourse)

			// Questions with correct answers - Instructors and Admins only
			quizzes.GET("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.GetQuizWithQuestions)

			// Stats - Instructors and Admins only
			quizzes.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.quizHandler.GetQuizStats)

			// Taking quizzes - Students (and anyone enrolled)
			quizzes.GET("/:id/attempt", hm.attemptHandler.RenderAttempt)
			quizzes.POST("/:id/attempt", hm.attemptHandler.SubmitAttempt)

			// Scores
			quizzes.GET("/:id/score", hm.gradingHandler.GetMyScore)
			quizzes.GET("/:id/score/:student_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.gradingHandler.GetStudentScore)

			// Submissions grouped by student - Instructors and Admins only
			quizzes.GET("/:id/submissions", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.rosterHandler.GetQuizSubmissions)
		}

		// Grading routes - Instructors and Admins only
		submissions := v1.Group("/submissions")
		submissions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin))
		{
			submissions.POST("/:id/grade", hm.gradingHandler.OverrideGrade)
		}

		// Enrollment routes
		enrollments := v1.Group("/enrollments")
		{
			// Admins pass the role gate and may enroll on behalf of a student
			enrollments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.enrollmentHandler.Enroll)
			enrollments.DELETE("/:id", hm.enrollmentHandler.Unenroll)
			enrollments.GET("/me", hm.enrollmentHandler.GetMyEnrollments)
			enrollments.PUT("/:id/progress", hm.enrollmentHandler.UpdateProgress)

			// Instructor/admin views
			enrollments.GET("/student/:student_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.enrollmentHandler.GetStudentEnrollments)
			enrollments.GET("/course/:course_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin), hm.enrollmentHandler.GetCourseEnrollments)
		}

		// Roster routes - Instructors and Admins only
		roster := v1.Group("/roster")
		roster.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin))
		{
			roster.GET("", hm.rosterHandler.GetRoster)
			roster.GET("/course/:course_id", hm.rosterHandler.GetCourseRoster)
			roster.GET("/export", hm.rosterHandler.ExportRoster)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-quiz-service",
		})
	})
}
