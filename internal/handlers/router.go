package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type HandlerManager struct {
	userHandler         *UserHandler
	directionHandler    *DirectionHandler
	sessionHandler      *SessionHandler
	paymentHandler      *PaymentHandler
	notificationHandler *NotificationHandler
	supportHandler      *SupportHandler
	dashboardHandler    *DashboardHandler
	authMiddleware      *TokenAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		directionHandler:    NewDirectionHandler(serviceManager.Direction(), logger),
		sessionHandler:      NewSessionHandler(serviceManager.Session(), logger),
		paymentHandler:      NewPaymentHandler(serviceManager.Payment(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		supportHandler:      NewSupportHandler(serviceManager.Support(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), serviceManager.Leaderboard(), serviceManager.Export(), logger),
		authMiddleware:      NewTokenAuthMiddleware(serviceManager.User()),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	// Public authentication routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.userHandler.Register)
		auth.POST("/login", hm.userHandler.Login)
	}

	// Authenticated routes
	api := v1.Group("")
	api.Use(hm.authMiddleware.AuthMiddleware())
	{
		api.POST("/auth/logout", hm.userHandler.Logout)
		api.GET("/me", hm.userHandler.Me)
		api.PUT("/me", hm.userHandler.UpdateProfile)

		api.GET("/dashboard", hm.dashboardHandler.StudentDashboard)
		api.GET("/leaderboard", hm.dashboardHandler.Leaderboard)
		api.GET("/leaderboard/me", hm.dashboardHandler.MyRank)

		directions := api.Group("/directions")
		{
			directions.GET("", hm.directionHandler.ListDirections)
			directions.GET("/:id", hm.directionHandler.GetDirection)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/active", hm.sessionHandler.GetActiveSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/violations", hm.sessionHandler.ReportViolation)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
			sessions.POST("/:id/exit", hm.sessionHandler.ExitSession)
			sessions.GET("/:id/result", hm.sessionHandler.GetResult)
		}

		api.GET("/results", hm.sessionHandler.ListResults)

		payments := api.Group("/payments")
		{
			payments.POST("", hm.paymentHandler.SubmitPayment)
			payments.GET("", hm.paymentHandler.ListPayments)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.GET("/unread", hm.notificationHandler.CountUnread)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
			notifications.POST("/read-all", hm.notificationHandler.MarkAllRead)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", hm.supportHandler.CreateTicket)
			tickets.GET("", hm.supportHandler.ListTickets)
			tickets.GET("/:id", hm.supportHandler.GetTicket)
			tickets.POST("/:id/responses", hm.supportHandler.RespondToTicket)
		}
	}

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(hm.authMiddleware.AuthMiddleware(), hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
	{
		admin.GET("/dashboard", hm.dashboardHandler.AdminDashboard)

		users := admin.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.POST("/:id/block", hm.userHandler.BlockUser)
			users.POST("/:id/unblock", hm.userHandler.UnblockUser)
			users.POST("/:id/directions", hm.userHandler.GrantDirection)
			users.DELETE("/:id", hm.userHandler.DeleteUser)
		}

		directions := admin.Group("/directions")
		{
			directions.GET("", hm.directionHandler.ListAllDirections)
			directions.POST("", hm.directionHandler.CreateDirection)
			directions.GET("/:id", hm.directionHandler.GetDirectionDetails)
			directions.PUT("/:id", hm.directionHandler.UpdateDirection)
			directions.DELETE("/:id", hm.directionHandler.DeleteDirection)
			directions.POST("/:id/subjects", hm.directionHandler.CreateSubject)
		}

		subjects := admin.Group("/subjects")
		{
			subjects.PUT("/:subject_id", hm.directionHandler.UpdateSubject)
			subjects.DELETE("/:subject_id", hm.directionHandler.DeleteSubject)
			subjects.POST("/:subject_id/questions", hm.directionHandler.CreateQuestion)
			subjects.POST("/:subject_id/questions/import", hm.dashboardHandler.ImportQuestions)
		}

		questions := admin.Group("/questions")
		{
			questions.PUT("/:question_id", hm.directionHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.directionHandler.DeleteQuestion)
		}

		payments := admin.Group("/payments")
		{
			payments.POST("/:id/confirm", hm.paymentHandler.ConfirmPayment)
			payments.POST("/:id/reject", hm.paymentHandler.RejectPayment)
		}

		admin.POST("/notifications/broadcast", hm.notificationHandler.Broadcast)

		tickets := admin.Group("/tickets")
		{
			tickets.PUT("/:id/status", hm.supportHandler.UpdateTicketStatus)
		}

		exports := admin.Group("/exports")
		{
			exports.GET("/results", hm.dashboardHandler.ExportResults)
			exports.GET("/leaderboard", hm.dashboardHandler.ExportLeaderboard)
		}
	}
}

// HealthCheck endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "testblok",
	})
}
