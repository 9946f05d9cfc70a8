package routes

import (
	"complylaw-api/controllers"
	"complylaw-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Report integrity check: anyone holding a report copy may verify it
			public.GET("/reports/verify/:hash", controllers.VerifyReport)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "ComplyLaw Audit API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Everything below acts on firm-owned audit data
			firm := protected.Group("")
			firm.Use(middleware.RequireFirm())
			{
				// Scans
				scans := firm.Group("/scans")
				{
					scans.GET("", controllers.GetScans)
					scans.POST("", controllers.StartScan)
					scans.GET("/:id", controllers.GetScan)
					scans.POST("/:id/cancel", controllers.CancelScan)
					scans.POST("/:id/retry", controllers.RetryScan)

					// Opening the checklist lazily creates the audit submission
					scans.GET("/:id/checklist", controllers.OpenChecklist)
				}

				// Responses (lock-guarded mutations)
				responses := firm.Group("/responses")
				{
					responses.PUT("/:id", controllers.UpdateResponse)
					responses.POST("/:id/evidence", controllers.UploadEvidence)
				}
				firm.DELETE("/evidence/:id", controllers.DeleteEvidence)

				// Submissions
				submissions := firm.Group("/submissions")
				{
					submissions.GET("/:id/progress", controllers.GetProgress)
					submissions.GET("/:id/roadmap", controllers.GetRoadmap)
					submissions.POST("/:id/complete", controllers.CompleteAudit)
					submissions.GET("/:id/report", controllers.GetReportData)
					submissions.POST("/:id/report", controllers.RegisterReport)
				}

				// Dashboard
				dashboard := firm.Group("/dashboard")
				{
					dashboard.GET("/stats", controllers.GetDashboardStats)
					dashboard.GET("/alerts", controllers.GetAlerts)
					dashboard.POST("/alerts/:id/read", controllers.MarkAlertRead)
				}
			}
		}
	}
}
