package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/config"
	"github.com/varunSbabu/BloodLink/internal/handlers"
	"github.com/varunSbabu/BloodLink/internal/middleware"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Initialize handlers
	donorHandler := handlers.NewDonorHandler(db)
	requestHandler := handlers.NewRequestHandler(db)
	otpHandler := handlers.NewOTPHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg)

	api := router.Group("/api")
	{
		donorRoutes := api.Group("/donors")
		{
			donorRoutes.POST("/login", donorHandler.Login)
			donorRoutes.GET("", donorHandler.GetDonors)
			donorRoutes.POST("", donorHandler.CreateDonor)
			donorRoutes.GET("/bloodtype/:bloodType", donorHandler.GetDonorsByBloodType)
			donorRoutes.GET("/nearby/:lat/:lng/:distance", donorHandler.GetNearbyDonors)
			donorRoutes.GET("/:id", donorHandler.GetDonorByID)
			donorRoutes.PUT("/:id", donorHandler.UpdateDonor)
			donorRoutes.DELETE("/:id", donorHandler.DeleteDonor)
			donorRoutes.GET("/:id/requests", donorHandler.GetDonorRequests)
			donorRoutes.PUT("/:id/requests/:requestId/:status", donorHandler.UpdateRequestStatus)
		}

		requestRoutes := api.Group("/requests")
		{
			requestRoutes.GET("", requestHandler.GetRequests)
			requestRoutes.POST("", requestHandler.CreateRequest)
			// Must be registered before the /:id routes resolve it.
			requestRoutes.GET("/status", requestHandler.GetRequestStatus)
			requestRoutes.GET("/:id", requestHandler.GetRequestByID)
			requestRoutes.DELETE("/:id", requestHandler.DeleteRequest)
			requestRoutes.GET("/:id/matching-donors", requestHandler.GetMatchingDonors)
			requestRoutes.POST("/:id/send-to-donors", requestHandler.SendToDonors)
			requestRoutes.POST("/:id/confirm-donation", requestHandler.ConfirmDonation)
			requestRoutes.POST("/:id/fulfill", requestHandler.FulfillRequest)
			requestRoutes.POST("/:id/donors/:donorId", requestHandler.SendToSpecificDonor)
		}

		otpRoutes := api.Group("/otp")
		{
			otpRoutes.POST("/send", otpHandler.SendOTP)
			otpRoutes.POST("/verify", otpHandler.VerifyOTP)
			otpRoutes.POST("/resend", otpHandler.ResendOTP)
		}

		adminRoutes := api.Group("/admin")
		{
			adminRoutes.POST("/register", adminHandler.Register)
			adminRoutes.POST("/login", adminHandler.Login)

			authorized := adminRoutes.Group("")
			authorized.Use(middleware.AdminAuthMiddleware(db, cfg))
			{
				authorized.GET("/dashboard", adminHandler.Dashboard)
				authorized.GET("/donors", adminHandler.GetDonors)
				authorized.GET("/requests", adminHandler.GetRequests)
			}
		}

		// Simple health check endpoint
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
		})
	}
}
