package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/handlers"
	"github.com/jdcera4/pruebaBot/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	campaignHandler *handlers.CampaignHandler,
	contactHandler *handlers.ContactHandler,
	messageHandler *handlers.MessageHandler,
	flowHandler *handlers.FlowHandler,
	settingsHandler *handlers.SettingsHandler,
	webhookHandler *handlers.WebhookHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Gateway events arrive with their own key.
	webhooks := e.Group("/webhooks", middlewares.APIKeyAuth(cfg.Auth.WebhookAPIKey))
	webhooks.POST("/whatsapp", webhookHandler.HandleEvent)

	// API v1 base group
	v1 := e.Group("/api/v1", middlewares.APIKeyAuth(cfg.Auth.APIKey))

	campaigns := v1.Group("/campaigns")
	campaigns.POST("", campaignHandler.CreateCampaign)
	campaigns.GET("", campaignHandler.GetAllCampaigns)
	campaigns.GET("/scheduled", campaignHandler.GetScheduled)
	campaigns.GET("/:id", campaignHandler.GetCampaign)
	campaigns.POST("/:id/execute", campaignHandler.ExecuteCampaign)
	campaigns.DELETE("/:id/schedule", campaignHandler.CancelSchedule)
	campaigns.GET("/:id/progress", campaignHandler.GetProgress)
	campaigns.GET("/:id/report", campaignHandler.GetReport)

	contacts := v1.Group("/contacts")
	contacts.POST("", contactHandler.CreateContact)
	contacts.GET("", contactHandler.GetAllContacts)
	contacts.POST("/import", contactHandler.ImportContacts)
	contacts.GET("/:id", contactHandler.GetContact)
	contacts.PUT("/:id", contactHandler.UpdateContact)
	contacts.DELETE("/:id", contactHandler.DeleteContact)

	messages := v1.Group("/messages")
	messages.GET("", messageHandler.GetAllMessages)
	messages.POST("/send", messageHandler.SendMessage)
	messages.GET("/stats", messageHandler.GetStats)
	messages.GET("/conversation/:phone", messageHandler.GetConversation)

	flows := v1.Group("/flows")
	flows.POST("", flowHandler.CreateFlow)
	flows.GET("", flowHandler.GetAllFlows)
	flows.GET("/active", flowHandler.GetActiveFlow)
	flows.GET("/:id", flowHandler.GetFlow)
	flows.PUT("/:id", flowHandler.UpdateFlow)
	flows.DELETE("/:id", flowHandler.DeleteFlow)
	flows.POST("/:id/activate", flowHandler.ActivateFlow)
	flows.DELETE("/:id/steps/:stepId", flowHandler.DeleteStep)

	v1.POST("/conversation/next", flowHandler.ResolveStep)

	settings := v1.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)

	v1.GET("/dashboard/stats", dashboardHandler.GetStats)
}
