package api

import (
	"github.com/bilgisen/portal/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers) {
	// API group with versioning
	api := app.Group("/api/v1")

	// Health check endpoint
	api.Get("/health", h.HealthCheck)

	// Public content
	api.Get("/articles", h.ListArticles)
	api.Get("/articles/:id", h.GetArticle)
	api.Get("/news", h.ListNews)
	api.Get("/news/:id", h.GetNews)
	api.Get("/faq", h.ListFAQ)
	api.Get("/applications", h.ListApplications)
	api.Get("/fees", h.GetFees)
	api.Get("/fees/:code", h.GetFee)
	api.Post("/chat", h.Chat)

	// Server-side listing views
	api.Post("/views", h.OpenView)
	api.Get("/views/:vid", h.GetView)
	api.Patch("/views/:vid", h.UpdateView)
	api.Delete("/views/:vid", h.CloseView)

	// Dashboard endpoints
	admin := api.Group("/admin", middleware.AdminOnly(h.config.AdminAPIKey))
	{
		// sessions and images are registered before the :collection routes they would shadow
		admin.Post("/sessions", h.OpenSession)
		admin.Get("/sessions/:sid", h.GetSession)
		admin.Patch("/sessions/:sid", h.SetSessionField)
		admin.Post("/sessions/:sid/reset", h.ResetSession)
		admin.Post("/sessions/:sid/submit", h.SubmitSession)
		admin.Delete("/sessions/:sid", h.CancelSession)
		admin.Post("/images", h.UploadImage)

		admin.Get("/:collection", h.AdminList)
		admin.Post("/:collection/:id/publish", h.Publish)
		admin.Delete("/:collection/:id", h.Delete)
	}

	// 404 Handler for the API
	api.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Endpoint not found")
	})
}
