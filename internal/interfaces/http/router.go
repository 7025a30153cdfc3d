package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturador-sunat/pkg/jwt"
)

// RouterDeps dependencias para el router. En producción son los casos de uso de
// internal/application/issuance y internal/application/auth.
type RouterDeps struct {
	IssueUC       documentIssuer
	QueryUC       documentReader
	ResubmitUC    documentResubmitter
	CredentialsUC credentialsService
	AuthUC        authService
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(jwt.RoleAdmin)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleEmisor)

	// Comprobantes. Las rutas fijas van antes de /:id.
	documents := protected.Group("/documents", RequireIssuer())
	docHandler := NewDocumentHandler(deps.IssueUC, deps.QueryUC, deps.ResubmitUC)
	documents.Get("/progress", docHandler.Progress)
	documents.Post("/resubmit-rejected", adminOnly, docHandler.ResubmitRejected)
	documents.Post("/", writers, docHandler.Issue)
	documents.Get("/:id", docHandler.Get)
	documents.Get("/:id/status", docHandler.Status)
	documents.Post("/:id/resubmit", writers, docHandler.Resubmit)

	// Emisores y certificados (admin)
	credHandler := NewCredentialsHandler(deps.CredentialsUC)
	protected.Post("/issuers", adminOnly, credHandler.CreateIssuer)
	protected.Post("/certificates", adminOnly, credHandler.UploadCertificate)
	protected.Post("/auth/users", adminOnly, authHandler.CreateUser)
}
