package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/auth"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/document"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/legacyconfig"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/report"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/usecase"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/metrics"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// Pinger verifica la conectividad de la base de datos (pgxpool.Pool lo implementa).
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC     *usecase.CompanyUseCase
	UserUC        *usecase.UserUseCase
	AuthUC        *auth.AuthUseCase
	DocumentUC    *document.UseCase
	CalculationUC *calculation.UseCase
	RuleSetUC     *ruleset.UseCase
	LegacyUC      *legacyconfig.UseCase
	ReportUC      *report.UseCase
	Metrics       *metrics.Collector // nil = sin /metrics
	DB            Pinger             // nil = /health no consulta la base
	Tokens        TokenVerifier
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/health", healthHandler(deps.DB))

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de empresa (público); la consulta requiere token.
	companyHandler := NewCompanyHandler(deps.CompanyUC, log)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Tokens))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleAnalista, entity.RoleConsulta)
	writer := RequireRole(entity.RoleAdmin, entity.RoleAnalista)
	admin := RequireRole(entity.RoleAdmin)

	protected.Get("/companies/me", anyRole, companyHandler.Me)
	protected.Get("/users/me", anyRole, NewUserHandler(deps.UserUC, log).Me)

	// Documentos y cálculos
	documentHandler := NewDocumentHandler(deps.DocumentUC, log)
	calcHandler := NewCalculationHandler(deps.CalculationUC, deps.ReportUC, log)
	documents := protected.Group("/documents")
	documents.Post("/", writer, documentHandler.Create)
	documents.Post("/import", writer, documentHandler.Import)
	documents.Get("/", anyRole, documentHandler.List)
	documents.Get("/:id", anyRole, documentHandler.GetByID)
	documents.Post("/:id/calculations", writer, calcHandler.Calculate)
	documents.Get("/:id/calculations", anyRole, calcHandler.ListByDocument)
	documents.Post("/:id/simulations", anyRole, calcHandler.Simulate)

	calculations := protected.Group("/calculations")
	calculations.Get("/:id", anyRole, calcHandler.GetByID)
	calculations.Get("/:id/report.pdf", anyRole, calcHandler.Report)

	// Conjuntos de reglas
	ruleSetHandler := NewRuleSetHandler(deps.RuleSetUC, log)
	ruleSets := protected.Group("/rule-sets")
	ruleSets.Post("/", admin, ruleSetHandler.Create)
	ruleSets.Get("/", anyRole, ruleSetHandler.List)
	ruleSets.Get("/active", anyRole, ruleSetHandler.Active)
	ruleSets.Get("/:id", anyRole, ruleSetHandler.GetByID)

	// Configuración del régimen vigente
	legacyHandler := NewLegacyConfigHandler(deps.LegacyUC, log)
	legacy := protected.Group("/legacy")
	legacy.Put("/uf-configs", admin, legacyHandler.PutUfConfig)
	legacy.Get("/uf-configs", anyRole, legacyHandler.ListUfConfigs)
	legacy.Put("/icms-rates", admin, legacyHandler.PutIcmsRate)
	legacy.Get("/icms-rates", anyRole, legacyHandler.ListIcmsRates)
}

func healthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "database": "unreachable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
