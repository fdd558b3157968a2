package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/auth"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/document"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/legacyconfig"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/report"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/usecase"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/metrics"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/nfe"
	infrapdf "github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/pdf"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/postgres"
	httpRouter "github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/interfaces/http"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/config"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/jwt"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	ruleSetRepo := postgres.NewRuleSetRepository(pool)
	legacyRepo := postgres.NewLegacyConfigRepository(pool)
	calcRepo := postgres.NewCalculationRepository(pool)

	var collector *metrics.Collector
	var recorder calculation.Recorder
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, nil)
		recorder = collector
	}

	passThrough := decimal.NewFromInt(int64(cfg.Calc.DefaultPassThrough))
	calcUC := calculation.NewUseCase(
		documentRepo, ruleSetRepo, legacyRepo, calcRepo, recorder, log,
		calculation.Config{
			AllowMissingUfConfig: !cfg.Calc.StrictUfConfig,
			DefaultPassThrough:   &passThrough,
		},
	)

	// PDF: informe de auditoría del cálculo
	reportUC := report.NewUseCase(companyRepo, documentRepo, calcRepo, infrapdf.NewMarotoPDFGenerator())

	tokens := jwt.NewSigner(jwt.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.Expiration) * time.Minute,
		Roles:  entity.Roles(),
	})
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, tokens)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    6 * 1024 * 1024,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:     usecase.NewCompanyUseCase(companyRepo),
		UserUC:        usecase.NewUserUseCase(userRepo),
		AuthUC:        authUC,
		DocumentUC:    document.NewUseCase(documentRepo, nfe.NewParser(), log),
		CalculationUC: calcUC,
		RuleSetUC:     ruleset.NewUseCase(ruleSetRepo, log),
		LegacyUC:      legacyconfig.NewUseCase(legacyRepo, log),
		ReportUC:      reportUC,
		Metrics:       collector,
		DB:            pool,
		Tokens:        tokens,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
