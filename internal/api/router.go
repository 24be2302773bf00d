package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/api/handler"
	"github.com/midnightlabs/midnight/internal/api/middleware"
	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/infrastructure/http/handlers"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

// Deps are the services the router exposes.
type Deps struct {
	Sessions     ports.SessionService
	CurrentUser  func() string
	Gate         ports.GateService
	Data         ports.DataService
	Assistant    ports.AssistantService
	Tokens       ports.Tokens
	Cooldown     ports.Cooldown
	ResendWindow time.Duration
	Clock        clock.Clock
	Checks       map[string]handlers.Check
	Log          zerolog.Logger

	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "midnight",
		Registerer: registerer,
	}))

	// --- Probes and metrics (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Tokens)
	phoneHandler := handler.NewPhoneHandler(d.Sessions, d.Tokens, d.Cooldown, d.ResendWindow)
	gateHandler := handler.NewGateHandler(d.Gate)
	dataHandler := handler.NewDataHandler(d.Data, d.Clock)
	assistantHandler := handler.NewAssistantHandler(d.Assistant)

	api := e.Group("/api")
	api.GET("/gate", gateHandler.Decide)

	// --- Sign-in ---
	s := api.Group("/session")
	s.GET("", sessionHandler.Current)
	s.POST("/provider", sessionHandler.SignInWithProvider)
	s.POST("/redirect", sessionHandler.RecoverRedirect)
	s.POST("/email/signin", sessionHandler.SignInWithEmail)
	s.POST("/email/signup", sessionHandler.SignUpWithEmail)
	s.POST("/password-reset", sessionHandler.RequestPasswordReset)
	s.POST("/demo", sessionHandler.EnterDemo)
	s.POST("/phone/challenge", phoneHandler.Challenge)
	s.POST("/phone/send", phoneHandler.SendCode)
	s.POST("/phone/resend", phoneHandler.ResendCode)
	s.POST("/phone/confirm", phoneHandler.ConfirmCode)

	authed := []echo.MiddlewareFunc{middleware.Auth(d.Tokens), middleware.MatchSession(d.CurrentUser)}
	s.POST("/signout", sessionHandler.SignOut, authed...)

	// --- Profile ---
	me := api.Group("/me", authed...)
	me.PATCH("/settings", sessionHandler.UpdateSettings)
	onboarding := me.Group("/onboarding", middleware.RequireReady(d.Gate, domain.RouteOnboarding))
	onboarding.POST("", sessionHandler.CompleteOnboarding)
	onboarding.POST("/skip", sessionHandler.SkipOnboarding)

	// --- App data (onboarded sessions only) ---
	app := api.Group("", middleware.Auth(d.Tokens), middleware.MatchSession(d.CurrentUser), middleware.RequireReady(d.Gate, domain.RouteApp))
	app.GET("/data", dataHandler.Snapshot)
	app.GET("/dashboard", dataHandler.Dashboard)

	app.POST("/goals", dataHandler.AddGoal)
	app.PATCH("/goals/:id", dataHandler.UpdateGoal)
	app.DELETE("/goals/:id", dataHandler.DeleteGoal)

	app.POST("/tasks", dataHandler.AddTask)
	app.PATCH("/tasks/:id", dataHandler.UpdateTask)
	app.POST("/tasks/:id/toggle", dataHandler.ToggleTask)
	app.DELETE("/tasks/:id", dataHandler.DeleteTask)

	app.POST("/reminders", dataHandler.AddReminder)
	app.PATCH("/reminders/:id", dataHandler.UpdateReminder)
	app.POST("/reminders/:id/complete", dataHandler.CompleteReminder)
	app.DELETE("/reminders/:id", dataHandler.DeleteReminder)

	app.POST("/journal", dataHandler.AddJournalEntry)
	app.PATCH("/journal/:id", dataHandler.UpdateJournalEntry)
	app.DELETE("/journal/:id", dataHandler.DeleteJournalEntry)

	app.POST("/habits", dataHandler.AddHabit)
	app.PATCH("/habits/:id", dataHandler.UpdateHabit)
	app.POST("/habits/:id/complete", dataHandler.CompleteHabit)
	app.DELETE("/habits/:id", dataHandler.DeleteHabit)

	app.POST("/domains/:type/items", dataHandler.AddDomainItem)
	app.PATCH("/domains/:type/items/:id", dataHandler.UpdateDomainItem)
	app.DELETE("/domains/:type/items/:id", dataHandler.DeleteDomainItem)

	app.POST("/insights", dataHandler.AddInsight)
	app.POST("/insights/:id/read", dataHandler.MarkInsightRead)
	app.DELETE("/insights/:id", dataHandler.DismissInsight)

	app.POST("/assistant/chat", assistantHandler.Chat)
	app.GET("/assistant/history", assistantHandler.History)
	app.DELETE("/assistant/history", assistantHandler.ClearHistory)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
