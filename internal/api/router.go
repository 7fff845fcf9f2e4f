package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/recipehub/recipe-api/docs"
	"github.com/recipehub/recipe-api/internal/api/handler"
	"github.com/recipehub/recipe-api/internal/api/middleware"
	"github.com/recipehub/recipe-api/internal/core/ports"
	"github.com/recipehub/recipe-api/internal/infrastructure/http/handlers"
	"github.com/recipehub/recipe-api/internal/infrastructure/storage"
	"github.com/recipehub/recipe-api/internal/pkg/metrics"
)

// multipartOverhead is the body allowance for form fields on top of the image.
const multipartOverhead = 1 << 20

// Dependencies are the wired collaborators the router exposes over HTTP.
type Dependencies struct {
	Logger  zerolog.Logger
	Tokens  middleware.TokenVerifier
	Users   middleware.UserFinder
	Auth    ports.AuthService
	Recipes ports.RecipeService

	// Identity and States enable the Google sign-in routes when both are set.
	Identity    ports.IdentityProvider
	States      ports.StateStore
	FrontendURL string

	// AllowedOrigins lists the browser origins granted CORS access. Empty
	// means FrontendURL only.
	AllowedOrigins []string

	MaxImageBytes int64
	Health        map[string]handlers.Checker

	// Metrics replaces the default Prometheus registry. Tests pass a fresh
	// one so that several routers can coexist in one process.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.Validator = handler.NewValidator()

	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = storage.DefaultMaxImageBytes
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(cors(d.AllowedOrigins, d.FrontendURL))

	// The request logger runs the error handler, so the metrics middleware
	// wrapping it sees the final status code.
	promCfg := echoprometheus.MiddlewareConfig{Namespace: metrics.Namespace, Subsystem: "http"}
	var gatherer prometheus.Gatherer
	if d.Metrics != nil {
		promCfg.Registerer = d.Metrics
		gatherer = d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))
	e.Use(requestLogger(d.Logger))

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Probes ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	if d.Identity != nil && d.States != nil {
		oauthHandler := handler.NewOAuthHandler(d.Identity, d.States, d.Auth, d.FrontendURL, d.Logger)
		e.GET("/auth/google", oauthHandler.GoogleLogin)
		e.GET("/auth/google/callback", oauthHandler.GoogleCallback)
	}

	// --- Recipe routes ---
	recipeHandler := handler.NewRecipeHandler(d.Recipes, d.MaxImageBytes)
	authMiddleware := middleware.Auth(d.Tokens, d.Users)
	bodyLimit := echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
		Limit: bodyLimitString(d.MaxImageBytes + multipartOverhead),
	})

	recipes := e.Group("/api/recipes")
	recipes.GET("", recipeHandler.List)
	recipes.GET("/:id", recipeHandler.Get)
	recipes.POST("", recipeHandler.Create, authMiddleware, bodyLimit)
	recipes.PUT("/:id", recipeHandler.Update, authMiddleware, bodyLimit)
	recipes.DELETE("/:id", recipeHandler.Delete, authMiddleware)

	return e
}

// requestLogger emits one structured line per request through zerolog.
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

// cors lets the browser front end call the API with a bearer token.
func cors(origins []string, frontendURL string) echo.MiddlewareFunc {
	if len(origins) == 0 && frontendURL != "" {
		origins = []string{strings.TrimRight(frontendURL, "/")}
	}
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderOrigin},
		MaxAge:       600,
	})
}

func bodyLimitString(n int64) string {
	return strconv.FormatInt(n/1024, 10) + "K"
}
