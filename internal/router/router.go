package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"membership/internal/auth"
	"membership/internal/handler"
	"membership/internal/logger"
	"membership/internal/metrics"
	mw "membership/internal/middleware"
	"membership/internal/service"
	"membership/internal/view"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Log            logger.Logger
	Sessions       auth.SessionStore
	Cookie         auth.CookieConfig
	SessionSliding bool
	Users          service.UserService
	Metrics        *metrics.Metrics
	Renderer       *view.Renderer
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	deps Deps,
	authHandler *handler.AuthHandler,
	pageHandler *handler.PageHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
) {
	e.HideBanner = true
	e.Renderer = deps.Renderer
	e.HTTPErrorHandler = handler.NewErrorHandler(deps.Log)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	app := e.Group("", mw.LoadSession(mw.SessionConfig{
		Store:   deps.Sessions,
		Cookie:  deps.Cookie,
		Sliding: deps.SessionSliding,
		Logger:  deps.Log,
	}))

	// Public routes
	app.GET("/", pageHandler.Landing)
	app.GET("/signIn", authHandler.SigninForm)
	app.POST("/signIn", authHandler.Signin)
	app.GET("/signup", authHandler.SignupForm)
	app.POST("/signup", authHandler.Signup)
	app.GET("/logout", authHandler.Logout)
	app.GET("/user", userHandler.CurrentUser)

	// Session routes
	app.GET("/authenticated", pageHandler.Authenticated, mw.RequireSession("/signIn"))
	app.GET("/membersOnly", pageHandler.MembersOnly, mw.RequireSession("/"))

	// Admin routes
	admin := app.Group("/admin", mw.RequireSession("/signIn"), mw.RequireAdminRole(deps.Users))
	admin.GET("", adminHandler.Dashboard)
	admin.POST("/promote/:email", adminHandler.Promote)
	admin.POST("/demote/:email", adminHandler.Demote)
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Warn("request", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	})
}
