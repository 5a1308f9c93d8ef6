package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/middleware"
)

// Routes holds every console handler
type Routes struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Users     *UserHandler
	Members   *MemberHandler
	Palette   *PaletteHandler
	Status    *StatusHandler

	// LoginLimiter throttles credential submissions, optional
	LoginLimiter echo.MiddlewareFunc
}

// Register mounts the console routes on e. The guard middleware is expected
// to run before them.
func (r Routes) Register(e *echo.Echo) {
	loginMiddleware := []echo.MiddlewareFunc{}
	if r.LoginLimiter != nil {
		loginMiddleware = append(loginMiddleware, r.LoginLimiter)
	}

	// Public routes
	e.GET("/login", r.Auth.LoginPage)
	e.POST("/auth/login", r.Auth.HandleLogin, loginMiddleware...)
	e.POST("/auth/logout", r.Auth.HandleLogout)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
	})
	e.GET("/dashboard", r.Dashboard.Dashboard)
	e.GET("/palette", r.Palette.Palette)
	if r.Status != nil {
		e.GET("/status/stream", r.Status.Stream)
	}

	// Admin only
	users := e.Group("/users", middleware.RequireAdmin())
	users.GET("", r.Users.ListUsers)
	users.GET("/table", r.Users.Table)
	users.GET("/new", r.Users.NewUserForm)
	users.POST("", r.Users.StoreUser)
	users.GET("/:uid/edit", r.Users.EditUserForm)
	users.PUT("/:uid", r.Users.UpdateUser)
	users.POST("/:uid/toggle", r.Users.ToggleUser)
	users.DELETE("/:uid", r.Users.DeleteUser)

	members := e.Group("/master/:slug")
	members.GET("", r.Members.ListMembers)
	members.GET("/table", r.Members.Table)
	members.GET("/new", r.Members.NewMemberForm)
	members.POST("", r.Members.StoreMember)
	members.POST("/:id/toggle", r.Members.ToggleMember)
	members.DELETE("/:id", r.Members.DeleteMember)
}
