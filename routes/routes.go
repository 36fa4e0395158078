package routes

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	auth := controllers.NewAuthController(s)
	uc := controllers.NewUserController(s)
	dc := controllers.NewDeviceController(s)
	lk := controllers.NewLookupController(s)
	lc := controllers.NewLendingController(s)
	rc := controllers.NewReservationController(s)
	mc := controllers.NewMaintenanceController(s)
	ac := controllers.NewAuditLogController(s)

	authMW := app.AuthRequired(a.Tokens, a.Repo)
	gateMW := app.MaintenanceGate(a.Maintenance)
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, a.Config.LastSeen.Throttle)
	editor := app.RequireRank(access.Editor)
	admin := app.RequireRank(access.Admin)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// Login / logout (public)
	// ------------------------------
	pub := r.Group("/api/auth")
	{
		pub.POST("/login", auth.Login)
		pub.POST("/logout", auth.Logout)
		pub.GET("/status", auth.Status)
	}

	api := r.Group("/api", authMW, gateMW, seenMW)

	// reachable before activation
	api.GET("/users/me", uc.Me)

	act := api.Group("", app.RequireActivated())
	act.GET("/admin/maintenance", mc.Get)

	// ------------------------------
	// Devices
	// ------------------------------
	devices := act.Group("/devices")
	{
		devices.GET("", dc.List) // ?q=&statusId=&categoryId=&locationId=&page=&pageSize=&sort=&order=
		devices.GET("/:id", dc.Get)
		devices.POST("", editor, dc.Create)
		devices.PATCH("/:id", editor, dc.Update)
		devices.DELETE("/:id", admin, dc.Delete)

		devices.GET("/:id/electronic-tests", dc.ElectronicTests)
		devices.POST("/:id/electronic-tests", editor, dc.AddElectronicTest)
	}

	// ------------------------------
	// Lookups
	// ------------------------------
	act.GET("/statuses", lk.ListStatuses())
	act.GET("/categories", lk.ListCategories())
	act.POST("/categories", admin, lk.CreateCategory())
	act.GET("/locations", lk.ListLocations())
	act.POST("/locations", admin, lk.CreateLocation())
	act.GET("/network-environments", lk.ListNetworkEnvironments())
	act.POST("/network-environments", admin, lk.CreateNetworkEnvironment())
	act.GET("/depreciation-periods", lk.ListDepreciationPeriods())
	act.POST("/depreciation-periods", admin, lk.CreateDepreciationPeriod())
	act.GET("/ip-addresses", lk.ListIPAddresses())
	act.POST("/ip-addresses", admin, lk.CreateIPAddress())

	// ------------------------------
	// Lendings
	// ------------------------------
	lendings := act.Group("/lendings")
	{
		lendings.GET("", editor, lc.List) // ?status=&userId=&deviceId=
		lendings.GET("/mine", lc.Mine)
		lendings.GET("/pending", editor, lc.Pending)
		lendings.GET("/available", lc.Available)
		lendings.GET("/unavailable", lc.Unavailable)
		lendings.GET("/:id", lc.Get)
		lendings.POST("/:deviceId", lc.Request)
		lendings.PUT("/:action/:id", lc.Transition) // accept|decline|cancel|return
	}

	// ------------------------------
	// Reservations
	// ------------------------------
	reservations := act.Group("/reservations")
	{
		reservations.GET("", editor, rc.List) // ?userId=&deviceId=&current=true
		reservations.GET("/mine", rc.Mine)
		reservations.GET("/:id", rc.Get)
		reservations.POST("/:deviceId", rc.Create)
		reservations.PUT("/cancel/:id", rc.Cancel)
	}

	// ------------------------------
	// Users (admin only)
	// ------------------------------
	users := act.Group("/users", admin)
	{
		users.GET("", uc.List) // ?q=&page=&size=
		users.GET("/pending", uc.Pending)
		users.PATCH("/:id/activate", uc.Activate)
		users.PATCH("/:id/role", uc.SetRole)
		users.PATCH("/:id/deactivate", uc.Deactivate)
	}

	adm := act.Group("/admin", admin)
	{
		adm.POST("/maintenance/:bool", mc.Set)
		adm.GET("/audit", ac.List) // ?targetType=&targetId=&limit=
	}
}
