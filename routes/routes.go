package routes

import (
	"strings"
	"time"

	"barberpro-backend/cache"
	"barberpro-backend/config"
	"barberpro-backend/controllers"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/storage"
	"barberpro-backend/utils"
	"barberpro-backend/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the process-wide resources the HTTP layer is built on.
// Cache, Images and Notifier fall back to in-process implementations when nil.
type Dependencies struct {
	DB       *gorm.DB
	Settings *config.Settings
	Cache    cache.Cache
	Images   storage.ImageStore
	Notifier services.Notifier
	Locker   services.Locker
	Now      func() time.Time
}

// App is the assembled server.
type App struct {
	Router    *gin.Engine
	Registry  *services.WorkRegistry
	Reminders *services.ReminderService
}

func SetupRouter(d Dependencies) *gin.Engine {
	return New(d).Router
}

func New(d Dependencies) *App {
	s := d.Settings
	if d.Now == nil {
		d.Now = s.Now
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemory()
	}
	if d.Images == nil {
		d.Images = storage.LocalStore{Dir: s.UploadDir, BaseURL: s.UploadBaseURL}
	}
	if d.Notifier == nil {
		d.Notifier = services.LogNotifier{Logger: config.GetLogger()}
	}

	clients := repository.New[models.Client](d.DB, "clients")
	catalog := repository.New[models.Service](d.DB, "services")
	reservations := repository.New[models.Reservation](d.DB, "reservations")
	workRecords := repository.New[models.WorkRecord](d.DB, "work_records")
	users := repository.New[models.AdminUser](d.DB, "admin_users")
	reminderLogs := repository.New[models.ReminderLog](d.DB, "reminder_logs")

	dashboard := services.NewDashboard(reservations, catalog, clients, workRecords, d.Cache, d.Now)
	for _, hook := range []func(repository.Hook){
		clients.OnMutate, catalog.OnMutate, reservations.OnMutate, workRecords.OnMutate,
	} {
		hook(dashboard.Invalidate)
	}

	app := &App{
		Registry:  services.NewWorkRegistry(workRecords, d.Now),
		Reminders: services.NewReminderService(reservations, reminderLogs, d.Notifier, d.Locker, d.Now),
	}
	v := validation.New(s.PhoneRegion)

	authController := &controllers.AuthController{Users: users, Validator: v, Settings: s}
	clientController := &controllers.ClientController{Clients: clients, Validator: v}
	catalogController := &controllers.CatalogController{Services: catalog, Images: d.Images, Validator: v, Now: d.Now}
	reservationController := &controllers.ReservationController{
		Reservations: reservations,
		Booking:      services.NewBooking(reservations, catalog, d.Now),
		Validator:    v,
		Settings:     s,
	}
	workRecordController := &controllers.WorkRecordController{
		Records:   workRecords,
		Clients:   clients,
		Registry:  app.Registry,
		Validator: v,
	}
	dashboardController := &controllers.DashboardController{Dashboard: dashboard}
	reminderController := &controllers.ReminderController{Logs: reminderLogs, Reminders: app.Reminders}

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = storage.MaxImageSize + 1<<20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Cache"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(config.GetLogger()))

	if _, ok := d.Images.(storage.LocalStore); ok && strings.HasPrefix(s.UploadBaseURL, "/") {
		r.Static(s.UploadBaseURL, s.UploadDir)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)

		auth.Use(utils.AuthMiddleware(s.JWTSecret), authController.RequireActive)
		auth.GET("/me", authController.Me)
		auth.GET("/profile", authController.Me)
		auth.PUT("/profile", authController.UpdateProfile)
	}

	public := r.Group("/api/public")
	{
		public.GET("/services", catalogController.GetServices)
		public.GET("/availability", reservationController.GetAvailability)
		public.POST("/reservations", reservationController.CreateReservation)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(s.JWTSecret), authController.RequireActive)
	{
		api.GET("/dashboard", dashboardController.GetDashboard)

		clientRoutes := api.Group("/clients")
		{
			clientRoutes.POST("", clientController.CreateClient)
			clientRoutes.GET("", clientController.ListClients)
			clientRoutes.GET("/:id", clientController.GetClient)
			clientRoutes.PUT("/:id", clientController.UpdateClient)
			clientRoutes.DELETE("/:id", clientController.DeleteClient)
		}

		serviceRoutes := api.Group("/services")
		{
			serviceRoutes.POST("", catalogController.CreateService)
			serviceRoutes.GET("", catalogController.GetServices)
			serviceRoutes.GET("/:id", catalogController.GetService)
			serviceRoutes.PUT("/:id", catalogController.UpdateService)
			serviceRoutes.DELETE("/:id", catalogController.DeleteService)
			serviceRoutes.POST("/:id/image", catalogController.UploadImage)
		}

		reservationRoutes := api.Group("/reservations")
		{
			reservationRoutes.GET("", reservationController.GetReservations)
			reservationRoutes.GET("/:id", reservationController.GetReservation)
			reservationRoutes.PATCH("/:id/status", reservationController.UpdateReservationStatus)
			reservationRoutes.DELETE("/:id", reservationController.DeleteReservation)
		}

		recordRoutes := api.Group("/work-records")
		{
			recordRoutes.POST("", workRecordController.CreateWorkRecord)
			recordRoutes.GET("", workRecordController.GetWorkRecords)
			recordRoutes.GET("/export", workRecordController.ExportWorkRecords)
			recordRoutes.GET("/:id", workRecordController.GetWorkRecord)
			recordRoutes.PUT("/:id", workRecordController.UpdateWorkRecord)
			recordRoutes.DELETE("/:id", workRecordController.DeleteWorkRecord)
		}

		reminderRoutes := api.Group("/reminders")
		{
			reminderRoutes.GET("/logs", reminderController.GetReminderLogs)
			reminderRoutes.POST("/run", reminderController.RunReminders)
		}
	}

	app.Router = r
	return app
}
