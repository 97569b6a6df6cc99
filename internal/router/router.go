package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/config"
	"tbpedia-dashboard/internal/guard"
	"tbpedia-dashboard/internal/handlers"
	"tbpedia-dashboard/internal/middleware"
	"tbpedia-dashboard/internal/services"
	"tbpedia-dashboard/internal/session"
)

// Deps are the long-lived collaborators of the screens.
type Deps struct {
	Config       config.Config
	Client       *apiclient.Client
	AuditService *services.AuditService
	Navigator    *session.Navigator
	Logger       zerolog.Logger
}

type screen interface {
	List(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Remove(http.ResponseWriter, *http.Request)
	Hide(http.ResponseWriter, *http.Request)
	Unhide(http.ResponseWriter, *http.Request)
}

func SetupRouter(d Deps) *mux.Router {
	logger := d.Logger
	policy := guard.DefaultPolicy()

	authService := services.NewAuthService(d.Client, logger)

	authHandler := handlers.NewAuthHandler(authService, d.Navigator, policy, logger)
	dashboardHandler := handlers.NewDashboardHandler(d.Client, logger)
	orderHandler := handlers.NewOrderHandler(d.Client, d.AuditService, logger)
	auditHandler := handlers.NewAuditHandler(d.AuditService, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(d.Config.RateLimit), d.Config.RateBurst)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.PerformanceMonitoring(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.CORSOrigins))
	r.Use(rateLimiter.Middleware())
	r.Use(middleware.RequestValidation())
	r.Use(middleware.SessionLoader(func(jar session.CredentialJar) *session.Store {
		return authService.NewStore(jar)
	}, d.Config.CookieSecure, logger))
	r.Use(guard.Middleware(policy, d.Navigator, logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/", authHandler.SignInScreen).Methods("GET")
	r.HandleFunc("/", authHandler.SignIn).Methods("POST")
	r.HandleFunc("/sign-up-seller", authHandler.SignUpSellerScreen).Methods("GET")
	r.HandleFunc("/sign-up-seller", authHandler.SignUpSeller).Methods("POST")
	r.HandleFunc("/sign-up-buyer", authHandler.SignUpBuyerScreen).Methods("GET")
	r.HandleFunc("/sign-up-buyer", authHandler.SignUpBuyer).Methods("POST")
	r.HandleFunc("/sign-out", authHandler.SignOut).Methods("POST")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/dashboard", dashboardHandler.Admin).Methods("GET")
	mount(admin, "/categories", handlers.NewCategoryScreen(d.Client, d.AuditService, logger))
	mount(admin, "/majors", handlers.NewMajorScreen(d.Client, d.AuditService, logger))
	mount(admin, "/products", handlers.NewProductScreen(d.Client, d.AuditService, logger))
	admin.HandleFunc("/orders", orderHandler.List).Methods("GET")
	admin.HandleFunc("/orders/{id:[0-9]+}/status", orderHandler.SetStatus).Methods("PATCH")
	admin.HandleFunc("/audit", auditHandler.Recent).Methods("GET")

	seller := r.PathPrefix("/seller").Subrouter()
	seller.HandleFunc("/dashboard", dashboardHandler.Seller).Methods("GET")
	mount(seller, "/products", handlers.NewSellerProductScreen(d.Client, d.AuditService, logger))
	seller.HandleFunc("/orders", orderHandler.List).Methods("GET")
	seller.HandleFunc("/orders/{id:[0-9]+}/status", orderHandler.SetStatus).Methods("PATCH")

	user := r.PathPrefix("/user").Subrouter()
	user.HandleFunc("/home", dashboardHandler.BuyerHome).Methods("GET")

	return r
}

func mount(r *mux.Router, prefix string, s screen) {
	r.HandleFunc(prefix, s.List).Methods("GET")
	r.HandleFunc(prefix, s.Create).Methods("POST")
	r.HandleFunc(prefix+"/{key}", s.Update).Methods("PUT")
	r.HandleFunc(prefix+"/{key}", s.Remove).Methods("DELETE")
	r.HandleFunc(prefix+"/{key}/hide", s.Hide).Methods("PATCH")
	r.HandleFunc(prefix+"/{key}/unhide", s.Unhide).Methods("PATCH")
}
