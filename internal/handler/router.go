package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"commtracker-backend/internal/middleware"
	"commtracker-backend/internal/storage"
	"commtracker-backend/internal/utils"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Router struct {
	Auth       *AuthHandler
	Contacts   *ContactHandler
	Dashboard  *DashboardHandler
	Middleware *middleware.Middleware
	DB         Pinger
	StaticDir  string
}

var pageRoutes = []string{"/", "/login", "/signup", "/dashboard", "/communications"}

func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", rt.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/signup", rt.Auth.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", rt.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", rt.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/ws", rt.Contacts.WebSocketHandler).Methods(http.MethodGet)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(rt.Middleware.AuthMiddleware)

	protected.HandleFunc("/auth/me", rt.Auth.Me).Methods(http.MethodGet)
	protected.HandleFunc("/contacts", rt.Contacts.ListContacts).Methods(http.MethodGet)
	protected.HandleFunc("/contacts", rt.Contacts.CreateContact).Methods(http.MethodPost)
	protected.HandleFunc("/contacts/{id}", rt.Contacts.GetContact).Methods(http.MethodGet)
	protected.HandleFunc("/contacts/{id}", rt.Contacts.UpdateContact).Methods(http.MethodPatch)
	protected.HandleFunc("/contacts/{id}", rt.Contacts.DeleteContact).Methods(http.MethodDelete)
	protected.HandleFunc("/contacts/{id}/delete", rt.Contacts.RequestDelete).Methods(http.MethodPost)
	protected.HandleFunc("/contacts/{id}/log", rt.Contacts.LogCommunication).Methods(http.MethodPost)
	protected.HandleFunc("/contacts/{id}/log/{index:[0-9]+}", rt.Contacts.DeleteLogEntry).Methods(http.MethodDelete)
	protected.HandleFunc("/uploads", rt.Contacts.UploadImage).Methods(http.MethodPost)
	protected.HandleFunc("/dashboard", rt.Dashboard.Summary).Methods(http.MethodGet)
	protected.HandleFunc("/spending", rt.Dashboard.AddSpending).Methods(http.MethodPost)

	r.PathPrefix(storage.URLPrefix).Handler(rt.Contacts.Blobs.Handler()).Methods(http.MethodGet, http.MethodHead)

	if rt.StaticDir != "" {
		index := filepath.Join(rt.StaticDir, "index.html")
		for _, page := range pageRoutes {
			r.HandleFunc(page, func(w http.ResponseWriter, req *http.Request) {
				http.ServeFile(w, req, index)
			}).Methods(http.MethodGet)
		}
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(rt.StaticDir))).Methods(http.MethodGet, http.MethodHead)
	}

	// preflight requests are answered before route matching
	return rt.Middleware.RequestLogger(rt.Middleware.CORS(r))
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := rt.DB.PingContext(ctx); err != nil {
		utils.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
