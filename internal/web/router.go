package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/uploads"
	webembed "github.com/erazemk/ewaste/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, photos *uploads.Store, maxUpload int64) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Engine:    lifecycle.New(db),
		Uploads:   photos,
		Templates: templates,
		JWTSecret: jwtSecret,
		MaxUpload: maxUpload,
	}

	mux := http.NewServeMux()
	login := func(h http.HandlerFunc) http.Handler { return RequireLogin(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /register/household", s.RegisterHouseholdPage)
	mux.HandleFunc("POST /register/household", s.RegisterHouseholdSubmit)
	mux.HandleFunc("GET /register/staff", s.RegisterStaffPage)
	mux.HandleFunc("POST /register/staff", s.RegisterStaffSubmit)

	// Household.
	mux.Handle("GET /household/dashboard", login(s.HouseholdDashboard))
	mux.Handle("GET /pickup/request", login(s.RequestPickupPage))
	mux.Handle("POST /pickup/request", login(s.RequestPickupSubmit))
	mux.Handle("GET /pickup/{id}", login(s.PickupDetail))
	mux.Handle("POST /pickup/{id}/cancel", login(s.CancelPickup))

	// Staff.
	mux.Handle("GET /staff/dashboard", login(s.StaffDashboard))
	mux.Handle("GET /pickup/{id}/update", login(s.UpdatePickupPage))
	mux.Handle("POST /pickup/{id}/update", login(s.UpdatePickupSubmit))

	// Admin.
	mux.Handle("GET /admin/dashboard", login(s.AdminDashboard))
	mux.Handle("POST /admin/approve/{id}", login(s.ApprovePickup))
	mux.Handle("POST /admin/reject/{id}", login(s.RejectPickup))
	mux.Handle("POST /admin/assign/{id}", login(s.AssignPickup))
	mux.Handle("GET /admin/export", login(s.Export))

	mux.Handle("GET /uploads/{filename}", login(s.Photo))
	mux.Handle("GET /notifications", login(s.NotificationsPage))

	return SessionMiddleware(jwtSecret, db)(mux), nil
}
