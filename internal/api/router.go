package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/ewaste/internal/lifecycle"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	pickupsHandler := &PickupsHandler{DB: db, Engine: lifecycle.New(db)}
	notificationsHandler := &NotificationsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes. Role checks happen in the lifecycle engine.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/pickups", authMW(http.HandlerFunc(pickupsHandler.List)))
	mux.Handle("POST /api/pickups", authMW(http.HandlerFunc(pickupsHandler.Create)))
	mux.Handle("GET /api/pickups/{id}", authMW(http.HandlerFunc(pickupsHandler.Get)))
	mux.Handle("POST /api/pickups/{id}/cancel", authMW(http.HandlerFunc(pickupsHandler.Cancel)))
	mux.Handle("POST /api/pickups/{id}/status", authMW(http.HandlerFunc(pickupsHandler.UpdateStatus)))
	mux.Handle("POST /api/pickups/{id}/approve", authMW(http.HandlerFunc(pickupsHandler.Approve)))
	mux.Handle("POST /api/pickups/{id}/reject", authMW(http.HandlerFunc(pickupsHandler.Reject)))
	mux.Handle("POST /api/pickups/{id}/assign", authMW(http.HandlerFunc(pickupsHandler.Assign)))
	mux.Handle("GET /api/export", authMW(http.HandlerFunc(pickupsHandler.Export)))

	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))

	return mux
}
