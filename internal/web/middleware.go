package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/auth"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

type webContextKey string

const webUserKey webContextKey = "webuser"
const webClaimsKey webContextKey = "webclaims"

const tokenCookie = "token"

// SessionMiddleware identifies the user from the token cookie, if any. Invalid,
// revoked or orphaned tokens clear the cookie and the request continues
// anonymously.
func SessionMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(tokenCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims := identify(r.Context(), secret, db, cookie.Value)
			if user == nil {
				clearAuthCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), webUserKey, user)
			ctx = context.WithValue(ctx, webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identify(ctx context.Context, secret string, db *sql.DB, token string) (*model.User, *auth.Claims) {
	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		return nil, nil
	}

	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(ctx, db, claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			return nil, nil
		}
		if revoked {
			return nil, nil
		}
	}

	// The role is re-read from the database rather than trusted from the token.
	user, err := store.GetUser(ctx, db, claims.UserID)
	if err != nil {
		slog.Error("failed to load session user", "user_id", claims.UserID, "error", err)
		return nil, nil
	}
	return user, claims
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			setFlash(w, flashInfo, "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// CurrentUser returns the authenticated user of the request, or nil.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(webUserKey).(*model.User)
	return user
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
