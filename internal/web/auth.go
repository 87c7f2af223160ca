package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/account"
	"github.com/erazemk/ewaste/internal/auth"
	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "home.html", s.page(w, r, "E-Waste Pickup"))
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", s.page(w, r, "Login"))
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	identifier := r.FormValue("identifier")
	user, err := account.Authenticate(r.Context(), s.DB, identifier, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, fault.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err)
		} else {
			slog.Warn("login failed", "identifier", identifier, "remote", r.RemoteAddr)
		}
		data := s.page(w, r, "Login")
		data.Error = fault.Message(err)
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		slog.Error("failed to generate token", "user", user.Username, "error", err)
		data := s.page(w, r, "Login")
		data.Error = fault.Message(err)
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", data)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	setFlash(w, flashSuccess, "Login successful")
	http.Redirect(w, r, dashboardPath(user.Role), http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked so a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "user", claims.Username, "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Username)
		}
	}

	clearAuthCookie(w)
	setFlash(w, flashInfo, "Logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type registerPage struct {
	PageData
	Role   model.Role
	Action string
	Form   account.RegisterInput
}

// RegisterHouseholdPage handles GET /register/household.
func (s *Server) RegisterHouseholdPage(w http.ResponseWriter, r *http.Request) {
	s.registerPage(w, r, model.RoleHousehold)
}

// RegisterHouseholdSubmit handles POST /register/household.
func (s *Server) RegisterHouseholdSubmit(w http.ResponseWriter, r *http.Request) {
	s.registerSubmit(w, r, model.RoleHousehold)
}

// RegisterStaffPage handles GET /register/staff.
func (s *Server) RegisterStaffPage(w http.ResponseWriter, r *http.Request) {
	s.registerPage(w, r, model.RoleStaff)
}

// RegisterStaffSubmit handles POST /register/staff.
func (s *Server) RegisterStaffSubmit(w http.ResponseWriter, r *http.Request) {
	s.registerSubmit(w, r, model.RoleStaff)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request, role model.Role) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "register.html", &registerPage{
		PageData: s.page(w, r, registerTitle(role)),
		Role:     role,
		Action:   "/register/" + string(role),
	})
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request, role model.Role) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	in := account.RegisterInput{
		Username:        r.FormValue("username"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Name:            r.FormValue("name"),
		Address:         r.FormValue("address"),
		Phone:           r.FormValue("phone"),
	}

	if _, err := account.Register(r.Context(), s.DB, in, role); err != nil {
		data := &registerPage{
			PageData: s.page(w, r, registerTitle(role)),
			Role:     role,
			Action:   "/register/" + string(role),
			Form:     in,
		}
		data.Form.Password, data.Form.ConfirmPassword = "", ""

		status := http.StatusBadRequest
		var verr *fault.ValidationError
		switch {
		case errors.As(err, &verr):
			data.Errors = verr.Fields
		case errors.Is(err, fault.ErrConflict):
			status = http.StatusConflict
			data.Error = fault.Message(err)
		default:
			slog.Error("registration failed", "username", in.Username, "error", err)
			status = http.StatusInternalServerError
			data.Error = fault.Message(err)
		}
		s.Templates.RenderStatus(w, status, "register.html", data)
		return
	}

	if role == model.RoleStaff {
		setFlash(w, flashSuccess, "Staff registration successful. You can login now.")
	} else {
		setFlash(w, flashSuccess, "Registration successful. Please login.")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func registerTitle(role model.Role) string {
	if role == model.RoleStaff {
		return "Staff registration"
	}
	return "Household registration"
}
