package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
	"github.com/erazemk/ewaste/internal/uploads"
	webembed "github.com/erazemk/ewaste/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleName": func(role model.Role) string {
			switch role {
			case model.RoleHousehold:
				return "Household"
			case model.RoleStaff:
				return "Staff"
			case model.RoleAdmin:
				return "Administrator"
			default:
				return string(role)
			}
		},
		"statusName": statusName,
		"dashboard":  dashboardPath,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
	}
}

func statusName(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "Pending"
	case model.StatusApproved:
		return "Approved"
	case model.StatusScheduled:
		return "Scheduled"
	case model.StatusInProgress:
		return "In progress"
	case model.StatusCompleted:
		return "Completed"
	case model.StatusCancelled:
		return "Cancelled"
	case model.StatusFailed:
		return "Failed"
	case model.StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"home.html",
		"login.html",
		"register.html",
		"household_dashboard.html",
		"request_pickup.html",
		"pickup_detail.html",
		"staff_dashboard.html",
		"admin_dashboard.html",
		"notifications.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title  string
	User   *model.User
	Flash  *Flash
	Unread int
	Error  string
	Errors map[string]string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Engine    *lifecycle.Engine
	Uploads   *uploads.Store
	Templates *Templates
	JWTSecret string
	MaxUpload int64
}

// page builds the common page data for the current request and consumes the
// pending flash message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	data := PageData{
		Title: title,
		User:  CurrentUser(r.Context()),
		Flash: popFlash(w, r),
	}
	if data.User != nil {
		n, err := store.CountUnreadNotifications(r.Context(), s.DB, data.User.ID)
		if err != nil {
			slog.Error("failed to count unread notifications", "user", data.User.Username, "error", err)
		}
		data.Unread = n
	}
	return data
}

// dashboardPath is where a user of the given role lands after login.
func dashboardPath(role model.Role) string {
	switch role {
	case model.RoleHousehold:
		return "/household/dashboard"
	case model.RoleStaff:
		return "/staff/dashboard"
	case model.RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}
