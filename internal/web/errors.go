package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/ewaste/internal/fault"
)

// deny sends the user home with the generic denial message. It never says
// whether the resource exists.
func deny(w http.ResponseWriter, r *http.Request) {
	setFlash(w, flashDanger, fault.Message(fault.ErrUnauthorized))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail converts a lifecycle error into a response. Recoverable faults are
// flashed and redirect to back.
func fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	var verr *fault.ValidationError
	switch {
	case errors.Is(err, fault.ErrUnauthorized):
		deny(w, r)
	case errors.Is(err, fault.ErrNotFound):
		http.Error(w, fault.Message(err), http.StatusNotFound)
	case errors.Is(err, fault.ErrInvalidTransition):
		setFlash(w, flashWarning, fault.Message(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
	case errors.Is(err, fault.ErrInvalidAssignment),
		errors.Is(err, fault.ErrConflict),
		errors.As(err, &verr):
		setFlash(w, flashDanger, fault.Message(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, fault.Message(err), http.StatusInternalServerError)
	}
}

// pathID parses the {id} path value. Malformed ids are treated like missing
// ones.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
