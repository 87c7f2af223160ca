package web

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "flash"

// Flash kinds, used as CSS classes.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    kind + ":" + url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	kind, raw, ok := strings.Cut(cookie.Value, ":")
	if !ok {
		return nil
	}
	switch kind {
	case flashSuccess, flashInfo, flashWarning, flashDanger:
	default:
		return nil
	}
	message, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
