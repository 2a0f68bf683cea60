package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mcncl/jsonedit/internal/editor"
)

type contextKey string

const flashKey contextKey = "flash"

const flashCookie = "flash"

// maxFlashBytes keeps the cookie under browser size limits.
const maxFlashBytes = 3000

// setFlash carries notices across a redirect.
func setFlash(w http.ResponseWriter, notices []editor.Notice) {
	if len(notices) == 0 {
		return
	}
	raw, err := json.Marshal(notices)
	for err == nil && len(url.QueryEscape(string(raw))) > maxFlashBytes && len(notices) > 1 {
		notices = notices[1:]
		raw, err = json.Marshal(notices)
	}
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// flash reads and clears the flash cookie and stores its notices in the
// request context.
func flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(flashCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: flashCookie, MaxAge: -1, Path: "/"})

		raw, _ := url.QueryUnescape(cookie.Value)
		var notices []editor.Notice
		if err := json.Unmarshal([]byte(raw), &notices); err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), flashKey, notices)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getFlash(ctx context.Context) []editor.Notice {
	notices, _ := ctx.Value(flashKey).([]editor.Notice)
	return notices
}
