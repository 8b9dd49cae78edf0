package web

import (
	"io/fs"
	"net/http"

	"eventtracker/internal/adapters/http/middleware"
	"eventtracker/internal/domain/account"
)

func registerRoutes(mux *http.ServeMux) {
	static, _ := fs.Sub(assets, "static")
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("/healthz", handleHealth)

	// Pages
	mux.HandleFunc("/", handleEventsPage)
	mux.HandleFunc("/events/new", handleOpenDraft)
	mux.Handle("/events/draft", middleware.RequireAuth(http.HandlerFunc(handleDraftForm)))
	mux.HandleFunc("/events.ics", handleCalendarFeed)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/signup", handleSignup)
	mux.HandleFunc("/logout", handleLogout)

	// JSON API
	mux.HandleFunc("/api/events", handleAPIEvents)
	mux.HandleFunc("/api/events/draft/open", handleAPIDraftOpen)
	mux.Handle("/api/events/draft", middleware.RequireAuth(http.HandlerFunc(handleAPIDraft)))
	mux.Handle("/api/events/draft/image", middleware.RequireAuth(http.HandlerFunc(handleAPIDraftImage)))
	mux.Handle("/api/events/draft/validate", middleware.RequireAuth(http.HandlerFunc(handleAPIDraftValidate)))
	mux.Handle("/api/events/draft/submit", middleware.RequireAuth(http.HandlerFunc(handleAPIDraftSubmit)))
	mux.Handle("/api/events/draft/reset", middleware.RequireAuth(http.HandlerFunc(handleAPIDraftReset)))
	mux.Handle("/api/admin/perf", middleware.RequireRole(account.RoleAdmin)(http.HandlerFunc(handleAdminPerf)))
}
