package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"eventtracker/internal/adapters/http/middleware"
	"eventtracker/internal/application/draftform"
	"eventtracker/internal/application/imagedata"
	"eventtracker/internal/application/listutil"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/domain/account"
	"eventtracker/internal/domain/event"
	"eventtracker/internal/domain/login"
)

//go:embed templates static
var assets embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const msgSignupFailed = "Não foi possível criar a conta"

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// imageURL passes inline image data URLs and https URLs through the
// template URL filter. Anything else renders as an empty source.
func imageURL(src string) template.URL {
	if imagedata.IsDataURL(src) && strings.HasPrefix(imagedata.MediaType(src), "image/") {
		return template.URL(src)
	}
	if u, err := url.Parse(src); err == nil && u.Scheme == "https" {
		return template.URL(src)
	}
	return ""
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"currentEmail":   func() string { return sess.Email },
		"isLoggedIn":     func() bool { return loggedIn },
		"isAdmin":        func() bool { return loggedIn && sess.IsAdmin() },
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": renderMarkdown,
		"imageURL":       imageURL,
		"formatDate": func(t time.Time) string {
			return t.In(settings.Location).Format("02/01/2006 15:04")
		},
		"isoDate": func(t time.Time) string { return t.Format(time.RFC3339) },
		"fieldError": func(errs event.ValidationErrors, field string) string {
			return errs[event.Field(field)]
		},
		"loginError": func(errs login.FieldErrors, field string) string {
			return errs[field]
		},
		"pageURL": func(page int) string {
			return listutil.PageURL(r.URL.Path, r.URL.Query(), page)
		},
		"maxDescription": func() int { return event.MaxDescriptionLength },
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if settings.Health != nil {
		if err := settings.Health(r.Context()); err != nil {
			slog.Error("health_check_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow}
}

func createAccountDeps() orchestrators.CreateAccountDeps {
	return orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, Now: timeNow}
}

// startSession creates a session and sets its cookie. A session the request
// already carried is deleted first, so its draft form is dropped with it.
func startSession(w http.ResponseWriter, r *http.Request, accountID, email, role string) error {
	if prev, ok := middleware.GetSessionFromContext(r.Context()); ok {
		sessions.Delete(prev.Token)
	}
	token, err := sessions.Create(accountID, email, role)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token)
	return nil
}

// authPage is the view model of the login and signup pages.
type authPage struct {
	Email     string
	Fields    login.FieldErrors
	FormError string
}

// handleLogin handles GET (form) and POST (sign in) for /login.
// Schema failures become field messages; every other failure becomes the
// generic "Email ou senha inválidos" form message.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if middleware.IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "login.html", authPage{})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		creds := login.Credentials{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}

		var result orchestrators.LoginResult
		outcome := login.Submit(r.Context(), creds, func(ctx context.Context, c login.Credentials) error {
			var err error
			result, err = orchestrators.ExecuteLogin(ctx, orchestrators.LoginInput{Email: c.Email, Password: c.Password}, loginDeps())
			return err
		})
		if !outcome.OK() {
			renderTemplate(w, r, http.StatusUnprocessableEntity, "login.html", authPage{
				Email:     creds.Email,
				Fields:    outcome.Fields,
				FormError: outcome.FormError,
			})
			return
		}

		if err := startSession(w, r, result.AccountID, result.Email, result.Role); err != nil {
			internalError(w, err)
			return
		}
		http.Redirect(w, r, string(draftform.RouteEvents), http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleSignup handles GET (form) and POST (create account) for /signup.
func handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		if middleware.IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "signup.html", authPage{})
		return
	}

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		creds := login.Credentials{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}

		err := login.ValidateSignup(creds, r.FormValue("confirm_password"))
		var acct account.Account
		if err == nil {
			acct, err = orchestrators.ExecuteSignup(r.Context(), creds.Email, creds.Password, createAccountDeps())
		}
		if err != nil {
			msg := msgSignupFailed
			if errors.Is(err, orchestrators.ErrEmailAlreadyExists) {
				msg = login.MsgEmailTaken
			}
			outcome := login.Classify(err, msg)
			renderTemplate(w, r, http.StatusUnprocessableEntity, "signup.html", authPage{
				Email:     creds.Email,
				Fields:    outcome.Fields,
				FormError: outcome.FormError,
			})
			return
		}

		if err := startSession(w, r, acct.ID, acct.Email, acct.Role); err != nil {
			internalError(w, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		sessions.Delete(sess.Token)
		slog.Info("auth_event", "event", "logout", "email", sess.Email)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
