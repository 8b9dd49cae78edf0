package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"eventtracker/internal/adapters/http/middleware"
	"eventtracker/internal/application/draftform"
	"eventtracker/internal/application/listutil"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/application/projections"
	"eventtracker/internal/domain/event"
)

const (
	msgEventCreated = "Evento criado com sucesso"
	msgCreateFailed = "Não foi possível criar o evento. Tente novamente."
)

// createTimeout bounds one creation, including the image upload.
const createTimeout = 30 * time.Second

// createFromDraft is the draft forms' creation callback. It keeps the
// form's creating flag raised while the event is persisted.
func createFromDraft(ctx context.Context, d event.Draft) error {
	sess, ok := middleware.GetSessionFromContext(ctx)
	if !ok {
		return draftform.ErrNotAuthenticated
	}
	form := drafts.Get(sess.Token)
	form.SetCreating(true)
	defer form.SetCreating(false)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), createTimeout)
	defer cancel()
	_, err := orchestrators.ExecuteCreateEvent(ctx, orchestrators.CreateEventInput{
		Draft:        d,
		CreatedBy:    sess.AccountID,
		CreatorEmail: sess.Email,
	}, orchestrators.CreateEventDeps{
		EventStore: stores.EventStore,
		ImageHost:  settings.ImageHost,
		Sender:     settings.Sender,
		NotifyTo:   settings.NotifyTo,
		Categories: settings.Categories,
		Location:   settings.Location,
		Now:        timeNow,
	})
	if err != nil {
		slog.Error("event_event", "event", "create_failed", "created_by", sess.AccountID, "error", err)
		form.SetNotice(msgCreateFailed)
		return err
	}
	form.SetNotice(msgEventCreated)
	return nil
}

// formFor returns the caller's form. Requests without a session get a
// throwaway form so the authentication gate can still run.
func formFor(r *http.Request) *draftform.Form {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return drafts.Get(sess.Token)
	}
	return drafts.Transient()
}

func listEventsDeps() projections.ListEventsDeps {
	return projections.ListEventsDeps{
		EventStore: stores.EventStore,
		Categories: settings.Categories,
		Now:        timeNow,
	}
}

// eventsPage is the view model of the events page.
type eventsPage struct {
	Result         projections.ListEventsResult
	Categories     []event.CategoryEntry
	Form           draftform.State
	Notice         string
	PerPageOptions []int
	HasFilters     bool
}

// handleEventsPage handles GET /: filters, the event list and, when open,
// the creation modal.
func handleEventsPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	query := projections.ParseListEventsQuery(r.URL.Query(), settings.Categories)
	result, err := projections.QueryListEvents(ctx, query, listEventsDeps())
	if err != nil {
		internalError(w, err)
		return
	}

	page := eventsPage{
		Result:         result,
		Categories:     settings.Categories.Entries(),
		PerPageOptions: listutil.PerPageOptions,
		HasFilters:     query.Category != "" || query.Search != "" || query.When != projections.WhenUpcoming,
	}
	if sess, ok := middleware.GetSessionFromContext(ctx); ok {
		form := drafts.Get(sess.Token)
		page.Notice = form.TakeNotice()
		page.Form = form.Snapshot()
	}
	renderTemplate(w, r, http.StatusOK, "events.html", page)
}

// handleOpenDraft handles GET /events/new. Signed-out visitors are sent to
// the route the form requests, which is the login page.
func handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, nav := withNavigation(r.Context())
	form := formFor(r)
	if err := form.Open(ctx); err != nil {
		if errors.Is(err, draftform.ErrNotAuthenticated) && r.URL.Query().Get("account") == "new" {
			form.RequestSignup(ctx)
		}
		if errors.Is(err, draftform.ErrNotAuthenticated) && nav.route != "" {
			http.Redirect(w, r, string(nav.route), http.StatusSeeOther)
			return
		}
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDraftForm handles POST /events/draft from the modal. Posted
// fields are applied first, then the action runs:
// save keeps editing, submit validates and creates, cancel closes.
func handleDraftForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	form := formFor(r)
	if !form.IsOpen() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, settings.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			form.SetNotice(draftform.MsgImageReadFailed)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	action := r.FormValue("action")
	if action == "cancel" {
		form.Close()
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	for _, field := range event.Fields {
		if field == event.FieldImage {
			continue
		}
		if values, ok := r.Form[string(field)]; ok && len(values) > 0 {
			if err := form.UpdateField(field, values[0]); err != nil && !errors.Is(err, draftform.ErrFormClosed) {
				internalError(w, err)
				return
			}
		}
	}

	if r.FormValue("remove_image") != "" {
		form.ClearImage()
	} else if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if header.Size > settings.MaxImageBytes {
			form.SetNotice(draftform.MsgImageReadFailed)
		} else if header.Size > 0 {
			read, err := form.SelectImage(ctx, header.Filename, file)
			if err == nil {
				read.Wait()
			}
		}
	}

	switch action {
	case "submit":
		if err := form.Submit(ctx); err != nil && !errors.Is(err, draftform.ErrInvalidDraft) {
			slog.Warn("draft_event", "event", "submit_failed", "error", err)
		}
	case "reset":
		form.Reset()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleCalendarFeed handles GET /events.ics
func handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := projections.QueryCalendarFeed(r.Context(), projections.CalendarFeedDeps{
		EventStore: stores.EventStore,
		Categories: settings.Categories,
		Now:        timeNow,
		Name:       "Eventos",
	})
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.Write([]byte(body))
}
