package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventtracker/internal/application/draftform"
	"eventtracker/internal/application/projections"
	"eventtracker/internal/domain/event"
)

// draftResponse is the JSON envelope of every draft endpoint.
type draftResponse struct {
	State      draftform.State        `json:"state"`
	Errors     event.ValidationErrors `json:"errors,omitempty"`
	Categories []event.CategoryEntry  `json:"categories,omitempty"`
	Navigate   string                 `json:"navigate,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func writeDraft(w http.ResponseWriter, status int, form *draftform.Form, errMsg string) {
	writeJSON(w, status, draftResponse{State: form.Snapshot(), Error: errMsg})
}

// draftErrorStatus maps form errors to HTTP statuses.
func draftErrorStatus(err error) int {
	switch {
	case errors.Is(err, event.ErrUnknownField), errors.Is(err, draftform.ErrImageNotUpdateField):
		return http.StatusBadRequest
	case errors.Is(err, draftform.ErrFormClosed), errors.Is(err, draftform.ErrCreationInProgress),
		errors.Is(err, draftform.ErrSupersededRead):
		return http.StatusConflict
	case errors.Is(err, draftform.ErrInvalidDraft):
		return http.StatusUnprocessableEntity
	case errors.Is(err, draftform.ErrNotAuthenticated):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// handleAPIEvents handles GET /api/events
func handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := projections.ParseListEventsQuery(r.URL.Query(), settings.Categories)
	result, err := projections.QueryListEvents(r.Context(), query, listEventsDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAPIDraftOpen handles POST /api/events/draft/open.
// Signed-out callers get 401 with the route the form asked for.
func handleAPIDraftOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, nav := withNavigation(r.Context())
	form := formFor(r)
	if err := form.Open(ctx); err != nil {
		writeJSON(w, draftErrorStatus(err), draftResponse{
			State:    form.Snapshot(),
			Navigate: string(nav.route),
			Error:    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{
		State:      form.Snapshot(),
		Categories: form.Categories().Entries(),
	})
}

// fieldUpdate is the body of PATCH /api/events/draft.
type fieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleAPIDraft handles GET (snapshot), PATCH (update one field) and
// DELETE (close) for /api/events/draft.
func handleAPIDraft(w http.ResponseWriter, r *http.Request) {
	form := formFor(r)

	switch r.Method {
	case "GET":
		writeJSON(w, http.StatusOK, draftResponse{
			State:      form.Snapshot(),
			Categories: form.Categories().Entries(),
		})
	case "PATCH":
		var body fieldUpdate
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		field, err := event.ParseField(body.Field)
		if err == nil {
			err = form.UpdateField(field, body.Value)
		}
		if err != nil {
			writeDraft(w, draftErrorStatus(err), form, err.Error())
			return
		}
		writeDraft(w, http.StatusOK, form, "")
	case "DELETE":
		form.Close()
		writeDraft(w, http.StatusOK, form, "")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAPIDraftImage handles POST /api/events/draft/image with a
// multipart "image" file. The response waits for the read; a request whose
// read lost to a newer selection answers 409.
func handleAPIDraftImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := formFor(r)
	r.Body = http.MaxBytesReader(w, r.Body, settings.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, "request too large or malformed", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	read, err := form.SelectImage(r.Context(), header.Filename, file)
	if err != nil {
		writeDraft(w, draftErrorStatus(err), form, err.Error())
		return
	}
	if err := read.Wait(); err != nil {
		status := draftErrorStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
			err = errors.New(draftform.MsgImageReadFailed)
		}
		writeDraft(w, status, form, err.Error())
		return
	}
	writeDraft(w, http.StatusOK, form, "")
}

// handleAPIDraftValidate handles POST /api/events/draft/validate
func handleAPIDraftValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := formFor(r)
	errs := form.Validate()
	writeJSON(w, http.StatusOK, draftResponse{State: form.Snapshot(), Errors: errs})
}

// handleAPIDraftSubmit handles POST /api/events/draft/submit.
// 201 on creation, 422 with field errors, 409 while busy or closed, 502
// when the creation callback failed after the form was reset.
func handleAPIDraftSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := formFor(r)
	err := form.Submit(r.Context())
	switch {
	case err == nil:
		writeDraft(w, http.StatusCreated, form, "")
	case errors.Is(err, draftform.ErrInvalidDraft):
		state := form.Snapshot()
		writeJSON(w, http.StatusUnprocessableEntity, draftResponse{State: state, Errors: state.Errors, Error: err.Error()})
	case draftErrorStatus(err) != http.StatusInternalServerError:
		writeDraft(w, draftErrorStatus(err), form, err.Error())
	default:
		writeDraft(w, http.StatusBadGateway, form, msgCreateFailed)
	}
}

// handleAPIDraftReset handles POST /api/events/draft/reset
func handleAPIDraftReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := formFor(r)
	form.Reset()
	writeDraft(w, http.StatusOK, form, "")
}

// handleAdminPerf handles GET /api/admin/perf?minutes=N&top=N
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		http.Error(w, "timing is disabled", http.StatusNotFound)
		return
	}
	minutes := queryInt(r, "minutes", 60)
	top := queryInt(r, "top", 10)
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Report(since, top))
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
