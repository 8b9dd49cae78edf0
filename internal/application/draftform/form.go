package draftform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"eventtracker/internal/domain/event"
)

// MsgImageReadFailed is the notice shown when a picked file cannot be read.
const MsgImageReadFailed = "Não foi possível ler a imagem"

var (
	ErrFormClosed          = errors.New("event form is not open")
	ErrNotAuthenticated    = errors.New("sign in to create events")
	ErrCreationInProgress  = errors.New("an event is already being created")
	ErrInvalidDraft        = errors.New("event draft has validation errors")
	ErrSupersededRead      = errors.New("image read superseded by a newer selection")
	ErrImageNotUpdateField = errors.New("image is set by selecting a file")
)

// SelectedImage is the file the user picked, kept only for its label and preview.
type SelectedImage struct {
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

// State is a consistent snapshot of the form.
type State struct {
	Open              bool                   `json:"open"`
	Draft             event.Draft            `json:"draft"`
	Errors            event.ValidationErrors `json:"errors"`
	Image             SelectedImage          `json:"image"`
	PendingImage      string                 `json:"pendingImage,omitempty"`
	Creating          bool                   `json:"creating"`
	CanSubmit         bool                   `json:"canSubmit"`
	DescriptionLength int                    `json:"descriptionLength"`
	Notice            string                 `json:"notice,omitempty"`
}

// Form is the event creation form for one user. It is safe for concurrent use.
// INVARIANT: Draft.Image and Image.Preview change together
// INVARIANT: only the read carrying the latest token may change image state
type Form struct {
	deps Deps

	mu         sync.Mutex
	open       bool
	draft      event.Draft
	errors     event.ValidationErrors
	image      SelectedImage
	pending    string
	token      uint64
	cancelRead context.CancelFunc
	creating   bool
	inFlight   bool
	notice     string
}

// New returns a closed form holding the default draft.
func New(deps Deps) *Form {
	f := &Form{deps: deps.withDefaults()}
	f.resetLocked()
	return f
}

// Open shows the creation surface with a fresh draft.
// PRE: none
// POST: when authenticated the form is open; otherwise the login route was
// requested and ErrNotAuthenticated is returned
func (f *Form) Open(ctx context.Context) error {
	if !f.deps.Auth.IsAuthenticated(ctx) {
		slog.Info("draft_event", "event", "open_blocked", "reason", "unauthenticated")
		f.deps.Navigator.Navigate(ctx, RouteLogin)
		return ErrNotAuthenticated
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		return nil
	}
	f.resetLocked()
	f.open = true
	return nil
}

// Close hides the creation surface and discards the draft.
// POST: form is closed and in the default state; pending reads are cancelled
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.open = false
}

// IsOpen reports whether the creation surface is shown.
func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// UpdateField replaces exactly one draft field. No validation runs and
// existing error messages stay until the next validation pass.
// PRE: form is open
func (f *Form) UpdateField(field event.Field, value string) error {
	if field == event.FieldImage {
		return ErrImageNotUpdateField
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrFormClosed
	}
	return f.draft.Set(field, value)
}

// ClearImage drops the selected image and cancels any pending read.
func (f *Form) ClearImage() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrFormClosed
	}
	f.supersedeLocked()
	f.image = SelectedImage{}
	f.draft.Image = ""
	return nil
}

// ImageRead tracks one asynchronous image read.
type ImageRead struct {
	Token uint64
	done  chan struct{}
	err   error
}

// Done is closed once the read has finished or was superseded.
func (r *ImageRead) Done() <-chan struct{} { return r.done }

// Wait blocks until the read is settled and returns its outcome. A read
// that lost to a newer selection returns ErrSupersededRead.
func (r *ImageRead) Wait() error {
	<-r.done
	return r.err
}

// SelectImage starts reading r in the background. A newer selection, Reset
// or Close cancels this read, and its completion is then ignored.
// PRE: form is open
// POST: on success the draft image and the preview hold the same data URL;
// on failure both keep their prior value and a notice is set
func (f *Form) SelectImage(ctx context.Context, name string, r io.Reader) (*ImageRead, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return nil, ErrFormClosed
	}
	f.supersedeLocked()
	readCtx, cancel := context.WithCancel(ctx)
	f.cancelRead = cancel
	f.pending = name
	read := &ImageRead{Token: f.token, done: make(chan struct{})}
	f.mu.Unlock()

	go func() {
		defer close(read.done)
		defer cancel()
		url, err := f.deps.ReadImage(readCtx, r)
		read.err = f.completeRead(read.Token, name, url, err)
	}()
	return read, nil
}

func (f *Form) completeRead(token uint64, name, url string, readErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.token {
		return ErrSupersededRead
	}
	f.cancelRead = nil
	f.pending = ""
	if readErr != nil {
		slog.Warn("draft_event", "event", "image_read_failed", "file", name, "error", readErr)
		f.notice = MsgImageReadFailed
		return readErr
	}
	f.image = SelectedImage{Name: name, Preview: url}
	f.draft.Image = url
	if f.notice == MsgImageReadFailed {
		f.notice = ""
	}
	return nil
}

// Validate runs the draft through the rule table and replaces the error set.
// POST: the stored error set equals the returned one
// INVARIANT: the draft is not mutated
func (f *Form) Validate() event.ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked().Clone()
}

func (f *Form) validateLocked() event.ValidationErrors {
	f.errors = event.ValidateDraft(f.draft, event.RuleContext{
		Now:        f.deps.Now(),
		Location:   f.deps.Location,
		Categories: f.deps.Categories,
	})
	return f.errors
}

// Submit validates the draft and, only when it is valid, hands a copy to
// the creation callback after resetting and closing the form.
// PRE: form is open and no creation is in progress
// POST: on ErrInvalidDraft the draft is unchanged and only the errors were
// replaced; otherwise the callback ran exactly once and its error, if any,
// is returned wrapped
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return ErrFormClosed
	}
	if f.creating || f.inFlight {
		f.mu.Unlock()
		return ErrCreationInProgress
	}
	if errs := f.validateLocked(); !errs.OK() {
		f.mu.Unlock()
		slog.Debug("draft_event", "event", "submit_rejected", "fields", len(errs))
		return ErrInvalidDraft
	}
	draft := f.draft
	f.resetLocked()
	f.open = false
	f.inFlight = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	if f.deps.Create == nil {
		return nil
	}
	if err := f.deps.Create(ctx, draft); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// CanSubmit is the quick check that enables the submit affordance.
// It is false while a creation is in progress.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *Form) canSubmitLocked() bool {
	return !f.creating && !f.inFlight && event.QuickCheck(f.draft)
}

// Reset returns draft, image, preview and errors to their defaults together.
// The open state is kept.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.supersedeLocked()
	f.draft = event.NewDraft(f.deps.Now(), f.deps.Location)
	f.errors = event.ValidationErrors{}
	f.image = SelectedImage{}
	f.notice = ""
}

// supersedeLocked invalidates the outstanding read, if any.
func (f *Form) supersedeLocked() {
	f.token++
	f.pending = ""
	if f.cancelRead != nil {
		f.cancelRead()
		f.cancelRead = nil
	}
}

// SetCreating mirrors the external "creation in progress" flag.
func (f *Form) SetCreating(creating bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creating = creating
}

// SetNotice sets a non-blocking message for the next render.
func (f *Form) SetNotice(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notice = msg
}

// TakeNotice returns the pending notice and clears it.
func (f *Form) TakeNotice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.notice
	f.notice = ""
	return msg
}

// RequestSignup asks the navigator for the signup route.
func (f *Form) RequestSignup(ctx context.Context) {
	f.deps.Navigator.Navigate(ctx, RouteSignup)
}

// Categories returns the enumeration the form validates against.
func (f *Form) Categories() event.Categories {
	return f.deps.Categories
}

// Snapshot returns a consistent copy of the whole form state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Open:              f.open,
		Draft:             f.draft,
		Errors:            f.errors.Clone(),
		Image:             f.image,
		PendingImage:      f.pending,
		Creating:          f.creating || f.inFlight,
		CanSubmit:         f.canSubmitLocked(),
		DescriptionLength: f.draft.DescriptionLength(),
		Notice:            f.notice,
	}
}
