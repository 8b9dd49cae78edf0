// Package draftform holds the event creation form: the in-progress draft,
// its validation errors, the image selection lifecycle and the hand-off to
// the creation callback.
package draftform

import (
	"context"
	"io"
	"time"

	"eventtracker/internal/application/imagedata"
	"eventtracker/internal/domain/event"
)

// Route names a navigation target the form may request.
type Route string

const (
	RouteEvents Route = "/"
	RouteLogin  Route = "/login"
	RouteSignup Route = "/signup"
)

// AuthStatus reports whether the caller behind ctx is signed in.
type AuthStatus interface {
	IsAuthenticated(ctx context.Context) bool
}

// AuthStatusFunc adapts a function to AuthStatus.
type AuthStatusFunc func(ctx context.Context) bool

func (f AuthStatusFunc) IsAuthenticated(ctx context.Context) bool { return f(ctx) }

// Navigator receives navigation requests. The form never navigates itself.
type Navigator interface {
	Navigate(ctx context.Context, route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route Route)

func (f NavigatorFunc) Navigate(ctx context.Context, route Route) { f(ctx, route) }

// CreateFunc is the external creation callback. It receives a validated
// draft, which never carries an identifier.
type CreateFunc func(ctx context.Context, d event.Draft) error

// ImageReader converts a picked file into its embeddable representation.
type ImageReader func(ctx context.Context, r io.Reader) (string, error)

// Deps holds the collaborators of a Form.
type Deps struct {
	Auth       AuthStatus
	Navigator  Navigator
	Create     CreateFunc
	Categories event.Categories
	Location   *time.Location
	Now        func() time.Time
	ReadImage  ImageReader
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.ReadImage == nil {
		d.ReadImage = imagedata.ReadDataURL
	}
	if d.Categories.Len() == 0 {
		d.Categories = event.DefaultCategories()
	}
	if d.Navigator == nil {
		d.Navigator = NavigatorFunc(func(context.Context, Route) {})
	}
	if d.Auth == nil {
		d.Auth = AuthStatusFunc(func(context.Context) bool { return false })
	}
	return d
}
