package web

import (
	"context"
	"log/slog"

	"eventtracker/internal/application/draftform"
)

type navigationKey struct{}

// navigation records the route a form asked for during one request.
type navigation struct {
	route draftform.Route
}

func withNavigation(ctx context.Context) (context.Context, *navigation) {
	nav := &navigation{}
	return context.WithValue(ctx, navigationKey{}, nav), nav
}

// navigate is the draft forms' navigation sink. The handler that owns the
// request turns the recorded route into a redirect or a JSON hint.
func navigate(ctx context.Context, route draftform.Route) {
	slog.Debug("draft_event", "event", "navigate", "route", string(route))
	if nav, ok := ctx.Value(navigationKey{}).(*navigation); ok {
		nav.route = route
	}
}
