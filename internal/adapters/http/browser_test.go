package web_test

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	web "eventtracker/internal/adapters/http"
	"eventtracker/internal/adapters/http/perf"
	"eventtracker/internal/adapters/storage"
	accountStore "eventtracker/internal/adapters/storage/account"
	eventStore "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/domain/account"
	"eventtracker/internal/domain/event"
	"eventtracker/internal/domain/login"
)

const (
	e2eEmail    = "ana@example.com"
	e2ePassword = "segredo123"
)

var e2ePNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type browserApp struct {
	BaseURL string
	Events  eventStore.Store
	Browser playwright.Browser
}

// newBrowserApp starts the full middleware stack on a temp database and a
// headless Chromium. Skipped unless EVENTS_E2E is set.
func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()
	if testing.Short() || os.Getenv("EVENTS_E2E") == "" {
		t.Skip("browser tests need EVENTS_E2E=1 and no -short")
	}

	db, err := storage.Open(t.TempDir() + "/e2e.db")
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.MigrateDB(db); err != nil {
		t.Fatal(err)
	}
	accounts := accountStore.NewSQLiteStore(db)
	events := eventStore.NewSQLiteStore(db)
	if _, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email: e2eEmail, Password: e2ePassword, Role: account.RoleMember,
	}, orchestrators.CreateAccountDeps{AccountStore: accounts}); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(web.NewMux(&web.Stores{AccountStore: accounts, EventStore: events}, perf.NewCollector(100), web.Options{
		CSRFKey:   make([]byte, 32),
		RateLimit: 1000,
		Location:  time.UTC,
	}))

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &browserApp{BaseURL: srv.URL, Events: events, Browser: browser}
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	return page
}

func waitVisible(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("%s not visible: %v", selector, err)
	}
}

func must(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

// TestBrowser_LoginThenCreateEvent walks through the sign-in gate, field
// errors, image preview and a successful creation.
func TestBrowser_LoginThenCreateEvent(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	_, err := page.Goto(app.BaseURL + "/")
	must(t, err, "goto /")
	must(t, page.Locator(`[data-testid="create-button"]`).Click(), "click Entrar")
	must(t, page.WaitForURL(app.BaseURL+"/login"), "redirect to login")

	must(t, page.Locator("button[type=submit]").Click(), "submit empty login")
	waitVisible(t, page, `[data-error="email"]`)

	must(t, page.Locator("#email").Fill(e2eEmail), "fill email")
	must(t, page.Locator("#password").Fill("errada1234"), "fill password")
	must(t, page.Locator("button[type=submit]").Click(), "submit wrong password")
	waitVisible(t, page, `[data-testid="form-error"] >> text=`+login.MsgInvalidCredentials)

	must(t, page.Locator("#password").Fill(e2ePassword), "fill password")
	must(t, page.Locator("button[type=submit]").Click(), "submit login")
	must(t, page.WaitForURL(app.BaseURL+"/"), "back to events")

	must(t, page.Locator(`[data-testid="create-button"]`).Click(), "open form")
	waitVisible(t, page, `[data-testid="draft-modal"]`)

	if enabled, err := page.Locator(`[data-testid="submit-button"]`).IsEnabled(); err != nil || enabled {
		t.Fatalf("submit enabled on an empty draft: %v, %v", enabled, err)
	}

	must(t, page.Locator("#title").Fill("Piquenique no parque"), "fill title")
	must(t, page.Locator("#description").Fill("Traga sua toalha"), "fill description")
	must(t, page.Locator("#location").Fill("Parque da Cidade"), "fill location")
	must(t, page.Locator("#date").Fill(time.Now().Add(-72*time.Hour).UTC().Format(event.DateLayout)), "fill past date")
	_, err = page.Locator("#category").SelectOption(playwright.SelectOptionValues{Values: &[]string{"food"}})
	must(t, err, "select category")
	must(t, page.Locator("#image").SetInputFiles([]playwright.InputFile{{
		Name: "cartaz.png", MimeType: "image/png", Buffer: e2ePNG,
	}}), "pick image")
	waitVisible(t, page, `[data-testid="image-preview"] img`)

	must(t, page.Locator(`[data-testid="submit-button"]`).Click(), "submit past date")
	waitVisible(t, page, `[data-error="date"] >> text=`+event.MsgDateInPast)
	waitVisible(t, page, `[data-testid="image-preview"] img`)

	must(t, page.Locator("#date").Fill(time.Now().Add(72*time.Hour).UTC().Format(event.DateLayout)), "fill date")
	must(t, page.Locator(`[data-testid="submit-button"]`).Click(), "submit draft")
	waitVisible(t, page, `[data-testid="notice"] >> text=Evento criado com sucesso`)
	waitVisible(t, page, `[data-testid="event-card"] >> text=Piquenique no parque`)

	if n, _ := page.Locator(`[data-testid="draft-modal"]`).Count(); n != 0 {
		t.Fatal("modal should be closed after creation")
	}
	stored, err := app.Events.List(context.Background(), eventStore.ListFilter{})
	if err != nil || len(stored) != 1 || stored[0].Category != "food" {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
}

// TestBrowser_CancelDiscardsDraft tests cancelling returns to the list and
// the next open starts clean.
func TestBrowser_CancelDiscardsDraft(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	_, err := page.Goto(app.BaseURL + "/login")
	must(t, err, "goto login")
	must(t, page.Locator("#email").Fill(e2eEmail), "fill email")
	must(t, page.Locator("#password").Fill(e2ePassword), "fill password")
	must(t, page.Locator("button[type=submit]").Click(), "submit login")
	must(t, page.WaitForURL(app.BaseURL+"/"), "back to events")

	must(t, page.Locator(`[data-testid="create-button"]`).Click(), "open form")
	waitVisible(t, page, `[data-testid="draft-modal"]`)
	must(t, page.Locator("#title").Fill("Rascunho"), "fill title")
	must(t, page.Locator(`button[value="cancel"]`).Click(), "cancel")
	must(t, page.WaitForURL(app.BaseURL+"/"), "back to events")

	must(t, page.Locator(`[data-testid="create-button"]`).Click(), "reopen form")
	waitVisible(t, page, `[data-testid="draft-modal"]`)
	value, err := page.Locator("#title").InputValue()
	must(t, err, "read title")
	if value != "" {
		t.Fatalf("title = %q, want empty", value)
	}
}
