package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"eventtracker/internal/adapters/http/middleware"
	"eventtracker/internal/adapters/http/perf"
	"eventtracker/internal/adapters/storage"
	accountStore "eventtracker/internal/adapters/storage/account"
	eventStore "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/domain/account"
)

// testNow is the frozen clock of every handler test.
var testNow = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

// futureDate is a valid draft date relative to testNow.
const futureDate = "2026-06-20T19:00"

// pngBytes is the smallest header mimetype recognises as image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testApp struct {
	handler   http.Handler
	db        *sql.DB
	stores    *Stores
	collector *perf.Collector
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatal(err)
	}

	prevNow := timeNow
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = prevNow })

	s := &Stores{
		AccountStore: accountStore.NewSQLiteStore(db),
		EventStore:   eventStore.NewSQLiteStore(db),
	}
	collector := perf.NewCollector(100)
	mux := newRouter(s, collector, Options{
		Location:      time.UTC,
		MaxImageBytes: 1 << 20,
		Health:        db.PingContext,
	})
	return &testApp{
		handler:   middleware.Auth(sessions)(mux),
		db:        db,
		stores:    s,
		collector: collector,
	}
}

// signIn creates an account with role and returns its session cookie.
func (a *testApp) signIn(t *testing.T, email, role string) *http.Cookie {
	t.Helper()
	acct, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email: email, Password: "segredo123", Role: role,
	}, orchestrators.CreateAccountDeps{AccountStore: a.stores.AccountStore})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	token, err := sessions.Create(acct.ID, acct.Email, acct.Role)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func (a *testApp) member(t *testing.T) *http.Cookie {
	return a.signIn(t, "ana@example.com", account.RoleMember)
}

func (a *testApp) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Accept", "text/html")
	return a.do(req, cookie)
}

func (a *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, cookie)
}

func (a *testApp) sendJSON(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return a.do(req, cookie)
}

func (a *testApp) uploadImage(name string, data []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", name)
	part.Write(data)
	mw.Close()
	req := httptest.NewRequest("POST", "/api/events/draft/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, cookie)
}

func decodeDraft(t *testing.T, rr *httptest.ResponseRecorder) draftResponse {
	t.Helper()
	var resp draftResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return resp
}

func (a *testApp) countEvents(t *testing.T) int {
	t.Helper()
	n, err := a.stores.EventStore.Count(context.Background(), eventStore.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func fillValidDraft(t *testing.T, a *testApp, cookie *http.Cookie) {
	t.Helper()
	fields := map[string]string{
		"title":       "Show na praça",
		"description": "Música ao vivo **grátis**",
		"location":    "Praça Central",
		"date":        futureDate,
		"category":    "music",
	}
	for field, value := range fields {
		rr := a.sendJSON("PATCH", "/api/events/draft", fieldUpdate{Field: field, Value: value}, cookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("PATCH %s = %d %s", field, rr.Code, rr.Body.String())
		}
	}
}
