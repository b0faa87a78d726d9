package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/http/handlers"
	"colonnine/backend/services/console/internal/http/middleware"
	"colonnine/backend/services/console/internal/metrics"
	"colonnine/backend/services/console/internal/syncer"
	"colonnine/backend/services/console/internal/view"
	"colonnine/backend/services/console/internal/workspace"
	"colonnine/backend/services/console/internal/ws"
)

type frame struct {
	Type string `json:"type"`
	View struct {
		Panels        view.Panels  `json:"panels"`
		Banner        *view.Banner `json:"banner"`
		Notifications []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"notifications"`
	} `json:"view"`
	HTML string `json:"html"`
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/colonnine", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id_colonnina":1,"indirizzo":"Via Roma 1","latitudine":45.46,"longitudine":9.19,"potenza_kw":22,"classificazione":"medio"}]`))
	})
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Credenziali non valide"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(`{"user":{"id":1,"email":"admin@example.com","name":"Ada","user_type":"admin"}}`))
	})
	mux.HandleFunc("/api/check-auth", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":false}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newConsole(t *testing.T) *httptest.Server {
	t.Helper()
	backend := fakeBackend(t)
	logger := zap.NewNop()

	page, err := view.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	manager := ws.NewManager()
	registry, err := workspace.NewRegistry(workspace.Options{
		BackendURL: backend.URL,
		OnEvict:    manager.CloseWorkspace,
		Build: func(id string, jar http.CookieJar) *syncer.Controller {
			client := clients.NewBackendClient(backend.URL, clients.NewDefaultHTTPClient(time.Second, jar), nil)
			return syncer.NewController(syncer.Deps{
				Backend:   client,
				Presenter: ws.NewPresenter(manager, page, id, logger),
			})
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(registry.Close)

	router := NewRouter(RouterDeps{
		PageHandlers:   handlers.NewPageHandlers(page, ws.NewServer(manager, time.Second, time.Minute, logger), logger),
		ActionHandlers: handlers.NewActionHandlers(page, registry, logger),
		HealthHandler:  handlers.NewHealthHandler(registry),
		Workspace: middleware.WorkspaceMiddleware(middleware.WorkspaceOptions{
			Tokens:   workspace.NewTokenService("test-secret", time.Hour),
			Registry: registry,
			Logger:   logger,
		}),
		AuthLimit: middleware.IPRateLimit(middleware.NewRateLimiter(100, 100)),
	})
	srv := httptest.NewServer(middleware.Chain(router, middleware.LoggingMiddleware(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func postAction(t *testing.T, client *http.Client, base, kind, body string) (int, frame) {
	t.Helper()
	resp, err := client.Post(base+"/actions/"+kind, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", kind, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var f frame
	_ = json.Unmarshal(raw, &f)
	return resp.StatusCode, f
}

func TestPageServesDocument(t *testing.T) {
	srv := newConsole(t)
	client := newBrowser(t)

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("status=%d type=%s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.Contains(body, []byte(`id="view-state"`)) || !bytes.Contains(body, []byte("Via Roma 1")) {
		t.Fatalf("page misses view state or stations")
	}
	var found bool
	for _, c := range resp.Cookies() {
		found = found || c.Name == middleware.SessionCookie
	}
	if !found {
		t.Fatalf("workspace cookie not set")
	}

	missing, err := client.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", missing.StatusCode)
	}
}

func TestLoginActionUpdatesWorkspace(t *testing.T) {
	srv := newConsole(t)
	client := newBrowser(t)

	status, f := postAction(t, client, srv.URL, "login", `{"email":"admin@example.com","password":"pw"}`)
	if status != http.StatusOK || f.Type != view.FrameType {
		t.Fatalf("status=%d type=%q", status, f.Type)
	}
	if !f.View.Panels.Admin || f.View.Panels.AuthForms || f.View.Banner == nil || f.View.Banner.Role != "Tipo: admin" {
		t.Fatalf("unexpected view after login: %+v banner=%+v", f.View.Panels, f.View.Banner)
	}
	if !strings.Contains(f.HTML, "station-form") {
		t.Fatalf("admin panel not rendered")
	}

	resp, err := client.Get(srv.URL + "/api/view")
	if err != nil {
		t.Fatalf("get view: %v", err)
	}
	defer resp.Body.Close()
	var again frame
	if err := json.NewDecoder(resp.Body).Decode(&again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !again.View.Panels.Admin {
		t.Fatalf("session lost between requests")
	}

	other := newBrowser(t)
	_, anon := postAction(t, other, srv.URL, "show-login", `{}`)
	if anon.View.Panels.Admin || !anon.View.Panels.AuthForms {
		t.Fatalf("workspaces leak between browsers")
	}
}

func TestActionStatusMapping(t *testing.T) {
	srv := newConsole(t)
	client := newBrowser(t)

	status, f := postAction(t, client, srv.URL, "login", `{"email":"a@b.c","password":"wrong"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad credentials status = %d", status)
	}
	if n := len(f.View.Notifications); n == 0 || f.View.Notifications[n-1].Message != "Credenziali non valide" {
		t.Fatalf("notifications = %+v", f.View.Notifications)
	}

	if status, _ := postAction(t, client, srv.URL, "login", `{}`); status != http.StatusUnprocessableEntity {
		t.Fatalf("empty login status = %d", status)
	}
	if status, _ := postAction(t, client, srv.URL, "login", `{"email":`); status != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", status)
	}
	if status, _ := postAction(t, client, srv.URL, "booking", `{"station_id":1}`); status != http.StatusForbidden {
		t.Fatalf("anonymous booking status = %d", status)
	}
	if status, _ := postAction(t, client, srv.URL, "teleport", `{}`); status != http.StatusNotFound {
		t.Fatalf("unknown action status = %d", status)
	}
	if status, _ := postAction(t, client, srv.URL, "locate", `{"indirizzo":"Via Roma 1"}`); status != http.StatusNotImplemented {
		t.Fatalf("locate without geocoder status = %d", status)
	}

	resp, err := client.Get(srv.URL + "/actions/login")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET action status = %d", resp.StatusCode)
	}
}

func TestSocketReceivesViewFrames(t *testing.T) {
	srv := newConsole(t)
	client := newBrowser(t)

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	header := http.Header{}
	for _, c := range client.Jar.Cookies(resp.Request.URL) {
		header.Add("Cookie", c.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial frame
	if err := conn.ReadJSON(&initial); err != nil || initial.Type != view.FrameType {
		t.Fatalf("initial frame = %+v err=%v", initial, err)
	}

	postAction(t, client, srv.URL, "show-register", `{}`)
	var pushed frame
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed frame: %v", err)
	}
	if pushed.View.Panels.AuthMode != view.AuthModeRegister {
		t.Fatalf("pushed auth mode = %q", pushed.View.Panels.AuthMode)
	}
}

func TestHealthReportsWorkspaces(t *testing.T) {
	srv := newConsole(t)
	browser := newBrowser(t)
	resp, err := browser.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Status     string `json:"status"`
		Workspaces int    `json:"workspaces"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Workspaces != 1 {
		t.Fatalf("health = %d %+v", resp.StatusCode, body)
	}
}

func TestRequestMetricsUseBoundedRoutes(t *testing.T) {
	srv := newConsole(t)
	client := newBrowser(t)

	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "unmatched", "405")
	login := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/actions/login", "200")
	beforeUnmatched := testutil.ToFloat64(unmatched)
	beforeLogin := testutil.ToFloat64(login)

	for _, path := range []string{"/anything", "/another/path"} {
		resp, err := client.Post(srv.URL+path, "application/json", strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("post %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
	}
	postAction(t, client, srv.URL, "login", `{"email":"admin@example.com","password":"pw"}`)

	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 2 {
		t.Fatalf("unmatched delta = %v", got)
	}
	if got := testutil.ToFloat64(login) - beforeLogin; got != 1 {
		t.Fatalf("login delta = %v", got)
	}
	if n := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/anything", "405")); n != 0 {
		t.Fatalf("raw path used as label")
	}
}
