package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"colonnine/backend/services/console/internal/models"
)

type recordingRecorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recordingRecorder) Record(_ context.Context, call Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func newTestBackend(t *testing.T, handler http.Handler) (*BackendClient, *recordingRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	rec := &recordingRecorder{}
	return NewBackendClient(srv.URL, NewDefaultHTTPClient(2*time.Second, jar), rec), rec
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message":   "Login successful",
			"user_type": "admin",
			"user":      map[string]interface{}{"id": 3, "email": creds.Email, "name": "Ada Rossi"},
		})
	})
	mux.HandleFunc("/api/check-auth", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"authenticated": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"authenticated": true,
			"user":          map[string]interface{}{"id": 3, "email": "ada@example.com", "name": "Ada Rossi", "user_type": "admin"},
		})
	})

	client, rec := newTestBackend(t, mux)

	identity, err := client.Login(context.Background(), models.Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if identity.ID != 3 || identity.Role != models.RoleAdmin || identity.Name != "Ada Rossi" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	checked, err := client.CheckAuth(context.Background())
	if err != nil {
		t.Fatalf("check auth: %v", err)
	}
	if checked == nil || checked.Role != models.RoleAdmin {
		t.Fatalf("cookie not replayed, got %+v", checked)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(rec.calls))
	}
	if rec.calls[0].Path != "/api/login" || rec.calls[0].Status != http.StatusOK {
		t.Fatalf("unexpected first call %+v", rec.calls[0])
	}
}

func TestCheckAuthRoleFallsBackToTopLevel(t *testing.T) {
	client, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":true,"user_type":"user","user":{"id":9,"email":"u@example.com","name":"U"}}`))
	}))

	identity, err := client.CheckAuth(context.Background())
	if err != nil {
		t.Fatalf("check auth: %v", err)
	}
	if identity == nil || identity.Role != models.RoleUser {
		t.Fatalf("role = %+v, want user", identity)
	}
}

func TestCheckAuthUnauthorizedIsNoSession(t *testing.T) {
	client, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
	}))

	identity, err := client.CheckAuth(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("want (nil, nil), got (%+v, %v)", identity, err)
	}
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	client, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Colonnina not available in this time slot"}`))
	}))

	err := client.CreateReservation(context.Background(), models.Reservation{VehicleID: 1, StationID: 2})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Colonnina not available in this time slot" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	client, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html>nope</html>`))
	}))

	_, err := client.Statistics(context.Background())
	if !IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if err.Error() != http.StatusText(http.StatusForbidden) {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewBackendClient(url, NewDefaultHTTPClient(time.Second, nil), nil)
	_, err := client.ListStations(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestListStationsEmptyBody(t *testing.T) {
	client, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))

	stations, err := client.ListStations(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if stations == nil || len(stations) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", stations)
	}
}
