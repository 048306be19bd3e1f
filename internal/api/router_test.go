package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"adminpanel/internal/config"
	"adminpanel/internal/db/dbtest"
)

func newTestRouter(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()
	sqdb := dbtest.Setup(t)

	r := chi.NewRouter()
	SetupRoutes(r, Dependencies{
		Config: &config.Config{SiteURL: "https://panel.example.com"},
	})
	return r, sqdb
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode body: %v body=%s", err, rec.Body.String())
	}
}

// registerUser создает пользователя через POST /api/auth и возвращает его id.
func registerUser(t *testing.T, router http.Handler, login, password, nickname string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth", map[string]string{
		"action":   "register",
		"login":    login,
		"password": password,
		"nickname": nickname,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", login, rec.Code, rec.Body.String())
	}
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.ID == "" {
		t.Fatalf("register %s: empty user id, body=%s", login, rec.Body.String())
	}
	return resp.User.ID
}

func countRows(t *testing.T, sqdb *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := sqdb.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	return resp.Error
}
