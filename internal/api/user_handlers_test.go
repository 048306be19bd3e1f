package api

import (
	"net/http"
	"testing"
)

func TestGetUsersListNewestFirst(t *testing.T) {
	router, sqdb := newTestRouter(t)
	firstID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	// Искусственно раздвигаем created_at, чтобы порядок был детерминированным.
	if _, err := sqdb.Exec(`UPDATE users SET created_at = '2026-01-01 00:00:00' WHERE id = $1`, firstID); err != nil {
		t.Fatalf("backdate user: %v", err)
	}
	secondID := registerUser(t, router, "petrov", "secret-456", "Петров")

	rec := doJSON(t, router, http.MethodGet, "/api/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var views []userView
	decodeBody(t, rec, &views)
	if len(views) != 2 {
		t.Fatalf("expected 2 users, got %d", len(views))
	}
	if views[0].ID != secondID || views[1].ID != firstID {
		t.Fatalf("expected newest first, got %s, %s", views[0].ID, views[1].ID)
	}
	if views[0].MonthlyOnlineTime == nil {
		t.Fatalf("expected non-null monthly map for user without stats")
	}
}

func TestGetUserByID(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodGet, "/api/users?id="+userID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var view userView
	decodeBody(t, rec, &view)
	if view.ID != userID || view.Login != "ivanov" || view.Nickname != "Иванов" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.MonthlyNorm != 160 {
		t.Fatalf("expected default norm 160, got %d", view.MonthlyNorm)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users?id=user_000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Пользователь не найден" {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestUsersRegisterCreatesRegularUser(t *testing.T) {
	router, sqdb := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"action":   "register",
		"login":    "operator",
		"password": "secret-123",
		"nickname": "Оператор",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID       string `json:"id"`
		Login    string `json:"login"`
		Nickname string `json:"nickname"`
		Message  string `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if resp.Message != "Пользователь успешно создан" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	var adminLevel int
	if err := sqdb.QueryRow(`SELECT admin_level FROM users WHERE id = $1`, resp.ID).Scan(&adminLevel); err != nil {
		t.Fatalf("select user: %v", err)
	}
	if adminLevel != 0 {
		t.Fatalf("expected level 0 for users endpoint, got %d", adminLevel)
	}
	// Этот вход в регистрацию не пишет запись в system_actions.
	if n := countRows(t, sqdb, `SELECT COUNT(1) FROM system_actions`); n != 0 {
		t.Fatalf("expected no system actions, got %d", n)
	}
}

func TestUsersLoginSlimResponse(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
		"action":   "login",
		"login":    "ivanov",
		"password": "secret-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID         string `json:"id"`
		Login      string `json:"login"`
		Nickname   string `json:"nickname"`
		AdminLevel int    `json:"adminLevel"`
		Status     string `json:"status"`
	}
	decodeBody(t, rec, &resp)
	if resp.ID != userID || resp.Status != "online" || resp.AdminLevel != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpdateUserPartialFields(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPut, "/api/users", map[string]interface{}{
		"userId":       userID,
		"admin_level":  5,
		"monthly_norm": 140,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var nickname string
	var adminLevel, monthlyNorm int
	if err := sqdb.QueryRow(`SELECT nickname, admin_level, monthly_norm FROM users WHERE id = $1`, userID).
		Scan(&nickname, &adminLevel, &monthlyNorm); err != nil {
		t.Fatalf("select user: %v", err)
	}
	if adminLevel != 5 || monthlyNorm != 140 {
		t.Fatalf("expected 5/140, got %d/%d", adminLevel, monthlyNorm)
	}
	// Непереданное поле не трогается.
	if nickname != "Иванов" {
		t.Fatalf("nickname must stay intact, got %q", nickname)
	}
}

func TestUpdateUserEmptyStringsIgnored(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPut, "/api/users", map[string]interface{}{
		"userId":   userID,
		"nickname": "",
		"status":   "afk",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var nickname, status string
	if err := sqdb.QueryRow(`SELECT nickname, status FROM users WHERE id = $1`, userID).Scan(&nickname, &status); err != nil {
		t.Fatalf("select user: %v", err)
	}
	if nickname != "Иванов" {
		t.Fatalf("empty nickname must be ignored, got %q", nickname)
	}
	if status != "afk" {
		t.Fatalf("expected afk, got %q", status)
	}
}

func TestUpdateUserMissingID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/users", map[string]interface{}{"nickname": "Новый"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Не указан ID пользователя" {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestUpdateUserNoFields(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPut, "/api/users", map[string]interface{}{
		"userId":   userID,
		"nickname": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Нет данных для обновления" {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestUpdateUserUnknownIDStillOK(t *testing.T) {
	router, _ := newTestRouter(t)

	// Исторический контракт: обновление несуществующего пользователя отвечает 200.
	rec := doJSON(t, router, http.MethodPut, "/api/users", map[string]interface{}{
		"userId":   "user_000",
		"nickname": "Призрак",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}
