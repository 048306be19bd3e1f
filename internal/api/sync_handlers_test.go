package api

import (
	"net/http"
	"testing"
)

func TestSyncUpdateStatusRecordsPreviousStatusTime(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")
	doJSON(t, router, http.MethodPost, "/api/auth", map[string]string{
		"action": "login", "login": "ivanov", "password": "secret-123",
	})

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":                  "update_status",
		"user_id":                 userID,
		"status":                  "afk",
		"previous_status":         "online",
		"time_in_previous_status": 120,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Message != "Статус обновлен" || resp.Timestamp == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	var status string
	if err := sqdb.QueryRow(`SELECT status FROM users WHERE id = $1`, userID).Scan(&status); err != nil {
		t.Fatalf("select status: %v", err)
	}
	if status != "afk" {
		t.Fatalf("expected afk, got %q", status)
	}

	// Длительность относится к покидаемому статусу.
	var duration int64
	if err := sqdb.QueryRow(
		`SELECT duration FROM activity_records WHERE user_id = $1 AND activity_type = 'online'`, userID).
		Scan(&duration); err != nil {
		t.Fatalf("select activity record: %v", err)
	}
	if duration != 120 {
		t.Fatalf("expected duration 120, got %d", duration)
	}
}

func TestSyncUpdateStatusWithoutDurationSkipsActivityRecord(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":  "update_status",
		"user_id": userID,
		"status":  "online",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if n := countRows(t, sqdb, `SELECT COUNT(1) FROM activity_records`); n != 0 {
		t.Fatalf("expected no activity records, got %d", n)
	}
}

func TestSyncUpdateStatusInvalidStatusRejectedBeforeWrite(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":                  "update_status",
		"user_id":                 userID,
		"status":                  "sleeping",
		"previous_status":         "online",
		"time_in_previous_status": 60,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}

	// Отклоненный запрос ничего не меняет.
	var status string
	if err := sqdb.QueryRow(`SELECT status FROM users WHERE id = $1`, userID).Scan(&status); err != nil {
		t.Fatalf("select status: %v", err)
	}
	if status != "offline" {
		t.Fatalf("expected untouched status, got %q", status)
	}
	if n := countRows(t, sqdb, `SELECT COUNT(1) FROM activity_records`); n != 0 {
		t.Fatalf("expected no activity records, got %d", n)
	}
}

func TestSyncUpdateStatusUnknownUser(t *testing.T) {
	router, sqdb := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":                  "update_status",
		"user_id":                 "user_000",
		"status":                  "online",
		"time_in_previous_status": 30,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
	if n := countRows(t, sqdb, `SELECT COUNT(1) FROM activity_records`); n != 0 {
		t.Fatalf("expected rollback to leave no records, got %d", n)
	}
}

func TestSyncUpdateActivityReplacesTotalsAndMonthlyStats(t *testing.T) {
	router, sqdb := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":               "update_activity",
		"user_id":              userID,
		"total_online_time":    3600,
		"total_afk_time":       600,
		"total_offline_time":   100,
		"monthly_online_time":  map[string]int64{"2026-08": 3000, "2026-09": 600},
		"monthly_afk_time":     map[string]int64{"2026-09": 600},
		"monthly_offline_time": map[string]int64{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var online, afk, offline int64
	if err := sqdb.QueryRow(
		`SELECT total_online_time, total_afk_time, total_offline_time FROM users WHERE id = $1`, userID).
		Scan(&online, &afk, &offline); err != nil {
		t.Fatalf("select totals: %v", err)
	}
	if online != 3600 || afk != 600 || offline != 100 {
		t.Fatalf("unexpected totals: %d/%d/%d", online, afk, offline)
	}

	// Объединение месяцев: для 2026-08 карта AFK значения не содержит, пишется 0.
	var augustAfk int64
	if err := sqdb.QueryRow(
		`SELECT afk_time FROM user_monthly_stats WHERE user_id = $1 AND month = '2026-08'`, userID).
		Scan(&augustAfk); err != nil {
		t.Fatalf("select august stats: %v", err)
	}
	if augustAfk != 0 {
		t.Fatalf("expected 0 afk for absent month key, got %d", augustAfk)
	}

	// Повторная отправка перезаписывает, а не суммирует.
	rec = doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":              "update_activity",
		"user_id":             userID,
		"total_online_time":   4000,
		"monthly_online_time": map[string]int64{"2026-09": 1000},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on resend, got %d body=%s", rec.Code, rec.Body.String())
	}
	if err := sqdb.QueryRow(`SELECT total_online_time FROM users WHERE id = $1`, userID).Scan(&online); err != nil {
		t.Fatalf("select totals: %v", err)
	}
	if online != 4000 {
		t.Fatalf("expected replaced total 4000, got %d", online)
	}
	var septemberOnline int64
	if err := sqdb.QueryRow(
		`SELECT online_time FROM user_monthly_stats WHERE user_id = $1 AND month = '2026-09'`, userID).
		Scan(&septemberOnline); err != nil {
		t.Fatalf("select september stats: %v", err)
	}
	if septemberOnline != 1000 {
		t.Fatalf("expected replaced month value 1000, got %d", septemberOnline)
	}
	if n := countRows(t, sqdb, `SELECT COUNT(1) FROM user_monthly_stats WHERE user_id = $1`, userID); n != 2 {
		t.Fatalf("expected 2 month rows, got %d", n)
	}
}

func TestSyncUpdateActivityUnknownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action":            "update_activity",
		"user_id":           "user_000",
		"total_online_time": 100,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSyncBulkCountsOnlyExistingUsers(t *testing.T) {
	router, sqdb := newTestRouter(t)
	firstID := registerUser(t, router, "ivanov", "secret-123", "Иванов")
	secondID := registerUser(t, router, "petrov", "secret-456", "Петров")

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]interface{}{
		"action": "bulk_sync",
		"users": []map[string]interface{}{
			{"id": firstID, "status": "online", "totalOnlineTime": 500},
			{"id": secondID, "status": "afk", "totalOnlineTime": 300},
			{"id": "user_000", "status": "online"},
			{"id": "", "status": "online"},
			{"id": firstID, "status": ""},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		UpdatedCount int    `json:"updated_count"`
	}
	decodeBody(t, rec, &resp)
	if resp.UpdatedCount != 2 {
		t.Fatalf("expected 2 updated, got %d (%s)", resp.UpdatedCount, resp.Message)
	}
	if resp.Message != "Обновлено 2 пользователей" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	var status string
	var total int64
	if err := sqdb.QueryRow(`SELECT status, total_online_time FROM users WHERE id = $1`, firstID).Scan(&status, &total); err != nil {
		t.Fatalf("select first user: %v", err)
	}
	if status != "online" || total != 500 {
		t.Fatalf("unexpected first user state: %s/%d", status, total)
	}
}

func TestSyncUnknownAction(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sync", map[string]string{"action": "resync"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetSyncStateReturnsAllUsers(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "ivanov", "secret-123", "Иванов")
	registerUser(t, router, "petrov", "secret-456", "Петров")

	rec := doJSON(t, router, http.MethodGet, "/api/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Users     []syncUserView `json:"users"`
		Timestamp string         `json:"timestamp"`
		Count     int            `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 2 || len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got count=%d len=%d", resp.Count, len(resp.Users))
	}
	if resp.Timestamp == "" {
		t.Fatalf("expected timestamp in response")
	}
}

func TestGetSyncStateSinceFilter(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := registerUser(t, router, "ivanov", "secret-123", "Иванов")
	doJSON(t, router, http.MethodPost, "/api/auth", map[string]string{
		"action": "login", "login": "ivanov", "password": "secret-123",
	})

	// Метка из прошлого: пользователь активен позже и попадает в выборку.
	rec := doJSON(t, router, http.MethodGet, "/api/sync?since=0000", nil)
	var resp struct {
		Users []syncUserView `json:"users"`
		Count int            `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || resp.Users[0].ID != userID {
		t.Fatalf("expected user in since=past window, got %+v", resp)
	}

	// Метка из будущего: изменений нет.
	rec = doJSON(t, router, http.MethodGet, "/api/sync?since=9999", nil)
	decodeBody(t, rec, &resp)
	if resp.Count != 0 {
		t.Fatalf("expected empty since=future window, got %d", resp.Count)
	}
}
