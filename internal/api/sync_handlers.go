package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"adminpanel/internal/db"
	"adminpanel/internal/models"
)

// syncRequest - тело POST /api/sync, действие выбирается полем action.
type syncRequest struct {
	Action string `json:"action"`

	// update_status
	UserID               string `json:"user_id"`
	Status               string `json:"status"`
	PreviousStatus       string `json:"previous_status"`
	TimeInPreviousStatus int64  `json:"time_in_previous_status"`

	// update_activity
	TotalOnlineTime    int64            `json:"total_online_time"`
	TotalAfkTime       int64            `json:"total_afk_time"`
	TotalOfflineTime   int64            `json:"total_offline_time"`
	MonthlyOnlineTime  map[string]int64 `json:"monthly_online_time"`
	MonthlyAfkTime     map[string]int64 `json:"monthly_afk_time"`
	MonthlyOfflineTime map[string]int64 `json:"monthly_offline_time"`

	// bulk_sync
	Users []bulkSyncUser `json:"users"`
}

type bulkSyncUser struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	TotalOnlineTime int64  `json:"totalOnlineTime"`
}

// SyncAction обрабатывает update_status/update_activity/bulk_sync.
func SyncAction(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: некорректный JSON")
		return
	}

	switch req.Action {
	case "update_status":
		syncUpdateStatus(w, req)
	case "update_activity":
		syncUpdateActivity(w, req)
	case "bulk_sync":
		syncBulk(w, req)
	default:
		writeJSONError(w, http.StatusBadRequest, "Неизвестное действие")
	}
}

func syncUpdateStatus(w http.ResponseWriter, req syncRequest) {
	// Валидация до любой записи.
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: не указан user_id")
		return
	}
	if !models.IsValidStatus(req.Status) {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: недопустимый статус")
		return
	}

	tx, err := db.DB.Begin()
	if err != nil {
		internalError(err).write(w)
		return
	}
	var opErr error
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		} else if opErr != nil {
			tx.Rollback()
		}
	}()

	var rows int64
	rows, opErr = db.SetUserStatusInTx(tx, req.UserID, req.Status, true)
	if opErr != nil {
		internalError(opErr).write(w)
		return
	}
	if rows == 0 {
		tx.Rollback()
		writeJSONError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}

	// Время относится к покидаемому статусу, а не к новому.
	if req.TimeInPreviousStatus > 0 {
		previous := req.PreviousStatus
		if previous == "" {
			previous = "unknown"
		}
		if opErr = db.AppendActivityInTx(tx, req.UserID, previous, req.TimeInPreviousStatus); opErr != nil {
			internalError(opErr).write(w)
			return
		}
	}

	if opErr = tx.Commit(); opErr != nil {
		internalError(opErr).write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Статус обновлен",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func syncUpdateActivity(w http.ResponseWriter, req syncRequest) {
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: не указан user_id")
		return
	}

	tx, err := db.DB.Begin()
	if err != nil {
		internalError(err).write(w)
		return
	}
	var opErr error
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		} else if opErr != nil {
			tx.Rollback()
		}
	}()

	var rows int64
	rows, opErr = db.ReplaceUserTotalsInTx(tx, req.UserID,
		req.TotalOnlineTime, req.TotalAfkTime, req.TotalOfflineTime)
	if opErr != nil {
		internalError(opErr).write(w)
		return
	}
	if rows == 0 {
		tx.Rollback()
		writeJSONError(w, http.StatusNotFound, "Пользователь не найден")
		return
	}

	// Объединение месяцев из всех трех карт; отсутствующие значения - 0.
	allMonths := make(map[string]struct{})
	for month := range req.MonthlyOnlineTime {
		allMonths[month] = struct{}{}
	}
	for month := range req.MonthlyAfkTime {
		allMonths[month] = struct{}{}
	}
	for month := range req.MonthlyOfflineTime {
		allMonths[month] = struct{}{}
	}

	for month := range allMonths {
		if opErr = db.UpsertMonthlyStatInTx(tx, req.UserID, month,
			req.MonthlyOnlineTime[month], req.MonthlyAfkTime[month], req.MonthlyOfflineTime[month]); opErr != nil {
			internalError(opErr).write(w)
			return
		}
	}

	if opErr = tx.Commit(); opErr != nil {
		internalError(opErr).write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Активность обновлена",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func syncBulk(w http.ResponseWriter, req syncRequest) {
	tx, err := db.DB.Begin()
	if err != nil {
		internalError(err).write(w)
		return
	}
	var opErr error
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		} else if opErr != nil {
			tx.Rollback()
		}
	}()

	updated := 0
	for _, u := range req.Users {
		// Записи без id или статуса пропускаются, остальные обновляются.
		if u.ID == "" || u.Status == "" {
			continue
		}
		var rows int64
		rows, opErr = db.BulkSyncUserInTx(tx, u.ID, u.Status, u.TotalOnlineTime)
		if opErr != nil {
			internalError(opErr).write(w)
			return
		}
		if rows > 0 {
			updated++
		}
	}

	if opErr = tx.Commit(); opErr != nil {
		internalError(opErr).write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       fmt.Sprintf("Обновлено %d пользователей", updated),
		"updated_count": updated,
	})
}

// GetSyncState отдает компактное состояние всех пользователей для
// инкрементального опроса (?since= фильтрует по последней активности).
func GetSyncState(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	users, err := db.SyncUsers(since)
	if err != nil {
		internalError(err).write(w)
		return
	}

	views := make([]syncUserView, 0, len(users))
	for _, u := range users {
		views = append(views, newSyncUserView(u))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":     views,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"count":     len(views),
	})
}
