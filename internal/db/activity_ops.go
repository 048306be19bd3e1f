package db

import (
	"database/sql"
	"log"
	"time"

	"adminpanel/internal/models"
)

// AppendActivityInTx добавляет запись в журнал активности.
// duration <= 0 означает запись без длительности (login/logout).
func AppendActivityInTx(tx *sql.Tx, userID, activityType string, duration int64) error {
	durationVal := sql.NullInt64{Int64: duration, Valid: duration > 0}
	_, err := tx.Exec(`
        INSERT INTO activity_records (user_id, activity_type, duration, timestamp)
        VALUES ($1, $2, $3, $4)`,
		userID, activityType, durationVal, time.Now().UTC())
	if err != nil {
		log.Printf("AppendActivityInTx: ошибка записи активности %q/%q: %v", userID, activityType, err)
	}
	return err
}

// GetActivityRecords возвращает записи журнала пользователя, новые - первыми.
func GetActivityRecords(userID string, limit int) ([]models.ActivityRecord, error) {
	rows, err := DB.Query(`
        SELECT id, user_id, activity_type, duration, timestamp
        FROM activity_records WHERE user_id=$1
        ORDER BY timestamp DESC LIMIT $2`, userID, limit)
	if err != nil {
		log.Printf("GetActivityRecords: ошибка запроса журнала пользователя %q: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var rec models.ActivityRecord
		if errScan := rows.Scan(&rec.ID, &rec.UserID, &rec.ActivityType, &rec.Duration, &rec.Timestamp); errScan != nil {
			log.Printf("GetActivityRecords: ошибка сканирования строки: %v", errScan)
			return nil, errScan
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
