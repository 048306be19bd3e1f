package db

import (
	"database/sql"
	"log"

	"adminpanel/internal/models"
)

// UpsertMonthlyStatInTx создает или перезаписывает строку помесячной
// статистики. Конфликт по (user_id, month) разрешается на стороне хранилища,
// поэтому параллельные синхронизации сериализуются без блокировок в приложении.
func UpsertMonthlyStatInTx(tx *sql.Tx, userID, month string, online, afk, offline int64) error {
	_, err := tx.Exec(`
        INSERT INTO user_monthly_stats (user_id, month, online_time, afk_time, offline_time)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, month)
        DO UPDATE SET
            online_time = EXCLUDED.online_time,
            afk_time = EXCLUDED.afk_time,
            offline_time = EXCLUDED.offline_time`,
		userID, month, online, afk, offline)
	if err != nil {
		log.Printf("UpsertMonthlyStatInTx: ошибка записи статистики %q/%q: %v", userID, month, err)
	}
	return err
}

// GetMonthlyMaps возвращает помесячные карты времени одного пользователя.
func GetMonthlyMaps(userID string) (models.MonthlyMaps, error) {
	maps := models.NewMonthlyMaps()
	rows, err := DB.Query(`
        SELECT month, online_time, afk_time, offline_time
        FROM user_monthly_stats WHERE user_id=$1`, userID)
	if err != nil {
		log.Printf("GetMonthlyMaps: ошибка запроса статистики пользователя %q: %v", userID, err)
		return maps, err
	}
	defer rows.Close()

	for rows.Next() {
		var month string
		var online, afk, offline int64
		if errScan := rows.Scan(&month, &online, &afk, &offline); errScan != nil {
			log.Printf("GetMonthlyMaps: ошибка сканирования строки: %v", errScan)
			return maps, errScan
		}
		maps.Online[month] = online
		maps.Afk[month] = afk
		maps.Offline[month] = offline
	}
	return maps, rows.Err()
}

// GetAllMonthlyMaps возвращает помесячные карты всех пользователей одним
// запросом - для списочных выдач, чтобы не ходить в БД по разу на пользователя.
func GetAllMonthlyMaps() (map[string]models.MonthlyMaps, error) {
	result := make(map[string]models.MonthlyMaps)
	rows, err := DB.Query(`
        SELECT user_id, month, online_time, afk_time, offline_time
        FROM user_monthly_stats`)
	if err != nil {
		log.Printf("GetAllMonthlyMaps: ошибка запроса статистики: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, month string
		var online, afk, offline int64
		if errScan := rows.Scan(&userID, &month, &online, &afk, &offline); errScan != nil {
			log.Printf("GetAllMonthlyMaps: ошибка сканирования строки: %v", errScan)
			return nil, errScan
		}
		maps, ok := result[userID]
		if !ok {
			maps = models.NewMonthlyMaps()
		}
		maps.Online[month] = online
		maps.Afk[month] = afk
		maps.Offline[month] = offline
		result[userID] = maps
	}
	return result, rows.Err()
}
