package models

import (
	"database/sql"
)

// Статусы присутствия пользователя.
const (
	StatusOnline  = "online"
	StatusAfk     = "afk"
	StatusOffline = "offline"
)

// IsValidStatus проверяет, что статус входит в допустимое множество.
func IsValidStatus(status string) bool {
	return status == StatusOnline || status == StatusAfk || status == StatusOffline
}

// User представляет пользователя панели в базе данных.
type User struct {
	ID                  string
	Login               string
	Nickname            string
	Email               sql.NullString
	PasswordHash        string
	AdminLevel          int
	Status              string
	IsBlocked           bool
	BlockReason         sql.NullString
	MonthlyNorm         sql.NullInt64
	TotalOnlineTime     sql.NullInt64
	TotalAfkTime        sql.NullInt64
	TotalOfflineTime    sql.NullInt64
	LastActivity        sql.NullTime
	LastStatusTimestamp sql.NullTime
	CreatedAt           sql.NullTime
	UpdatedAt           sql.NullTime
}

// MonthlyMaps - помесячные карты времени по трем статусам для одного пользователя.
// Ключ карты - месяц в формате "2006-01".
type MonthlyMaps struct {
	Online  map[string]int64
	Afk     map[string]int64
	Offline map[string]int64
}

// NewMonthlyMaps возвращает инициализированные пустые карты.
func NewMonthlyMaps() MonthlyMaps {
	return MonthlyMaps{
		Online:  make(map[string]int64),
		Afk:     make(map[string]int64),
		Offline: make(map[string]int64),
	}
}
