package models

import (
	"database/sql"
	"time"
)

// Типы записей журнала активности. Помимо login/logout в activity_records
// пишется покинутый статус (online/afk/offline) вместе с проведенным в нем
// временем.
const (
	ActivityLogin  = "login"
	ActivityLogout = "logout"
)

// ActivityRecord - запись журнала активности (только добавление).
type ActivityRecord struct {
	ID           int64
	UserID       string
	ActivityType string
	Duration     sql.NullInt64
	Timestamp    time.Time
}
