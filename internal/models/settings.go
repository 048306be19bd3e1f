package models

import (
	"database/sql"
)

// Значения по умолчанию для единственной строки настроек.
const (
	DefaultSiteName           = "Панель администратора"
	DefaultMinimumMonthlyNorm = 160
)

// Settings - глобальные настройки системы. В таблице system_settings
// авторитетна строка с наименьшим id.
type Settings struct {
	ID                 int64
	SiteName           sql.NullString
	IsRegistrationOpen bool
	IsSiteOpen         bool
	MaintenanceMessage sql.NullString
	EmergencyCode      sql.NullString
	SessionTimeout     sql.NullInt64
	AfkTimeout         sql.NullInt64
	MinimumMonthlyNorm sql.NullInt64
	CreatedAt          sql.NullTime
	UpdatedAt          sql.NullTime
}
