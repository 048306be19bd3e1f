package api

import (
	"database/sql"
	"time"

	"adminpanel/internal/models"
)

// Проекции пользователей для фронтенда: имена полей - camelCase,
// как исторически отдает API.

type userView struct {
	ID                 string            `json:"id"`
	Login              string            `json:"login"`
	Nickname           string            `json:"nickname"`
	AdminLevel         int               `json:"adminLevel"`
	Status             string            `json:"status"`
	TotalOnlineTime    int64             `json:"totalOnlineTime"`
	TotalAfkTime       int64             `json:"totalAfkTime"`
	TotalOfflineTime   int64             `json:"totalOfflineTime"`
	MonthlyNorm        int64             `json:"monthlyNorm"`
	IsBlocked          bool              `json:"isBlocked"`
	BlockReason        *string           `json:"blockReason"`
	LastActivity       *string           `json:"lastActivity"`
	CreatedAt          *string           `json:"createdAt"`
	MonthlyOnlineTime  map[string]int64  `json:"monthlyOnlineTime"`
	MonthlyAfkTime     map[string]int64  `json:"monthlyAfkTime"`
	MonthlyOfflineTime map[string]int64  `json:"monthlyOfflineTime"`
}

// activityView - запись журнала активности в профиле пользователя.
type activityView struct {
	ActivityType string `json:"activityType"`
	Duration     *int64 `json:"duration"`
	Timestamp    string `json:"timestamp"`
}

// profileView - полный профиль, возвращаемый при входе через /api/auth.
type profileView struct {
	ID                 string           `json:"id"`
	Login              string           `json:"login"`
	Nickname           string           `json:"nickname"`
	AdminLevel         int              `json:"adminLevel"`
	Status             string           `json:"status"`
	TotalOnlineTime    int64            `json:"totalOnlineTime"`
	TotalAfkTime       int64            `json:"totalAfkTime"`
	TotalOfflineTime   int64            `json:"totalOfflineTime"`
	MonthlyNorm        int64            `json:"monthlyNorm"`
	IsBlocked          bool             `json:"isBlocked"`
	MonthlyOnlineTime  map[string]int64 `json:"monthlyOnlineTime"`
	MonthlyAfkTime     map[string]int64 `json:"monthlyAfkTime"`
	MonthlyOfflineTime map[string]int64 `json:"monthlyOfflineTime"`
	CreatedAt          string           `json:"createdAt"`
	ActivityHistory    []activityView   `json:"activityHistory"`
}

// syncUserView - компактная проекция для инкрементального опроса, без
// помесячных карт.
type syncUserView struct {
	ID               string  `json:"id"`
	Login            string  `json:"login"`
	Nickname         string  `json:"nickname"`
	Status           string  `json:"status"`
	LastActivity     *string `json:"lastActivity"`
	TotalOnlineTime  int64   `json:"totalOnlineTime"`
	TotalAfkTime     int64   `json:"totalAfkTime"`
	TotalOfflineTime int64   `json:"totalOfflineTime"`
	AdminLevel       int     `json:"adminLevel"`
	IsBlocked        bool    `json:"isBlocked"`
}

type settingsView struct {
	ID                 int64   `json:"id"`
	SiteName           *string `json:"siteName"`
	IsRegistrationOpen bool    `json:"isRegistrationOpen"`
	IsSiteOpen         bool    `json:"isSiteOpen"`
	MaintenanceMessage *string `json:"maintenanceMessage"`
	EmergencyCode      *string `json:"emergencyCode"`
	SessionTimeout     *int64  `json:"sessionTimeout"`
	AfkTimeout         *int64  `json:"afkTimeout"`
	MinimumMonthlyNorm *int64  `json:"minimumMonthlyNorm"`
	CreatedAt          *string `json:"createdAt"`
	UpdatedAt          *string `json:"updatedAt"`
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTime(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	s := v.Time.UTC().Format(time.RFC3339)
	return &s
}

func intOrZero(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

func normOrDefault(v sql.NullInt64) int64 {
	if !v.Valid {
		return models.DefaultMinimumMonthlyNorm
	}
	return v.Int64
}

func newUserView(u models.User, maps models.MonthlyMaps) userView {
	return userView{
		ID:                 u.ID,
		Login:              u.Login,
		Nickname:           u.Nickname,
		AdminLevel:         u.AdminLevel,
		Status:             u.Status,
		TotalOnlineTime:    intOrZero(u.TotalOnlineTime),
		TotalAfkTime:       intOrZero(u.TotalAfkTime),
		TotalOfflineTime:   intOrZero(u.TotalOfflineTime),
		MonthlyNorm:        normOrDefault(u.MonthlyNorm),
		IsBlocked:          u.IsBlocked,
		BlockReason:        nullStr(u.BlockReason),
		LastActivity:       nullTime(u.LastActivity),
		CreatedAt:          nullTime(u.CreatedAt),
		MonthlyOnlineTime:  maps.Online,
		MonthlyAfkTime:     maps.Afk,
		MonthlyOfflineTime: maps.Offline,
	}
}

func newProfileView(u models.User, maps models.MonthlyMaps, history []models.ActivityRecord) profileView {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if u.CreatedAt.Valid {
		createdAt = u.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	activity := make([]activityView, 0, len(history))
	for _, rec := range history {
		activity = append(activity, activityView{
			ActivityType: rec.ActivityType,
			Duration:     nullInt(rec.Duration),
			Timestamp:    rec.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return profileView{
		ID:                 u.ID,
		Login:              u.Login,
		Nickname:           u.Nickname,
		AdminLevel:         u.AdminLevel,
		Status:             u.Status,
		TotalOnlineTime:    intOrZero(u.TotalOnlineTime),
		TotalAfkTime:       intOrZero(u.TotalAfkTime),
		TotalOfflineTime:   intOrZero(u.TotalOfflineTime),
		MonthlyNorm:        normOrDefault(u.MonthlyNorm),
		IsBlocked:          u.IsBlocked,
		MonthlyOnlineTime:  maps.Online,
		MonthlyAfkTime:     maps.Afk,
		MonthlyOfflineTime: maps.Offline,
		CreatedAt:          createdAt,
		ActivityHistory:    activity,
	}
}

func newSyncUserView(u models.User) syncUserView {
	return syncUserView{
		ID:               u.ID,
		Login:            u.Login,
		Nickname:         u.Nickname,
		Status:           u.Status,
		LastActivity:     nullTime(u.LastActivity),
		TotalOnlineTime:  intOrZero(u.TotalOnlineTime),
		TotalAfkTime:     intOrZero(u.TotalAfkTime),
		TotalOfflineTime: intOrZero(u.TotalOfflineTime),
		AdminLevel:       u.AdminLevel,
		IsBlocked:        u.IsBlocked,
	}
}

func newSettingsView(s models.Settings) settingsView {
	return settingsView{
		ID:                 s.ID,
		SiteName:           nullStr(s.SiteName),
		IsRegistrationOpen: s.IsRegistrationOpen,
		IsSiteOpen:         s.IsSiteOpen,
		MaintenanceMessage: nullStr(s.MaintenanceMessage),
		EmergencyCode:      nullStr(s.EmergencyCode),
		SessionTimeout:     nullInt(s.SessionTimeout),
		AfkTimeout:         nullInt(s.AfkTimeout),
		MinimumMonthlyNorm: nullInt(s.MinimumMonthlyNorm),
		CreatedAt:          nullTime(s.CreatedAt),
		UpdatedAt:          nullTime(s.UpdatedAt),
	}
}
