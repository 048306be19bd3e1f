package api

import (
	"encoding/json"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"adminpanel/internal/db"
)

// GetSettings отдает единственную строку настроек, создавая ее с
// дефолтами при первом обращении.
func GetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := db.GetOrCreateSettings()
	if err != nil {
		internalError(err).write(w)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsView(settings))
}

// settingsUpdateRequest - тело PUT /api/settings; nil-поля не трогаются.
type settingsUpdateRequest struct {
	IsRegistrationOpen *bool   `json:"is_registration_open"`
	SiteName           *string `json:"site_name"`
	IsSiteOpen         *bool   `json:"is_site_open"`
	MaintenanceMessage *string `json:"maintenance_message"`
	SessionTimeout     *int    `json:"session_timeout"`
	AfkTimeout         *int    `json:"afk_timeout"`
	MinimumMonthlyNorm *int    `json:"minimum_monthly_norm"`
}

// UpdateSettings применяет частичное обновление настроек.
func UpdateSettings(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: некорректный JSON")
			return
		}

		patch := db.SettingsPatch{
			IsRegistrationOpen: req.IsRegistrationOpen,
			SiteName:           req.SiteName,
			IsSiteOpen:         req.IsSiteOpen,
			MaintenanceMessage: req.MaintenanceMessage,
			SessionTimeout:     req.SessionTimeout,
			AfkTimeout:         req.AfkTimeout,
			MinimumMonthlyNorm: req.MinimumMonthlyNorm,
		}
		if patch.IsEmpty() {
			writeJSONError(w, http.StatusBadRequest, "Нет данных для обновления")
			return
		}

		settings, changed, err := db.UpdateSettings(patch)
		if err != nil {
			internalError(err).write(w)
			return
		}

		deps.Notifier.SettingsChanged(strings.Join(changed, ", "))

		writeJSON(w, http.StatusOK, newSettingsView(settings))
	}
}

// ActivateRegistration - разовая административная операция открытия регистрации.
func ActivateRegistration(w http.ResponseWriter, _ *http.Request) {
	if err := db.ActivateRegistration(); err != nil {
		internalError(err).write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Регистрация успешно активирована!"})
}

// PanelQR отдает PNG с QR-кодом адреса панели для быстрого входа с телефона.
func PanelQR(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		siteURL := deps.Config.SiteURL
		if siteURL == "" {
			writeJSONError(w, http.StatusNotFound, "SITE_URL не настроен")
			return
		}

		// qrcode.Medium - уровень коррекции ошибок, 256 - размер в пикселях.
		qrBytes, err := qrcode.Encode(siteURL, qrcode.Medium, 256)
		if err != nil {
			internalError(err).write(w)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
		w.Write(qrBytes)
	}
}
