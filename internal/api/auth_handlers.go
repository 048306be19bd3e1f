package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"adminpanel/internal/db"
)

// authRequest - тело POST /api/auth, действие выбирается полем action.
type authRequest struct {
	Action   string `json:"action"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
}

// AuthAction обрабатывает register/login/logout на эндпоинте аутентификации.
func AuthAction(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: некорректный JSON")
			return
		}

		switch req.Action {
		case "register":
			authRegister(w, req, deps)
		case "login":
			authLogin(w, req)
		case "logout":
			authLogout(w, req)
		default:
			writeJSONError(w, http.StatusBadRequest, "Неизвестное действие")
		}
	}
}

// Длины считаются в символах, не в байтах: логины и никнеймы кириллические.
func validateRegistration(req authRequest) string {
	switch {
	case utf8.RuneCountInString(req.Login) < 3 || utf8.RuneCountInString(req.Login) > 50:
		return "Ошибка валидации: логин должен содержать от 3 до 50 символов"
	case utf8.RuneCountInString(req.Password) < 6 || utf8.RuneCountInString(req.Password) > 100:
		return "Ошибка валидации: пароль должен содержать от 6 до 100 символов"
	case utf8.RuneCountInString(req.Nickname) < 2 || utf8.RuneCountInString(req.Nickname) > 50:
		return "Ошибка валидации: никнейм должен содержать от 2 до 50 символов"
	case utf8.RuneCountInString(req.Email) > 100:
		return "Ошибка валидации: email слишком длинный"
	}
	return ""
}

func authRegister(w http.ResponseWriter, req authRequest, deps Dependencies) {
	if msg := validateRegistration(req); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	userID, apiErr := registerAccount(registerParams{
		Login:        req.Login,
		Password:     req.Password,
		Nickname:     req.Nickname,
		Email:        req.Email,
		AdminLevel:   1, // базовый уровень доступа
		LogType:      "registration",
		LogMessage:   fmt.Sprintf("Зарегистрирован новый пользователь: %s (%s)", req.Nickname, req.Login),
		RecordAction: true,
	})
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	deps.Notifier.UserRegistered(req.Nickname, req.Login)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Пользователь успешно зарегистрирован",
		"user": map[string]interface{}{
			"id":         userID,
			"login":      req.Login,
			"nickname":   req.Nickname,
			"adminLevel": 1,
		},
	})
}

func authLogin(w http.ResponseWriter, req authRequest) {
	if req.Login == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: логин и пароль обязательны")
		return
	}

	user, apiErr := authenticateAccount(req.Login, req.Password)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	maps, err := db.GetMonthlyMaps(user.ID)
	if err != nil {
		internalError(err).write(w)
		return
	}
	history, err := db.GetActivityRecords(user.ID, 50)
	if err != nil {
		internalError(err).write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    newProfileView(user, maps, history),
	})
}

func authLogout(w http.ResponseWriter, req authRequest) {
	if apiErr := logoutAccount(req.UserID); apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Выход выполнен",
	})
}

// GetSystemInfo возвращает сводку по системе для аутентификационного эндпоинта.
func GetSystemInfo(w http.ResponseWriter, _ *http.Request) {
	total, online, err := db.CountUsers()
	if err != nil {
		internalError(err).write(w)
		return
	}
	registrationOpen, err := db.RegistrationOpen()
	if err != nil {
		internalError(err).write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"system": map[string]interface{}{
			"totalUsers":          total,
			"onlineUsers":         online,
			"registrationEnabled": registrationOpen,
		},
	})
}
