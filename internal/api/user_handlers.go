package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"adminpanel/internal/db"
	"adminpanel/internal/models"
)

// GetUsers отдает одного пользователя (?id=) или весь список,
// новые - первыми, вместе с помесячными картами времени.
func GetUsers(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		user, err := db.GetUserByID(id)
		if err == sql.ErrNoRows {
			writeJSONError(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		if err != nil {
			internalError(err).write(w)
			return
		}
		maps, err := db.GetMonthlyMaps(id)
		if err != nil {
			internalError(err).write(w)
			return
		}
		writeJSON(w, http.StatusOK, newUserView(user, maps))
		return
	}

	users, err := db.ListUsers()
	if err != nil {
		internalError(err).write(w)
		return
	}
	allMaps, err := db.GetAllMonthlyMaps()
	if err != nil {
		internalError(err).write(w)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		maps, ok := allMaps[u.ID]
		if !ok {
			maps = models.NewMonthlyMaps()
		}
		views = append(views, newUserView(u, maps))
	}
	writeJSON(w, http.StatusOK, views)
}

// usersActionRequest - тело POST /api/users (второй исторический вход
// в регистрацию/аутентификацию, с более мягкой валидацией).
type usersActionRequest struct {
	Action   string `json:"action"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// UsersAction обрабатывает register/login на справочнике пользователей.
func UsersAction(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req usersActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: некорректный JSON")
			return
		}

		switch req.Action {
		case "register":
			usersRegister(w, req, deps)
		case "login":
			usersLogin(w, req)
		default:
			writeJSONError(w, http.StatusBadRequest, "Неизвестное действие")
		}
	}
}

func usersRegister(w http.ResponseWriter, req usersActionRequest, deps Dependencies) {
	switch {
	case req.Login == "" || utf8.RuneCountInString(req.Login) > 100:
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: логин должен содержать от 1 до 100 символов")
		return
	case utf8.RuneCountInString(req.Password) < 6:
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: пароль должен содержать минимум 6 символов")
		return
	case req.Nickname == "" || utf8.RuneCountInString(req.Nickname) > 100:
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: никнейм должен содержать от 1 до 100 символов")
		return
	}

	userID, apiErr := registerAccount(registerParams{
		Login:      req.Login,
		Password:   req.Password,
		Nickname:   req.Nickname,
		AdminLevel: 0,
		LogType:    "system",
		LogMessage: fmt.Sprintf("Создан новый пользователь: %s (%s)", req.Nickname, req.Login),
	})
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	deps.Notifier.UserRegistered(req.Nickname, req.Login)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       userID,
		"login":    req.Login,
		"nickname": req.Nickname,
		"message":  "Пользователь успешно создан",
	})
}

func usersLogin(w http.ResponseWriter, req usersActionRequest) {
	if req.Login == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: логин и пароль обязательны")
		return
	}

	user, apiErr := authenticateAccount(req.Login, req.Password)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	// Укороченный исторический ответ этого эндпоинта.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         user.ID,
		"login":      user.Login,
		"nickname":   user.Nickname,
		"adminLevel": user.AdminLevel,
		"status":     models.StatusOnline,
	})
}

// userUpdateRequest - тело PUT /api/users. Обновляются только переданные поля.
type userUpdateRequest struct {
	UserID      string  `json:"userId"`
	Nickname    *string `json:"nickname"`
	AdminLevel  *int    `json:"admin_level"`
	MonthlyNorm *int    `json:"monthly_norm"`
	Status      *string `json:"status"`
}

// UpdateUser применяет частичное обновление пользователя.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Ошибка валидации: некорректный JSON")
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "Не указан ID пользователя")
		return
	}

	patch := db.UserPatch{
		AdminLevel:  req.AdminLevel,
		MonthlyNorm: req.MonthlyNorm,
	}
	// Пустые строки исторически трактуются как "поле не передано".
	if req.Nickname != nil && *req.Nickname != "" {
		patch.Nickname = req.Nickname
	}
	if req.Status != nil && *req.Status != "" {
		patch.Status = req.Status
	}

	if patch.IsEmpty() {
		writeJSONError(w, http.StatusBadRequest, "Нет данных для обновления")
		return
	}

	if _, err := db.UpdateUser(req.UserID, patch); err != nil {
		internalError(err).write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Пользователь обновлен"})
}
