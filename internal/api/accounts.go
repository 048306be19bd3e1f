package api

import (
	"database/sql"
	"net/http"

	"adminpanel/internal/auth"
	"adminpanel/internal/db"
	"adminpanel/internal/models"
)

// Единая реализация регистрации и входа. Оба эндпоинта (/api/auth и
// /api/users) ходят сюда; различаются только уровень доступа новых
// пользователей и форма ответа.

// registerParams параметризует регистрацию для двух исторических контрактов.
type registerParams struct {
	Login        string
	Password     string
	Nickname     string
	Email        string
	AdminLevel   int
	LogType      string // тип записи системного журнала
	LogMessage   string
	RecordAction bool // писать ли запись в system_actions
}

// registerAccount создает пользователя в одной транзакции вместе с записями
// журналов. Возвращает идентификатор нового пользователя.
func registerAccount(p registerParams) (string, *apiError) {
	passwordHash, err := auth.HashPassword(p.Password)
	if err != nil {
		return "", internalError(err)
	}

	tx, err := db.DB.Begin()
	if err != nil {
		return "", internalError(err)
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

	var taken bool
	taken, opErr = db.LoginTakenInTx(tx, p.Login)
	if opErr != nil {
		return "", internalError(opErr)
	}
	if taken {
		tx.Rollback()
		return "", &apiError{code: http.StatusBadRequest, message: "Пользователь с таким логином уже существует"}
	}

	taken, opErr = db.NicknameTakenInTx(tx, p.Nickname)
	if opErr != nil {
		return "", internalError(opErr)
	}
	if taken {
		tx.Rollback()
		return "", &apiError{code: http.StatusBadRequest, message: "Пользователь с таким никнеймом уже существует"}
	}

	userID := db.NewUserID()
	if opErr = db.CreateUserInTx(tx, userID, p.Login, p.Nickname, p.Email, passwordHash, p.AdminLevel); opErr != nil {
		return "", internalError(opErr)
	}
	if opErr = db.AddSystemLogInTx(tx, p.LogType, p.LogMessage); opErr != nil {
		return "", internalError(opErr)
	}
	if p.RecordAction {
		if opErr = db.AddSystemActionInTx(tx, "system", "Регистрация пользователя", p.Nickname); opErr != nil {
			return "", internalError(opErr)
		}
	}

	if opErr = tx.Commit(); opErr != nil {
		return "", internalError(opErr)
	}
	return userID, nil
}

// authenticateAccount проверяет учетные данные и переводит пользователя в
// online с записью в журнал активности. Порядок проверок исторический:
// неизвестный логин - 401, блокировка - 403, неверный пароль - 401.
func authenticateAccount(login, password string) (models.User, *apiError) {
	u, err := db.GetUserByLogin(login)
	if err == sql.ErrNoRows {
		return u, &apiError{code: http.StatusUnauthorized, message: "Неверные данные для входа"}
	}
	if err != nil {
		return u, internalError(err)
	}

	if u.IsBlocked {
		return u, &apiError{code: http.StatusForbidden, message: "Аккаунт заблокирован: " + u.BlockReason.String}
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return u, &apiError{code: http.StatusUnauthorized, message: "Неверные данные для входа"}
	}

	tx, err := db.DB.Begin()
	if err != nil {
		return u, internalError(err)
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

	if _, opErr = db.SetUserStatusInTx(tx, u.ID, models.StatusOnline, true); opErr != nil {
		return u, internalError(opErr)
	}
	if opErr = db.AppendActivityInTx(tx, u.ID, models.ActivityLogin, 0); opErr != nil {
		return u, internalError(opErr)
	}
	if opErr = tx.Commit(); opErr != nil {
		return u, internalError(opErr)
	}

	u.Status = models.StatusOnline
	return u, nil
}

// logoutAccount переводит пользователя в offline с записью в журнал.
// Отсутствие userID - не ошибка: контракт всегда отвечает успехом.
func logoutAccount(userID string) *apiError {
	if userID == "" {
		return nil
	}

	tx, err := db.DB.Begin()
	if err != nil {
		return internalError(err)
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

	if _, opErr = db.SetUserStatusInTx(tx, userID, models.StatusOffline, false); opErr != nil {
		return internalError(opErr)
	}
	if opErr = db.AppendActivityInTx(tx, userID, models.ActivityLogout, 0); opErr != nil {
		return internalError(opErr)
	}
	if opErr = tx.Commit(); opErr != nil {
		return internalError(opErr)
	}
	return nil
}
