package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"adminpanel/internal/models"
)

// userColumns - полный набор колонок пользователя в порядке сканирования scanUser.
const userColumns = `id, login, nickname, email, password_hash, admin_level, status,
       is_blocked, block_reason, monthly_norm,
       total_online_time, total_afk_time, total_offline_time,
       last_activity, last_status_timestamp, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Login, &u.Nickname, &u.Email, &u.PasswordHash, &u.AdminLevel, &u.Status,
		&u.IsBlocked, &u.BlockReason, &u.MonthlyNorm,
		&u.TotalOnlineTime, &u.TotalAfkTime, &u.TotalOfflineTime,
		&u.LastActivity, &u.LastStatusTimestamp, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// LoginTakenInTx проверяет занятость логина внутри транзакции регистрации.
func LoginTakenInTx(tx *sql.Tx, login string) (bool, error) {
	var exists bool
	err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE login=$1)", login).Scan(&exists)
	if err != nil {
		log.Printf("LoginTakenInTx: ошибка проверки логина %q: %v", login, err)
	}
	return exists, err
}

// NicknameTakenInTx проверяет занятость никнейма внутри транзакции регистрации.
func NicknameTakenInTx(tx *sql.Tx, nickname string) (bool, error) {
	var exists bool
	err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE nickname=$1)", nickname).Scan(&exists)
	if err != nil {
		log.Printf("NicknameTakenInTx: ошибка проверки никнейма %q: %v", nickname, err)
	}
	return exists, err
}

// CreateUserInTx вставляет нового пользователя. Статус всегда offline,
// время регистрации - момент вызова.
func CreateUserInTx(tx *sql.Tx, id, login, nickname, email, passwordHash string, adminLevel int) error {
	now := time.Now().UTC()
	emailVal := sql.NullString{String: email, Valid: email != ""}
	_, err := tx.Exec(`
        INSERT INTO users (id, login, nickname, email, password_hash, admin_level, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		id, login, nickname, emailVal, passwordHash, adminLevel, models.StatusOffline, now)
	if err != nil {
		log.Printf("CreateUserInTx: ошибка вставки пользователя %q: %v", login, err)
	}
	return err
}

// GetUserByLogin извлекает пользователя по логину.
// Возвращает sql.ErrNoRows, если пользователь не найден.
func GetUserByLogin(login string) (models.User, error) {
	u, err := scanUser(DB.QueryRow("SELECT "+userColumns+" FROM users WHERE login=$1", login))
	if err != nil && err != sql.ErrNoRows {
		log.Printf("GetUserByLogin: ошибка получения пользователя %q: %v", login, err)
	}
	return u, err
}

// GetUserByID извлекает пользователя по идентификатору.
func GetUserByID(id string) (models.User, error) {
	u, err := scanUser(DB.QueryRow("SELECT "+userColumns+" FROM users WHERE id=$1", id))
	if err != nil && err != sql.ErrNoRows {
		log.Printf("GetUserByID: ошибка получения пользователя %q: %v", id, err)
	}
	return u, err
}

// ListUsers возвращает всех пользователей, новые - первыми.
func ListUsers() ([]models.User, error) {
	rows, err := DB.Query("SELECT " + userColumns + " FROM users ORDER BY created_at DESC")
	if err != nil {
		log.Printf("ListUsers: ошибка запроса пользователей: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, errScan := scanUser(rows)
		if errScan != nil {
			log.Printf("ListUsers: ошибка сканирования строки: %v", errScan)
			return nil, errScan
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SyncUsers возвращает компактную проекцию пользователей для инкрементального
// опроса. Пустой since означает "все пользователи".
func SyncUsers(since string) ([]models.User, error) {
	query := `SELECT id, login, nickname, status, last_activity,
               total_online_time, total_afk_time, total_offline_time,
               admin_level, is_blocked
        FROM users`
	var args []interface{}
	if since != "" {
		query += " WHERE last_activity > $1 OR updated_at > $1"
		args = append(args, since)
	}
	query += " ORDER BY last_activity DESC"

	rows, err := DB.Query(query, args...)
	if err != nil {
		log.Printf("SyncUsers: ошибка запроса пользователей: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if errScan := rows.Scan(&u.ID, &u.Login, &u.Nickname, &u.Status, &u.LastActivity,
			&u.TotalOnlineTime, &u.TotalAfkTime, &u.TotalOfflineTime,
			&u.AdminLevel, &u.IsBlocked); errScan != nil {
			log.Printf("SyncUsers: ошибка сканирования строки: %v", errScan)
			return nil, errScan
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers возвращает общее число пользователей и число пользователей онлайн.
func CountUsers() (total int, online int, err error) {
	if err = DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		log.Printf("CountUsers: ошибка подсчета пользователей: %v", err)
		return 0, 0, err
	}
	if err = DB.QueryRow("SELECT COUNT(*) FROM users WHERE status=$1", models.StatusOnline).Scan(&online); err != nil {
		log.Printf("CountUsers: ошибка подсчета онлайн-пользователей: %v", err)
		return 0, 0, err
	}
	return total, online, nil
}

// SetUserStatusInTx обновляет статус и отметки времени пользователя.
// touchStatusTimestamp управляет обновлением last_status_timestamp: при входе
// и смене статуса отметка входа в статус обновляется, при выходе - нет.
// Возвращает число затронутых строк (0 - пользователь не найден).
func SetUserStatusInTx(tx *sql.Tx, userID, status string, touchStatusTimestamp bool) (int64, error) {
	now := time.Now().UTC()
	var res sql.Result
	var err error
	if touchStatusTimestamp {
		res, err = tx.Exec(`
            UPDATE users SET status=$1, last_activity=$2, last_status_timestamp=$2, updated_at=$2
            WHERE id=$3`, status, now, userID)
	} else {
		res, err = tx.Exec(`
            UPDATE users SET status=$1, last_activity=$2, updated_at=$2
            WHERE id=$3`, status, now, userID)
	}
	if err != nil {
		log.Printf("SetUserStatusInTx: ошибка обновления статуса пользователя %q: %v", userID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// ReplaceUserTotalsInTx перезаписывает (не суммирует) накопленные итоги
// времени пользователя значениями, присланными клиентом.
func ReplaceUserTotalsInTx(tx *sql.Tx, userID string, online, afk, offline int64) (int64, error) {
	now := time.Now().UTC()
	res, err := tx.Exec(`
        UPDATE users
        SET total_online_time=$1, total_afk_time=$2, total_offline_time=$3,
            last_activity=$4, updated_at=$4
        WHERE id=$5`, online, afk, offline, now, userID)
	if err != nil {
		log.Printf("ReplaceUserTotalsInTx: ошибка обновления итогов пользователя %q: %v", userID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// BulkSyncUserInTx обновляет статус и суммарное онлайн-время одного
// пользователя в рамках массовой синхронизации.
func BulkSyncUserInTx(tx *sql.Tx, userID, status string, totalOnline int64) (int64, error) {
	now := time.Now().UTC()
	res, err := tx.Exec(`
        UPDATE users SET status=$1, total_online_time=$2, last_activity=$3, updated_at=$3
        WHERE id=$4`, status, totalOnline, now, userID)
	if err != nil {
		log.Printf("BulkSyncUserInTx: ошибка обновления пользователя %q: %v", userID, err)
		return 0, err
	}
	return res.RowsAffected()
}

// UserPatch - явное представление частичного обновления пользователя.
// Обновляются только заполненные поля.
type UserPatch struct {
	Nickname    *string
	AdminLevel  *int
	MonthlyNorm *int
	Status      *string
}

// IsEmpty сообщает, что ни одно поле не заполнено.
func (p UserPatch) IsEmpty() bool {
	return p.Nickname == nil && p.AdminLevel == nil && p.MonthlyNorm == nil && p.Status == nil
}

// UpdateUser применяет частичное обновление. Возвращает число затронутых строк.
func UpdateUser(userID string, patch UserPatch) (int64, error) {
	assignments := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Nickname != nil {
		add("nickname", *patch.Nickname)
	}
	if patch.AdminLevel != nil {
		add("admin_level", *patch.AdminLevel)
	}
	if patch.MonthlyNorm != nil {
		add("monthly_norm", *patch.MonthlyNorm)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if len(assignments) == 0 {
		return 0, fmt.Errorf("пустое обновление пользователя %q", userID)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id=$%d", strings.Join(assignments, ", "), len(args))
	res, err := DB.Exec(query, args...)
	if err != nil {
		log.Printf("UpdateUser: ошибка обновления пользователя %q: %v", userID, err)
		return 0, err
	}
	return res.RowsAffected()
}
