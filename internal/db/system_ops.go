package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddSystemLog добавляет запись в системный журнал вне транзакции.
func AddSystemLog(logType, message string) error {
	_, err := DB.Exec(`
        INSERT INTO system_logs (type, message, created_at)
        VALUES ($1, $2, $3)`, logType, message, time.Now().UTC())
	if err != nil {
		log.Printf("AddSystemLog: ошибка записи в системный журнал: %v", err)
	}
	return err
}

// AddSystemLogInTx добавляет запись в системный журнал внутри транзакции запроса.
func AddSystemLogInTx(tx *sql.Tx, logType, message string) error {
	_, err := tx.Exec(`
        INSERT INTO system_logs (type, message, created_at)
        VALUES ($1, $2, $3)`, logType, message, time.Now().UTC())
	if err != nil {
		log.Printf("AddSystemLogInTx: ошибка записи в системный журнал: %v", err)
	}
	return err
}

// AddSystemActionInTx фиксирует административное/системное действие.
func AddSystemActionInTx(tx *sql.Tx, adminID, action, target string) error {
	id := NewActionID()
	_, err := tx.Exec(`
        INSERT INTO system_actions (id, admin_id, action, target, timestamp)
        VALUES ($1, $2, $3, $4, $5)`, id, adminID, action, target, time.Now().UTC())
	if err != nil {
		log.Printf("AddSystemActionInTx: ошибка записи действия %q: %v", action, err)
	}
	return err
}

// NewUserID генерирует идентификатор пользователя в историческом формате
// user_<unix-ms>_<случайный суффикс>.
func NewUserID() string {
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

// NewActionID генерирует идентификатор системного действия.
func NewActionID() string {
	return fmt.Sprintf("action_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
