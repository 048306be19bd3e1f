// Пакет dbtest поднимает файловую SQLite-базу со структурой, эквивалентной
// боевой схеме, и подставляет ее в пакет db на время теста.
package dbtest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"adminpanel/internal/db"
)

const schemaSQL = `
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    login TEXT UNIQUE NOT NULL,
    nickname TEXT UNIQUE NOT NULL,
    email TEXT,
    password_hash TEXT NOT NULL,
    admin_level INTEGER DEFAULT 0,
    status TEXT DEFAULT 'offline',
    is_blocked BOOLEAN DEFAULT FALSE,
    block_reason TEXT,
    monthly_norm INTEGER DEFAULT 160,
    total_online_time INTEGER DEFAULT 0,
    total_afk_time INTEGER DEFAULT 0,
    total_offline_time INTEGER DEFAULT 0,
    last_activity DATETIME,
    last_status_timestamp DATETIME,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE TABLE user_monthly_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT REFERENCES users(id),
    month TEXT NOT NULL,
    online_time INTEGER DEFAULT 0,
    afk_time INTEGER DEFAULT 0,
    offline_time INTEGER DEFAULT 0,
    UNIQUE (user_id, month)
);
CREATE TABLE activity_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT,
    activity_type TEXT NOT NULL,
    duration INTEGER,
    timestamp DATETIME
);
CREATE TABLE system_settings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_name TEXT,
    is_registration_open BOOLEAN DEFAULT TRUE,
    is_site_open BOOLEAN DEFAULT TRUE,
    maintenance_message TEXT,
    emergency_code TEXT,
    session_timeout INTEGER,
    afk_timeout INTEGER,
    minimum_monthly_norm INTEGER,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE TABLE system_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT,
    message TEXT,
    created_at DATETIME
);
CREATE TABLE system_actions (
    id TEXT PRIMARY KEY,
    admin_id TEXT,
    action TEXT,
    target TEXT,
    timestamp DATETIME
);
`

// Setup открывает тестовую базу во временном каталоге, создает схему и
// подменяет db.DB. По окончании теста прежнее значение восстанавливается.
func Setup(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(t.TempDir(), "app.db"))
	sqdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("открытие тестовой базы: %v", err)
	}
	sqdb.SetMaxOpenConns(1)

	if _, err := sqdb.Exec(schemaSQL); err != nil {
		t.Fatalf("создание схемы тестовой базы: %v", err)
	}

	prev := db.DB
	db.DB = sqdb
	t.Cleanup(func() {
		db.DB = prev
		_ = sqdb.Close()
	})
	return sqdb
}
