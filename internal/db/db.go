// Файл: internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq" // драйвер PostgreSQL

	"adminpanel/internal/auth"
	"adminpanel/internal/models"
)

var DB *sql.DB // Глобальная переменная для хранения подключения к БД

// Пароль супер-администратора, создаваемого при развертывании.
// Совпадает с историческим значением; смена - через обычное обновление пользователя.
const superAdminPassword = "Admin2024!SuperSecure"

// InitDB инициализирует соединение с базой данных, выполняет миграции
// и одноразовые сиды (супер-администратор, строка настроек).
func InitDB(dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL не установлена")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetMaxIdleConns(20)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("ошибка проверки соединения с базой данных: %v", err)
	}
	log.Println("Успешное подключение к базе данных.")

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции для создания таблиц: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("Откат транзакции из-за ошибки: %v", err)
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS users (
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
            total_online_time BIGINT DEFAULT 0,
            total_afk_time BIGINT DEFAULT 0,
            total_offline_time BIGINT DEFAULT 0,
            last_activity TIMESTAMP,
            last_status_timestamp TIMESTAMP,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS user_monthly_stats (
            id SERIAL PRIMARY KEY,
            user_id TEXT REFERENCES users(id),
            month TEXT NOT NULL,
            online_time BIGINT DEFAULT 0,
            afk_time BIGINT DEFAULT 0,
            offline_time BIGINT DEFAULT 0,
            UNIQUE (user_id, month)
        );
        CREATE TABLE IF NOT EXISTS activity_records (
            id SERIAL PRIMARY KEY,
            user_id TEXT,
            activity_type TEXT NOT NULL,
            duration BIGINT,
            timestamp TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS system_settings (
            id SERIAL PRIMARY KEY,
            site_name TEXT,
            is_registration_open BOOLEAN DEFAULT TRUE,
            is_site_open BOOLEAN DEFAULT TRUE,
            maintenance_message TEXT,
            emergency_code TEXT,
            session_timeout INTEGER,
            afk_timeout INTEGER,
            minimum_monthly_norm INTEGER,
            created_at TIMESTAMP,
            updated_at TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS system_logs (
            id SERIAL PRIMARY KEY,
            type TEXT,
            message TEXT,
            created_at TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS system_actions (
            id TEXT PRIMARY KEY,
            admin_id TEXT,
            action TEXT,
            target TEXT,
            timestamp TIMESTAMP
        );
    `
	_, err = tx.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("ошибка создания таблиц: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("ошибка фиксации транзакции создания таблиц: %v", err)
	}
	log.Println("Создание таблиц (если не существуют) завершено.")

	if err = migrateDBSchema(); err != nil {
		return fmt.Errorf("ошибка выполнения миграции схемы: %v", err)
	}

	createIndexesSQL := `
        CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);
        CREATE INDEX IF NOT EXISTS idx_users_last_activity ON users(last_activity);
        CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
        CREATE INDEX IF NOT EXISTS idx_monthly_stats_user_id ON user_monthly_stats(user_id);
        CREATE INDEX IF NOT EXISTS idx_activity_records_user_id ON activity_records(user_id);
        CREATE INDEX IF NOT EXISTS idx_activity_records_timestamp ON activity_records(timestamp);
    `
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, errIdx := DB.Exec(trimmedStmt); errIdx != nil {
			log.Printf("Предупреждение: ошибка при создании индекса ('%s'): %v.", trimmedStmt, errIdx)
		}
	}
	log.Println("Создание индексов (если не существуют) завершено.")

	if err = SeedDefaults(); err != nil {
		return fmt.Errorf("ошибка выполнения сидов: %v", err)
	}

	log.Println("Инициализация базы данных успешно завершена.")
	return nil
}

// migrateDBSchema выполняет необходимые миграции схемы базы данных.
// Функция должна быть идемпотентной.
func migrateDBSchema() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "users.email",
			sql:  `ALTER TABLE users ADD COLUMN IF NOT EXISTS email TEXT;`,
		},
		{
			name: "users.block_reason",
			sql:  `ALTER TABLE users ADD COLUMN IF NOT EXISTS block_reason TEXT;`,
		},
		{
			name: "system_settings.emergency_code",
			sql:  `ALTER TABLE system_settings ADD COLUMN IF NOT EXISTS emergency_code TEXT;`,
		},
		{
			name: "system_settings.timeouts",
			sql: `ALTER TABLE system_settings
                  ADD COLUMN IF NOT EXISTS session_timeout INTEGER,
                  ADD COLUMN IF NOT EXISTS afk_timeout INTEGER;`,
		},
	}

	for _, migration := range migrations {
		if _, err := DB.Exec(migration.sql); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("INFO: Миграция '%s' пропущена (объект уже существует). Детали: %v", migration.name, err)
				continue
			}
			return fmt.Errorf("ошибка миграции схемы ('%s'): %v", migration.name, err)
		}
	}

	log.Println("Миграция схемы базы данных успешно выполнена (или не требовалась).")
	return nil
}

// SeedDefaults выполняет идемпотентные сиды: супер-администратор и строка
// настроек по умолчанию. Повторный запуск ничего не меняет - вставка
// супер-админа защищена уникальным ограничением на login.
func SeedDefaults() error {
	passwordHash, err := auth.HashPassword(superAdminPassword)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля супер-администратора: %w", err)
	}

	now := time.Now().UTC()
	res, err := DB.Exec(`
        INSERT INTO users (id, login, nickname, password_hash, admin_level, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        ON CONFLICT (login) DO NOTHING`,
		"superadmin_001", "superadmin", "Супер Администратор", passwordHash, 10, models.StatusOffline, now)
	if err != nil {
		return fmt.Errorf("ошибка создания супер-администратора: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if err := AddSystemLog("system", "Создан супер-администратор с логином: superadmin"); err != nil {
			return err
		}
		log.Println("Создан супер-администратор с логином superadmin.")
	}

	_, err = DB.Exec(`
        INSERT INTO system_settings (site_name, is_registration_open, is_site_open, minimum_monthly_norm, created_at, updated_at)
        SELECT $1, $2, $3, $4, $5, $5
        WHERE NOT EXISTS (SELECT 1 FROM system_settings)`,
		models.DefaultSiteName, true, true, models.DefaultMinimumMonthlyNorm, now)
	if err != nil {
		return fmt.Errorf("ошибка создания настроек по умолчанию: %w", err)
	}

	return nil
}

// CloseDB закрывает соединение с базой данных.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Соединение с базой данных закрыто.")
	}
}
