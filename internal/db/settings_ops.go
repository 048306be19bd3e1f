package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"adminpanel/internal/models"
)

const settingsColumns = `id, site_name, is_registration_open, is_site_open,
       maintenance_message, emergency_code, session_timeout, afk_timeout,
       minimum_monthly_norm, created_at, updated_at`

func scanSettings(row rowScanner) (models.Settings, error) {
	var s models.Settings
	err := row.Scan(&s.ID, &s.SiteName, &s.IsRegistrationOpen, &s.IsSiteOpen,
		&s.MaintenanceMessage, &s.EmergencyCode, &s.SessionTimeout, &s.AfkTimeout,
		&s.MinimumMonthlyNorm, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetOrCreateSettings возвращает единственную строку настроек (первая по id),
// создавая ее со значениями по умолчанию, если таблица пуста.
func GetOrCreateSettings() (models.Settings, error) {
	s, err := scanSettings(DB.QueryRow(
		"SELECT " + settingsColumns + " FROM system_settings ORDER BY id LIMIT 1"))
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		log.Printf("GetOrCreateSettings: ошибка чтения настроек: %v", err)
		return s, err
	}

	now := time.Now().UTC()
	s, err = scanSettings(DB.QueryRow(`
        INSERT INTO system_settings (site_name, is_registration_open, is_site_open, minimum_monthly_norm, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING `+settingsColumns,
		models.DefaultSiteName, true, true, models.DefaultMinimumMonthlyNorm, now))
	if err != nil {
		log.Printf("GetOrCreateSettings: ошибка создания настроек по умолчанию: %v", err)
		return s, err
	}
	log.Println("Создана строка настроек по умолчанию.")
	return s, nil
}

// RegistrationOpen сообщает, открыта ли регистрация. Отсутствие строки
// настроек трактуется как "открыта" (значение по умолчанию).
func RegistrationOpen() (bool, error) {
	var open bool
	err := DB.QueryRow("SELECT is_registration_open FROM system_settings ORDER BY id LIMIT 1").Scan(&open)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		log.Printf("RegistrationOpen: ошибка чтения настроек: %v", err)
		return true, err
	}
	return open, nil
}

// SettingsPatch - явное представление частичного обновления настроек.
// nil-поля не трогаются; строковые поля с пустым значением тоже (исторический
// контракт: пустое имя сайта и пустое сообщение не затирают сохраненные).
type SettingsPatch struct {
	IsRegistrationOpen *bool
	SiteName           *string
	IsSiteOpen         *bool
	MaintenanceMessage *string
	SessionTimeout     *int
	AfkTimeout         *int
	MinimumMonthlyNorm *int
}

type settingsAssignment struct {
	column string
	value  interface{}
}

func (p SettingsPatch) assignments() []settingsAssignment {
	var out []settingsAssignment
	if p.IsRegistrationOpen != nil {
		out = append(out, settingsAssignment{"is_registration_open", *p.IsRegistrationOpen})
	}
	if p.SiteName != nil && *p.SiteName != "" {
		out = append(out, settingsAssignment{"site_name", *p.SiteName})
	}
	if p.IsSiteOpen != nil {
		out = append(out, settingsAssignment{"is_site_open", *p.IsSiteOpen})
	}
	if p.MaintenanceMessage != nil && *p.MaintenanceMessage != "" {
		out = append(out, settingsAssignment{"maintenance_message", *p.MaintenanceMessage})
	}
	if p.SessionTimeout != nil {
		out = append(out, settingsAssignment{"session_timeout", *p.SessionTimeout})
	}
	if p.AfkTimeout != nil {
		out = append(out, settingsAssignment{"afk_timeout", *p.AfkTimeout})
	}
	if p.MinimumMonthlyNorm != nil {
		out = append(out, settingsAssignment{"minimum_monthly_norm", *p.MinimumMonthlyNorm})
	}
	return out
}

// IsEmpty сообщает, что патч не затрагивает ни одного распознанного поля.
func (p SettingsPatch) IsEmpty() bool {
	return len(p.assignments()) == 0
}

// UpdateSettings применяет частичное обновление настроек в одной транзакции.
// Если строки настроек еще нет, она создается со значениями по умолчанию,
// поверх которых накладывается патч. Всегда обновляется updated_at.
// Возвращает обновленную строку и список измененных колонок.
func UpdateSettings(patch SettingsPatch) (models.Settings, []string, error) {
	var s models.Settings
	assignments := patch.assignments()
	if len(assignments) == 0 {
		return s, nil, fmt.Errorf("пустое обновление настроек")
	}

	tx, err := DB.Begin()
	if err != nil {
		log.Printf("UpdateSettings: ошибка начала транзакции: %v", err)
		return s, nil, err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	changed := make([]string, 0, len(assignments))
	for _, a := range assignments {
		changed = append(changed, a.column)
	}

	var settingsID int64
	opErr = tx.QueryRow("SELECT id FROM system_settings ORDER BY id LIMIT 1").Scan(&settingsID)
	if opErr == sql.ErrNoRows {
		// Строки еще нет - создаем с дефолтами, патч накладывается ниже.
		opErr = tx.QueryRow(`
            INSERT INTO system_settings (site_name, is_registration_open, is_site_open, minimum_monthly_norm, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $5)
            RETURNING id`,
			models.DefaultSiteName, true, true, models.DefaultMinimumMonthlyNorm, now).Scan(&settingsID)
		if opErr != nil {
			log.Printf("UpdateSettings: ошибка создания настроек: %v", opErr)
			return s, nil, opErr
		}
	} else if opErr != nil {
		log.Printf("UpdateSettings: ошибка чтения настроек: %v", opErr)
		return s, nil, opErr
	}

	setClauses := make([]string, 0, len(assignments)+1)
	args := make([]interface{}, 0, len(assignments)+2)
	for _, a := range assignments {
		args = append(args, a.value)
		setClauses = append(setClauses, fmt.Sprintf("%s=$%d", a.column, len(args)))
	}
	args = append(args, now)
	setClauses = append(setClauses, fmt.Sprintf("updated_at=$%d", len(args)))
	args = append(args, settingsID)

	query := fmt.Sprintf("UPDATE system_settings SET %s WHERE id=$%d RETURNING %s",
		strings.Join(setClauses, ", "), len(args), settingsColumns)
	s, opErr = scanSettings(tx.QueryRow(query, args...))
	if opErr != nil {
		log.Printf("UpdateSettings: ошибка обновления настроек: %v", opErr)
		return s, nil, opErr
	}

	opErr = AddSystemLogInTx(tx, "system", "Обновлены настройки системы: "+strings.Join(changed, ", "))
	if opErr != nil {
		return s, nil, opErr
	}

	opErr = tx.Commit()
	if opErr != nil {
		log.Printf("UpdateSettings: ошибка фиксации транзакции: %v", opErr)
		return s, nil, opErr
	}
	return s, changed, nil
}

// ActivateRegistration принудительно открывает регистрацию (разовая
// административная операция, исторический эндпоинт).
func ActivateRegistration() error {
	tx, err := DB.Begin()
	if err != nil {
		log.Printf("ActivateRegistration: ошибка начала транзакции: %v", err)
		return err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, opErr := tx.Exec(`
        UPDATE system_settings SET is_registration_open=$1, updated_at=$2
        WHERE id = (SELECT id FROM system_settings ORDER BY id LIMIT 1)`, true, now)
	if opErr != nil {
		log.Printf("ActivateRegistration: ошибка обновления настроек: %v", opErr)
		return opErr
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, opErr = tx.Exec(`
            INSERT INTO system_settings (site_name, is_registration_open, is_site_open, minimum_monthly_norm, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $5)`,
			models.DefaultSiteName, true, true, models.DefaultMinimumMonthlyNorm, now)
		if opErr != nil {
			log.Printf("ActivateRegistration: ошибка создания настроек: %v", opErr)
			return opErr
		}
	}

	opErr = AddSystemLogInTx(tx, "system", "Регистрация активирована через API")
	if opErr != nil {
		return opErr
	}

	opErr = tx.Commit()
	if opErr != nil {
		log.Printf("ActivateRegistration: ошибка фиксации транзакции: %v", opErr)
	}
	return opErr
}
