package api

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"adminpanel/internal/db"
	"adminpanel/internal/models"
)

// ExportUsers генерирует Excel-отчет по пользователям: лист со сводкой
// (итоги времени, нормы, блокировки) и лист с помесячной статистикой.
func ExportUsers(w http.ResponseWriter, _ *http.Request) {
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

	f := excelize.NewFile()
	sheetName := "Пользователи"
	index, _ := f.NewSheet(sheetName)
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"ID", "Логин", "Никнейм", "Уровень доступа", "Статус",
		"Онлайн всего", "AFK всего", "Оффлайн всего", "Месячная норма",
		"Заблокирован", "Последняя активность", "Создан"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, u := range users {
		row := rowIndex + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), u.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), u.Login)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), u.Nickname)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), u.AdminLevel)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), u.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), intOrZero(u.TotalOnlineTime))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), intOrZero(u.TotalAfkTime))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), intOrZero(u.TotalOfflineTime))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), normOrDefault(u.MonthlyNorm))
		if u.IsBlocked {
			f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), "да")
		} else {
			f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), "нет")
		}
		if u.LastActivity.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), u.LastActivity.Time.UTC().Format("02.01.2006 15:04"))
		}
		if u.CreatedAt.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), u.CreatedAt.Time.UTC().Format("02.01.2006 15:04"))
		}
	}

	monthlySheet := "Помесячно"
	f.NewSheet(monthlySheet)
	monthlyHeaders := []string{"ID пользователя", "Логин", "Месяц", "Онлайн", "AFK", "Оффлайн"}
	for i, header := range monthlyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(monthlySheet, cell, header)
	}

	monthlyRow := 2
	for _, u := range users {
		maps, ok := allMaps[u.ID]
		if !ok {
			continue
		}
		for _, month := range sortedMonths(maps) {
			f.SetCellValue(monthlySheet, fmt.Sprintf("A%d", monthlyRow), u.ID)
			f.SetCellValue(monthlySheet, fmt.Sprintf("B%d", monthlyRow), u.Login)
			f.SetCellValue(monthlySheet, fmt.Sprintf("C%d", monthlyRow), month)
			f.SetCellValue(monthlySheet, fmt.Sprintf("D%d", monthlyRow), maps.Online[month])
			f.SetCellValue(monthlySheet, fmt.Sprintf("E%d", monthlyRow), maps.Afk[month])
			f.SetCellValue(monthlySheet, fmt.Sprintf("F%d", monthlyRow), maps.Offline[month])
			monthlyRow++
		}
	}

	filename := fmt.Sprintf("users_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := f.Write(w); err != nil {
		log.Printf("ExportUsers: ошибка записи Excel-файла: %v", err)
	}
}

// sortedMonths возвращает объединение месяцев из трех карт по возрастанию.
func sortedMonths(maps models.MonthlyMaps) []string {
	seen := make(map[string]struct{})
	for month := range maps.Online {
		seen[month] = struct{}{}
	}
	for month := range maps.Afk {
		seen[month] = struct{}{}
	}
	for month := range maps.Offline {
		seen[month] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	sort.Strings(months)
	return months
}
