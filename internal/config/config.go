// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	Port        string
	AppEnv      string
	SiteURL     string

	// Параметры необязательного Telegram-уведомителя.
	TelegramToken string
	AdminChatID   int64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Отсутствие DATABASE_URL - фатальная ошибка для всего сервиса.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          os.Getenv("PORT"),
		AppEnv:        os.Getenv("ENV"),
		SiteURL:       os.Getenv("SITE_URL"),
		TelegramToken: os.Getenv("TELEGRAM_APITOKEN"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL не установлена")
	}

	parsedURL, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %w", err)
	}
	cfg.DBHost = parsedURL.Hostname()
	cfg.DBPort = parsedURL.Port()
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	cfg.DBUser = parsedURL.User.Username()
	cfg.DBPassword, _ = parsedURL.User.Password()
	cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if chatIDStr := os.Getenv("ADMIN_CHAT_ID"); chatIDStr != "" {
		cfg.AdminChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Printf("Предупреждение: не удалось прочитать ADMIN_CHAT_ID: %v. Уведомления отключены.", err)
			cfg.AdminChatID = 0
		}
	}

	if cfg.TelegramToken == "" || cfg.AdminChatID == 0 {
		log.Println("Предупреждение: TELEGRAM_APITOKEN/ADMIN_CHAT_ID не установлены. Уведомления администратору работать не будут.")
	}
	if cfg.SiteURL == "" {
		log.Println("Предупреждение: SITE_URL не установлен. QR-код панели будет недоступен.")
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}
