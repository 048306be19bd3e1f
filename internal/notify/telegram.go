package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// Notifier отправляет служебные уведомления администратору панели в Telegram.
// Если токен или чат не настроены, уведомитель работает как no-op, чтобы
// основной контракт API никак не зависел от его доступности.
type Notifier struct {
	api         *tgbotapi.BotAPI
	adminChatID int64
}

// Глобальный экземпляр уведомителя для пакета.
var Client *Notifier

// InitNotifier инициализирует Telegram-уведомитель.
// Пустой token или нулевой adminChatID отключают отправку.
func InitNotifier(token string, adminChatID int64, debug bool) error {
	Client = &Notifier{adminChatID: adminChatID}
	if token == "" || adminChatID == 0 {
		log.Println("Уведомитель Telegram отключен (нет токена или чата администратора).")
		return nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug
	log.Printf("Уведомитель авторизован как аккаунт %s", api.Self.UserName)

	Client.api = api
	return nil
}

// Enabled сообщает, будет ли уведомление реально отправлено.
func (n *Notifier) Enabled() bool {
	return n != nil && n.api != nil && n.adminChatID != 0
}

func (n *Notifier) send(text string) {
	if !n.Enabled() {
		return
	}
	msg := tgbotapi.NewMessage(n.adminChatID, text)
	if _, err := n.api.Send(msg); err != nil {
		// Ошибка доставки не должна влиять на обработку запроса.
		log.Printf("Notifier: ошибка отправки уведомления: %v", err)
	}
}

// UserRegistered уведомляет о появлении нового пользователя.
func (n *Notifier) UserRegistered(nickname, login string) {
	n.send(fmt.Sprintf("Зарегистрирован новый пользователь: %s (%s)", nickname, login))
}

// SettingsChanged уведомляет об изменении настроек системы.
func (n *Notifier) SettingsChanged(fields string) {
	n.send(fmt.Sprintf("Обновлены настройки системы: %s", fields))
}
