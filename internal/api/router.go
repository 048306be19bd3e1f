package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"adminpanel/internal/config"
	"adminpanel/internal/notify"
)

// Dependencies содержит зависимости для обработчиков API.
type Dependencies struct {
	Config   *config.Config
	Notifier *notify.Notifier
}

// SetupRoutes настраивает все маршруты панели.
func SetupRoutes(r chi.Router, deps Dependencies) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Метод не поддерживается")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Не найдено")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/", GetSystemInfo)
		r.Post("/", AuthAction(deps))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", GetUsers)
		r.Post("/", UsersAction(deps))
		r.Put("/", UpdateUser)
		r.Get("/export", ExportUsers)
	})

	r.Route("/api/sync", func(r chi.Router) {
		r.Get("/", GetSyncState)
		r.Post("/", SyncAction)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", GetSettings)
		r.Put("/", UpdateSettings(deps))
		r.Post("/activate-registration", ActivateRegistration)
		r.Get("/qr", PanelQR(deps))
	})
}
