package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Вспомогательные функции для JSON-ответов. Исторический контракт: ошибки
// отдаются телом {"error": "..."}, заголовок Access-Control-Allow-Origin
// ставится на каждый ответ.
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("writeJSON: ошибка кодирования ответа: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// apiError - ошибка уровня обработчика с HTTP-статусом.
type apiError struct {
	code    int
	message string
}

func (e *apiError) write(w http.ResponseWriter) {
	writeJSONError(w, e.code, e.message)
}

func internalError(err error) *apiError {
	return &apiError{code: http.StatusInternalServerError, message: "Внутренняя ошибка сервера: " + err.Error()}
}
