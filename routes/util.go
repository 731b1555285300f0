package routes

import (
	"net/http"

	"github.com/goccy/go-json"
)

func respondJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		panic(err)
	}
}

func MiscHealth(w http.ResponseWriter, r *http.Request) {
	respondJson(w, http.StatusOK, map[string]string{"status": "ok"})
}
