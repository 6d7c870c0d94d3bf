package storefront

import (
	"encoding/json"
	"net/http"

	"github.com/jogardn/fireworks-storefront/pkg/models"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithData(w http.ResponseWriter, code int, data interface{}) {
	respondWithJSON(w, code, models.Response{Success: true, Data: data})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.Response{
		Success: false,
		Message: message,
	})
}

// respondWithErrorData is a failure that still carries state for the page,
// such as per-field validation errors or the catalog view.
func respondWithErrorData(w http.ResponseWriter, code int, message string, data interface{}) {
	respondWithJSON(w, code, models.Response{
		Success: false,
		Message: message,
		Data:    data,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return decoder.Decode(v)
}
