package api

import (
	"log"
	"net/http"
	"strconv"
)

// getIntParam retrieves an integer query parameter, falling back to
// defaultVal if absent, unparseable, or outside [minVal, maxVal].
func getIntParam(r *http.Request, key string, defaultVal, minVal, maxVal int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < minVal || val > maxVal {
		return defaultVal
	}
	return val
}

// getFloatParam retrieves a float query parameter with the same
// fallback-on-invalid-or-out-of-range behavior as getIntParam.
func getFloatParam(r *http.Request, key string, defaultVal, minVal, maxVal float64) float64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < minVal || val > maxVal {
		return defaultVal
	}
	return val
}

// respondWithError logs the error and sends a plain-text error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("api error [%d]: %s", code, message)
	http.Error(w, message, code)
}
