package handlers

import (
	"encoding/json"
	"net/http"
)

func jsonResponse(object interface{}, writer http.ResponseWriter) {
	writer.Header().Set("Content-Type", "application/json")
	resp, err := json.Marshal(object)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = writer.Write(resp)
}

// errorResponse writes the {success:false, message} payload every failing
// endpoint answers with.
func errorResponse(writer http.ResponseWriter, status int, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
