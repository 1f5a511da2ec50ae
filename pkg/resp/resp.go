package resp

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func WriteJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSONResponse(w, status, ErrorResponse{Code: code, Error: msg})
}
