package handler

import "net/http"

// HandleNotFound answers any unmatched route with the standard envelope.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse("route not found"))
}
