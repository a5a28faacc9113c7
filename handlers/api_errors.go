package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/kinship-app/kinshipbackend/graph"
	"github.com/kinship-app/kinshipbackend/repository"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// writeEngineError maps a graph engine rejection to a client-distinguishable
// response. Every rejection kind gets its own code; nothing is silently
// dropped.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrPersonNotFound):
		WriteAPIError(w, http.StatusNotFound, "person_not_found", "Person not found")
	case errors.Is(err, graph.ErrUnknownRelationship):
		WriteAPIError(w, http.StatusBadRequest, "unknown_relationship", err.Error())
	case graph.IsInvariantViolation(err):
		WriteAPIError(w, http.StatusConflict, "invariant_violation", err.Error())
	case graph.IsIntegrityError(err):
		log.Printf("Data integrity error: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "data_integrity", err.Error())
	case errors.Is(err, repository.ErrTxConflict):
		WriteAPIError(w, http.StatusServiceUnavailable, "transient_conflict", "Concurrent update conflict, retry the request")
	case errors.Is(err, repository.ErrMalformedPerson):
		log.Printf("Malformed person record: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "data_integrity", "Stored record failed validation")
	default:
		log.Printf("Unexpected engine error: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
