package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kinship-app/kinshipbackend/graph"
	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/realtime"
	"github.com/kinship-app/kinshipbackend/repository"
)

type PersonHandler struct {
	Engine     *graph.Engine
	Store      repository.PersonStoreInterface
	InviteRepo repository.ClaimInviteRepository
	Hub        *realtime.Hub
	InviteTTL  time.Duration
}

// CreateRoot creates a seed person that starts a new tree.
func (ph *PersonHandler) CreateRoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile models.Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Profile.FirstName) == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Missing required field: profile.first_name")
		return
	}

	person, err := ph.Engine.CreateRoot(r.Context(), req.Profile)
	if err != nil {
		log.Printf("Error creating root person: %v", err)
		writeEngineError(w, err)
		return
	}

	ph.Hub.NotifyGraphChange(realtime.EventPersonCreated, person.ID, []string{person.ID})
	writeJSON(w, http.StatusCreated, person)
}

// ListRoots returns every seed person, one per tree.
func (ph *PersonHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	people, err := ph.Store.ListRoots(r.Context())
	if err != nil {
		log.Printf("Error listing roots: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to retrieve roots")
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

// Search finds people by name.
func (ph *PersonHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Missing required query parameter: q")
		return
	}

	people, err := ph.Store.SearchByName(r.Context(), query)
	if err != nil {
		log.Printf("Error searching people for %q: %v", query, err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to search people")
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

// Stats returns aggregate counts over the whole graph.
func (ph *PersonHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := ph.Store.Stats(r.Context())
	if err != nil {
		log.Printf("Error computing tree stats: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetPerson fetches a single person by id.
func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	person, err := ph.Store.Get(r.Context(), personID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// UpdateProfile merges a partial profile into a person. The previous profile
// is returned so the caller can schedule deletion of storage keys the update
// made unreferenced.
func (ph *PersonHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	var delta models.ProfileDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}

	person, previous, err := ph.Engine.UpdateProfile(r.Context(), personID, delta)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	ph.Hub.NotifyGraphChange(realtime.EventPersonUpdated, person.ID, []string{person.ID})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"person":           person,
		"previous_profile": previous,
	})
}

type addConnectionRequest struct {
	Relationship  string         `json:"relationship"`
	Profile       models.Profile `json:"profile"`
	InviteMessage string         `json:"invite_message,omitempty"`
}

// AddConnection adds a relative to an existing person. If an invite message is
// supplied, a claim invite for the newly created person is returned alongside
// the mutation result.
func (ph *PersonHandler) AddConnection(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "person_id")

	account, ok := AccountFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req addConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}

	rel, err := graph.ParseRelationship(req.Relationship)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	result, err := ph.Engine.AddConnection(r.Context(), sourceID, rel, req.Profile, account.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	affectedIDs := make([]string, 0, len(result.Affected))
	for _, p := range result.Affected {
		affectedIDs = append(affectedIDs, p.ID)
	}
	ph.Hub.NotifyGraphChange(realtime.EventPersonCreated, result.NewPersonID, affectedIDs)

	response := map[string]interface{}{
		"new_person_id": result.NewPersonID,
		"affected":      result.Affected,
	}

	if strings.TrimSpace(req.InviteMessage) != "" {
		expiresAt := time.Now().Add(ph.InviteTTL)
		invite := &models.ClaimInvite{
			PersonID:           result.NewPersonID,
			Message:            req.InviteMessage,
			ExpiresAt:          &expiresAt,
			IsActive:           true,
			CreatedByAccountID: account.ID,
		}
		if err := ph.InviteRepo.Create(invite); err != nil {
			// the connection is already committed; report it without the invite
			log.Printf("Error creating claim invite for person %s: %v", result.NewPersonID, err)
		} else {
			response["invite"] = invite
		}
	}

	writeJSON(w, http.StatusCreated, response)
}

// DeletePerson removes a leaf person and returns the repaired neighbors.
func (ph *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	repaired, err := ph.Engine.DeletePerson(r.Context(), personID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	affectedIDs := make([]string, 0, len(repaired))
	for _, p := range repaired {
		affectedIDs = append(affectedIDs, p.ID)
	}
	ph.Hub.NotifyGraphChange(realtime.EventPersonDeleted, personID, affectedIDs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":  personID,
		"repaired": repaired,
	})
}

// GetTree returns the bounded visible window of the graph around a person.
// Clients may narrow the window below the configured defaults but not widen
// it past them.
func (ph *PersonHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	maxDistance := ph.Engine.MaxDistance
	if v := r.URL.Query().Get("distance"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid distance parameter")
			return
		}
		if parsed < maxDistance {
			maxDistance = parsed
		}
	}

	people, err := ph.Engine.FetchUpToDistance(r.Context(), personID, maxDistance, ph.Engine.SiblingDescentCutoff)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}
