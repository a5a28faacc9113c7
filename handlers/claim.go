package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/kinship-app/kinshipbackend/graph"
	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/realtime"
	"github.com/kinship-app/kinshipbackend/repository"
)

type ClaimHandler struct {
	Engine     *graph.Engine
	Store      repository.PersonStoreInterface
	InviteRepo repository.ClaimInviteRepository
	Hub        *realtime.Hub
	InviteTTL  time.Duration
}

type createInvitePayload struct {
	Message string `json:"message"`
}

// CreateInvite issues a claim invite for an existing person in the tree.
func (ch *ClaimHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	account, ok := AccountFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	person, err := ch.Store.Get(r.Context(), personID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if person.OwnedBy != nil {
		WriteAPIError(w, http.StatusConflict, "invariant_violation", "Person is already claimed by an account")
		return
	}

	var payload createInvitePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}

	expiresAt := time.Now().Add(ch.InviteTTL)
	invite := &models.ClaimInvite{
		PersonID:           person.ID,
		Message:            strings.TrimSpace(payload.Message),
		ExpiresAt:          &expiresAt,
		IsActive:           true,
		CreatedByAccountID: account.ID,
	}
	if err := ch.InviteRepo.Create(invite); err != nil {
		log.Printf("Error creating claim invite for person %s: %v", person.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to create invite")
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

// ListInvites returns every invite issued for a person, newest first.
func (ch *ClaimHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	invites, err := ch.InviteRepo.ListByPersonID(personID)
	if err != nil {
		log.Printf("Error listing invites for person %s: %v", personID, err)
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to list invites")
		return
	}
	if invites == nil {
		invites = []models.ClaimInvite{}
	}
	writeJSON(w, http.StatusOK, invites)
}

// GetInvite lets the holder of a code inspect the invite and the person it
// refers to before claiming.
func (ch *ClaimHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	invite, err := ch.InviteRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "invite_not_found", "Invite not found")
		} else {
			log.Printf("Error fetching invite %s: %v", code, err)
			WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to fetch invite")
		}
		return
	}
	if !invite.IsValid() {
		WriteAPIError(w, http.StatusGone, "invite_expired", "Invite is no longer valid")
		return
	}

	person, err := ch.Store.Get(r.Context(), invite.PersonID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invite": invite,
		"person": person,
	})
}

// Claim redeems an invite, transferring ownership of the person to the
// authenticated account. The unowned check happens inside the engine's
// transaction, so two racing claims cannot both win.
func (ch *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	account, ok := AccountFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	invite, err := ch.InviteRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "invite_not_found", "Invite not found")
		} else {
			log.Printf("Error fetching invite %s: %v", code, err)
			WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to fetch invite")
		}
		return
	}
	if !invite.IsValid() {
		WriteAPIError(w, http.StatusGone, "invite_expired", "Invite is no longer valid")
		return
	}

	person, err := ch.Engine.ClaimOwnership(r.Context(), invite.PersonID, account.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := ch.InviteRepo.MarkClaimed(invite.ID, account.ID); err != nil {
		// ownership has transferred; the invite record is best-effort bookkeeping
		log.Printf("Error marking invite %s claimed: %v", code, err)
	}

	ch.Hub.NotifyGraphChange(realtime.EventPersonClaimed, person.ID, []string{person.ID})
	writeJSON(w, http.StatusOK, person)
}
