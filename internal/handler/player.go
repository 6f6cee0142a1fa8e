package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sundayleague/league-api/internal/model"
	"github.com/sundayleague/league-api/internal/service"
)

// PlayerHandler serves the public player endpoints and the admin ones.
// Route-level middleware decides who may call what; the handler itself
// never checks roles.
type PlayerHandler struct {
	players *service.PlayerService
	logger  *slog.Logger
}

func NewPlayerHandler(players *service.PlayerService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{players: players, logger: logger}
}

// PlayerRequest is the body of POST /players and POST /admin/players.
// Stats are ignored for self-registration.
type PlayerRequest struct {
	FirstName       string  `json:"first_name" validate:"required,max=50"`
	LastName        string  `json:"last_name" validate:"required,max=50"`
	Position        string  `json:"position" validate:"required"`
	JerseyNumber    *int    `json:"jersey_number" validate:"omitempty,gte=0,lte=99"`
	Email           *string `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,min=7,max=20"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,max=500"`
	IsCaptain       bool    `json:"is_captain"`
	StatsRequest
}

func (req PlayerRequest) toInput() service.PlayerInput {
	return service.PlayerInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Position:        model.Position(req.Position),
		JerseyNumber:    req.JerseyNumber,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		ProfileImageURL: req.ProfileImageURL,
		IsCaptain:       req.IsCaptain,
		Stats:           req.StatsRequest.toStats(),
	}
}

// StatsRequest is the body of PUT /admin/players/{id}/stats. Omitted
// counters are taken as zero.
type StatsRequest struct {
	Goals       int  `json:"goals" validate:"gte=0"`
	Assists     int  `json:"assists" validate:"gte=0"`
	CleanSheets *int `json:"clean_sheets" validate:"omitempty,gte=0"`
	Appearances int  `json:"appearances" validate:"gte=0"`
	YellowCards int  `json:"yellow_cards" validate:"gte=0"`
	RedCards    int  `json:"red_cards" validate:"gte=0"`
}

func (req StatsRequest) toStats() model.PlayerStats {
	return model.PlayerStats{
		Goals:       req.Goals,
		Assists:     req.Assists,
		CleanSheets: req.CleanSheets,
		Appearances: req.Appearances,
		YellowCards: req.YellowCards,
		RedCards:    req.RedCards,
	}
}

// PatchRequest is the body of PATCH /admin/players/{id}. Absent fields are
// left untouched.
type PatchRequest struct {
	FirstName       *string    `json:"first_name" validate:"omitempty,max=50"`
	LastName        *string    `json:"last_name" validate:"omitempty,max=50"`
	Position        *string    `json:"position"`
	JerseyNumber    *int       `json:"jersey_number" validate:"omitempty,gte=0,lte=99"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string    `json:"phone_number" validate:"omitempty,min=7,max=20"`
	ProfileImageURL *string    `json:"profile_image_url" validate:"omitempty,max=500"`
	IsCaptain       *bool      `json:"is_captain"`
	Goals           *int       `json:"goals" validate:"omitempty,gte=0"`
	Assists         *int       `json:"assists" validate:"omitempty,gte=0"`
	CleanSheets     *int       `json:"clean_sheets" validate:"omitempty,gte=0"`
	Appearances     *int       `json:"appearances" validate:"omitempty,gte=0"`
	YellowCards     *int       `json:"yellow_cards" validate:"omitempty,gte=0"`
	RedCards        *int       `json:"red_cards" validate:"omitempty,gte=0"`
	LeftAt          *time.Time `json:"left_at"`
}

func (req PatchRequest) toPatch() model.PlayerPatch {
	patch := model.PlayerPatch{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		JerseyNumber:    req.JerseyNumber,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		ProfileImageURL: req.ProfileImageURL,
		IsCaptain:       req.IsCaptain,
		Goals:           req.Goals,
		Assists:         req.Assists,
		CleanSheets:     req.CleanSheets,
		Appearances:     req.Appearances,
		YellowCards:     req.YellowCards,
		RedCards:        req.RedCards,
		LeftAt:          req.LeftAt,
	}
	if req.Position != nil {
		pos := model.Position(*req.Position)
		patch.Position = &pos
	}
	return patch
}

// HandleRequestToJoin records a self-registration in PENDING.
//
// HTTP: POST /players
func (h *PlayerHandler) HandleRequestToJoin(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.players.RequestToJoin(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, p)
}

// HandleCreate adds a player directly to the roster.
//
// HTTP: POST /admin/players
func (h *PlayerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.players.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, p)
}

// HandleList returns every player, newest first.
//
// HTTP: GET /players
func (h *PlayerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, players)
}

// HandleRoster returns active players, top scorers first.
//
// HTTP: GET /players/roster and GET /players/active-players
func (h *PlayerHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.Roster(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, players)
}

// HandleRequests returns pending join requests.
//
// HTTP: GET /players/requests
func (h *PlayerHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.Requests(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, players)
}

// HandleGet returns one player.
//
// HTTP: GET /players/{id}
func (h *PlayerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// HandleApprove activates a player.
//
// HTTP: PUT /players/{id}/approve
func (h *PlayerHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// HandleReject deletes a join request and echoes it back.
//
// HTTP: DELETE /players/{id}/reject
func (h *PlayerHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// HandleRemove deletes a player and echoes it back.
//
// HTTP: DELETE /admin/players/{id}
func (h *PlayerHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /admin/players/{id}
func (h *PlayerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.players.Update(r.Context(), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// HandleUpdateStats overwrites the aggregated stats.
//
// HTTP: PUT /admin/players/{id}/stats
func (h *PlayerHandler) HandleUpdateStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.players.UpdateStats(r.Context(), chi.URLParam(r, "id"), req.toStats())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
