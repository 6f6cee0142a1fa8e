package model

import (
	"time"

	"github.com/sundayleague/league-api/internal/apperror"
)

// Position is one of the twelve field positions a player can be listed at.
type Position string

const (
	PositionST  Position = "ST"
	PositionLW  Position = "LW"
	PositionRW  Position = "RW"
	PositionCDM Position = "CDM"
	PositionCM  Position = "CM"
	PositionRM  Position = "RM"
	PositionLM  Position = "LM"
	PositionCAM Position = "CAM"
	PositionCB  Position = "CB"
	PositionLB  Position = "LB"
	PositionRB  Position = "RB"
	PositionGK  Position = "GK"
)

// Positions lists every valid Position in display order.
var Positions = []Position{
	PositionST, PositionLW, PositionRW, PositionCDM, PositionCM, PositionRM,
	PositionLM, PositionCAM, PositionCB, PositionLB, PositionRB, PositionGK,
}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// KeepsCleanSheets reports whether clean sheets are tracked for p.
// Only the goalkeeper and the back line are credited with them.
func (p Position) KeepsCleanSheets() bool {
	switch p {
	case PositionGK, PositionCB, PositionLB, PositionRB:
		return true
	}
	return false
}

// PlayerStatus is where a player sits in the approval flow. A removed
// player has no status: the row is deleted.
type PlayerStatus int

const (
	StatusActive  PlayerStatus = 1
	StatusPending PlayerStatus = 2
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPending:
		return "pending"
	}
	return "unknown"
}

// Player is a squad member or a pending request to join the squad.
//
// Nullable columns are pointers: JerseyNumber, the contact fields,
// CleanSheets (null for outfield players), JoinedAt (null until approved)
// and LeftAt.
type Player struct {
	ID              string       `json:"id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Position        Position     `json:"position"`
	JerseyNumber    *int         `json:"jersey_number"`
	Email           *string      `json:"email"`
	PhoneNumber     *string      `json:"phone_number"`
	ProfileImageURL *string      `json:"profile_image_url"`
	IsCaptain       bool         `json:"is_captain"`
	Status          PlayerStatus `json:"status"`
	Goals           int          `json:"goals"`
	Assists         int          `json:"assists"`
	CleanSheets     *int         `json:"clean_sheets"`
	Appearances     int          `json:"appearances"`
	YellowCards     int          `json:"yellow_cards"`
	RedCards        int          `json:"red_cards"`
	JoinedAt        *time.Time   `json:"joined_at"`
	LeftAt          *time.Time   `json:"left_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NormalizeCleanSheets applies the clean sheets rule for a position:
//   - GK/CB/LB/RB: nil becomes 0, any other value is kept
//   - everyone else: nil or 0 becomes nil, anything else is rejected
func NormalizeCleanSheets(pos Position, cleanSheets *int) (*int, error) {
	if pos.KeepsCleanSheets() {
		if cleanSheets == nil {
			zero := 0
			return &zero, nil
		}
		if *cleanSheets < 0 {
			return nil, apperror.ValidationFailed("clean_sheets", "clean sheets cannot be negative")
		}
		return cleanSheets, nil
	}

	if cleanSheets != nil && *cleanSheets != 0 {
		return nil, apperror.ValidationFailed("clean_sheets", "Clean sheets must be null or 0 for non-goalkeepers.")
	}
	return nil, nil
}

// PlayerStats is the aggregated season record an admin overwrites in one go.
type PlayerStats struct {
	Goals       int
	Assists     int
	CleanSheets *int
	Appearances int
	YellowCards int
	RedCards    int
}

// Apply copies the stats onto p. The clean sheets value must already be
// normalized for p's position.
func (s PlayerStats) Apply(p *Player) {
	p.Goals = s.Goals
	p.Assists = s.Assists
	p.CleanSheets = s.CleanSheets
	p.Appearances = s.Appearances
	p.YellowCards = s.YellowCards
	p.RedCards = s.RedCards
}

// PlayerPatch is a partial update. A nil field means "leave as is".
//
// Status is not patchable; it only moves through approval.
type PlayerPatch struct {
	FirstName       *string
	LastName        *string
	Position        *Position
	JerseyNumber    *int
	Email           *string
	PhoneNumber     *string
	ProfileImageURL *string
	IsCaptain       *bool
	Goals           *int
	Assists         *int
	CleanSheets     *int
	Appearances     *int
	YellowCards     *int
	RedCards        *int
	LeftAt          *time.Time
}

// Apply merges the non-nil fields of the patch onto p.
func (pp PlayerPatch) Apply(p *Player) {
	if pp.FirstName != nil {
		p.FirstName = *pp.FirstName
	}
	if pp.LastName != nil {
		p.LastName = *pp.LastName
	}
	if pp.Position != nil {
		p.Position = *pp.Position
	}
	if pp.JerseyNumber != nil {
		p.JerseyNumber = pp.JerseyNumber
	}
	if pp.Email != nil {
		p.Email = pp.Email
	}
	if pp.PhoneNumber != nil {
		p.PhoneNumber = pp.PhoneNumber
	}
	if pp.ProfileImageURL != nil {
		p.ProfileImageURL = pp.ProfileImageURL
	}
	if pp.IsCaptain != nil {
		p.IsCaptain = *pp.IsCaptain
	}
	if pp.Goals != nil {
		p.Goals = *pp.Goals
	}
	if pp.Assists != nil {
		p.Assists = *pp.Assists
	}
	if pp.CleanSheets != nil {
		p.CleanSheets = pp.CleanSheets
	}
	if pp.Appearances != nil {
		p.Appearances = *pp.Appearances
	}
	if pp.YellowCards != nil {
		p.YellowCards = *pp.YellowCards
	}
	if pp.RedCards != nil {
		p.RedCards = *pp.RedCards
	}
	if pp.LeftAt != nil {
		p.LeftAt = pp.LeftAt
	}
}

// IsEmpty reports whether the patch would change nothing.
func (pp PlayerPatch) IsEmpty() bool {
	return pp == PlayerPatch{}
}
