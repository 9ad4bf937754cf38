// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TeamFormat selects 2-team (government/opposition) or 4-team (BP) matches.
type TeamFormat string

const (
	FormatTwoTeam  TeamFormat = "two_team"
	FormatFourTeam TeamFormat = "four_team"
)

// Valid reports whether f is a known format.
func (f TeamFormat) Valid() bool {
	return f == FormatTwoTeam || f == FormatFourTeam
}

// TwoTeamPosition is a side in a 2-team match.
type TwoTeamPosition string

const (
	PositionGovernment TwoTeamPosition = "government"
	PositionOpposition TwoTeamPosition = "opposition"
)

// FourTeamPosition is a bench in a British Parliamentary match.
type FourTeamPosition string

const (
	PositionOpeningGovernment FourTeamPosition = "opening_government"
	PositionOpeningOpposition FourTeamPosition = "opening_opposition"
	PositionClosingGovernment FourTeamPosition = "closing_government"
	PositionClosingOpposition FourTeamPosition = "closing_opposition"
)

// TwoTeamSpeakerRole is a speaking slot in 2-team formats.
type TwoTeamSpeakerRole string

const (
	RolePrimeMinister            TwoTeamSpeakerRole = "prime_minister"
	RoleDeputyPrimeMinister      TwoTeamSpeakerRole = "deputy_prime_minister"
	RoleGovernmentWhip           TwoTeamSpeakerRole = "government_whip"
	RoleLeaderOfOpposition       TwoTeamSpeakerRole = "leader_of_opposition"
	RoleDeputyLeaderOfOpposition TwoTeamSpeakerRole = "deputy_leader_of_opposition"
	RoleOppositionWhip           TwoTeamSpeakerRole = "opposition_whip"
	RoleGovernmentReply          TwoTeamSpeakerRole = "government_reply"
	RoleOppositionReply          TwoTeamSpeakerRole = "opposition_reply"
)

// FourTeamSpeakerRole is a speaking slot in BP format.
type FourTeamSpeakerRole string

const (
	RoleBPPrimeMinister            FourTeamSpeakerRole = "prime_minister"
	RoleBPDeputyPrimeMinister      FourTeamSpeakerRole = "deputy_prime_minister"
	RoleBPLeaderOfOpposition       FourTeamSpeakerRole = "leader_of_opposition"
	RoleBPDeputyLeaderOfOpposition FourTeamSpeakerRole = "deputy_leader_of_opposition"
	RoleBPMemberOfGovernment       FourTeamSpeakerRole = "member_of_government"
	RoleBPGovernmentWhip           FourTeamSpeakerRole = "government_whip"
	RoleBPMemberOfOpposition       FourTeamSpeakerRole = "member_of_opposition"
	RoleBPOppositionWhip           FourTeamSpeakerRole = "opposition_whip"
)

// AllocationRole is the function a participant serves in a match.
type AllocationRole string

const (
	RoleSpeaker              AllocationRole = "speaker"
	RoleResource             AllocationRole = "resource"
	RoleVotingAdjudicator    AllocationRole = "voting_adjudicator"
	RoleNonVotingAdjudicator AllocationRole = "non_voting_adjudicator"
)

// Valid reports whether r is a known allocation role.
func (r AllocationRole) Valid() bool {
	switch r {
	case RoleSpeaker, RoleResource, RoleVotingAdjudicator, RoleNonVotingAdjudicator:
		return true
	}
	return false
}

// IsAdjudicator reports whether r is a voting or non-voting adjudicator.
func (r AllocationRole) IsAdjudicator() bool {
	return r == RoleVotingAdjudicator || r == RoleNonVotingAdjudicator
}

// MatchStatus is advisory lifecycle state; transitions are not enforced.
type MatchStatus string

const (
	StatusDraft      MatchStatus = "draft"
	StatusPublished  MatchStatus = "published"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
	StatusCancelled  MatchStatus = "cancelled"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MatchSeries groups the matches of one round of an event.
// TeamFormat is immutable after creation.
type MatchSeries struct {
	ID                 uuid.UUID  `json:"id"`
	EventID            uuid.UUID  `json:"event_id"`
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	RoundNumber        *int       `json:"round_number,omitempty"`
	TeamFormat         TeamFormat `json:"team_format"`
	AllowReplySpeeches bool       `json:"allow_reply_speeches"`
	IsBreakRound       bool       `json:"is_break_round"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Match is a single debate room within a series.
// Invariant: ScoresReleased implies RankingsReleased.
type Match struct {
	ID               uuid.UUID   `json:"id"`
	SeriesID         uuid.UUID   `json:"series_id"`
	RoomName         *string     `json:"room_name,omitempty"`
	Motion           *string     `json:"motion,omitempty"`
	InfoSlide        *string     `json:"info_slide,omitempty"`
	Status           MatchStatus `json:"status"`
	ScheduledTime    *time.Time  `json:"scheduled_time,omitempty"`
	ScoresReleased   bool        `json:"scores_released"`
	RankingsReleased bool        `json:"rankings_released"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// MatchTeam is one of the fixed team slots of a match, created eagerly at
// match creation: 2 for two_team, 4 for four_team.
type MatchTeam struct {
	ID                 uuid.UUID         `json:"id"`
	MatchID            uuid.UUID         `json:"match_id"`
	TwoTeamPosition    *TwoTeamPosition  `json:"two_team_position,omitempty"`
	FourTeamPosition   *FourTeamPosition `json:"four_team_position,omitempty"`
	TeamName           *string           `json:"team_name,omitempty"`
	Institution        *string           `json:"institution,omitempty"`
	FinalRank          *int              `json:"final_rank,omitempty"`
	TotalSpeakerPoints *decimal.Decimal  `json:"total_speaker_points,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Allocation assigns a registered user or a named guest to a role in a match.
// Exactly one of UserID and GuestName is set.
type Allocation struct {
	ID                  uuid.UUID            `json:"id"`
	MatchID             uuid.UUID            `json:"match_id"`
	UserID              *uuid.UUID           `json:"user_id,omitempty"`
	GuestName           *string              `json:"guest_name,omitempty"`
	Role                AllocationRole       `json:"role"`
	TeamID              *uuid.UUID           `json:"team_id,omitempty"`
	TwoTeamSpeakerRole  *TwoTeamSpeakerRole  `json:"two_team_speaker_role,omitempty"`
	FourTeamSpeakerRole *FourTeamSpeakerRole `json:"four_team_speaker_role,omitempty"`
	IsChair             *bool                `json:"is_chair,omitempty"`
	AllocatedAt         time.Time            `json:"allocated_at"`
	AllocatedBy         uuid.UUID            `json:"allocated_by"`
	WasCheckedIn        bool                 `json:"was_checked_in"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// AllocationWithUser joins an allocation with its display name: the user's
// username, the guest name, or "Unknown".
type AllocationWithUser struct {
	Allocation
	Username string `json:"username"`
}

// AllocationHistory is the append-only audit log of allocation changes.
type AllocationHistory struct {
	ID             uuid.UUID       `json:"id"`
	AllocationID   *uuid.UUID      `json:"allocation_id,omitempty"`
	MatchID        uuid.UUID       `json:"match_id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	GuestName      *string         `json:"guest_name,omitempty"`
	Action         string          `json:"action"`
	PreviousRole   *AllocationRole `json:"previous_role,omitempty"`
	NewRole        *AllocationRole `json:"new_role,omitempty"`
	PreviousTeamID *uuid.UUID      `json:"previous_team_id,omitempty"`
	NewTeamID      *uuid.UUID      `json:"new_team_id,omitempty"`
	ChangedBy      uuid.UUID       `json:"changed_by"`
	ChangedAt      time.Time       `json:"changed_at"`
	Notes          *string         `json:"notes,omitempty"`
}

// Ballot is one adjudicator's scoring sheet for a match.
// Created eagerly when a registered-user adjudicator is allocated.
type Ballot struct {
	ID            uuid.UUID  `json:"id"`
	MatchID       uuid.UUID  `json:"match_id"`
	AdjudicatorID uuid.UUID  `json:"adjudicator_id"`
	IsVoting      bool       `json:"is_voting"`
	IsSubmitted   bool       `json:"is_submitted"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SpeakerScore is one adjudicator's score for one speaker allocation.
type SpeakerScore struct {
	ID           uuid.UUID       `json:"id"`
	BallotID     uuid.UUID       `json:"ballot_id"`
	AllocationID uuid.UUID       `json:"allocation_id"`
	Score        decimal.Decimal `json:"score"`
	Feedback     *string         `json:"feedback,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TeamRanking is one adjudicator's rank for one team. Within a submitted
// voting ballot, ranks are unique 1..N.
type TeamRanking struct {
	ID        uuid.UUID `json:"id"`
	BallotID  uuid.UUID `json:"ballot_id"`
	TeamID    uuid.UUID `json:"team_id"`
	Rank      int       `json:"rank"`
	IsWinner  *bool     `json:"is_winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
