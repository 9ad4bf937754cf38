// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package models

import (
	"time"

	"github.com/google/uuid"
)

// UserMerit is a user's running merit total. Created on first touch.
type UserMerit struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	MeritPoints int       `json:"merit_points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MeritHistory is an append-only ledger entry.
// Invariant: NewTotal = PreviousTotal + ChangeAmount.
type MeritHistory struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	AdminID       *uuid.UUID `json:"admin_id,omitempty"`
	AdminUsername *string    `json:"admin_username,omitempty"`
	ChangeAmount  int        `json:"change_amount"`
	PreviousTotal int        `json:"previous_total"`
	NewTotal      int        `json:"new_total"`
	Reason        string     `json:"reason"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AwardTier orders bronze < silver < gold. Upgrades must be strictly ascending.
type AwardTier string

const (
	TierBronze AwardTier = "bronze"
	TierSilver AwardTier = "silver"
	TierGold   AwardTier = "gold"
)

// Valid reports whether t is a known tier.
func (t AwardTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

// Rank returns the ordinal of the tier, bronze lowest.
func (t AwardTier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	}
	return 0
}

// Award is a tiered recognition granted to a user.
type Award struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Tier        AwardTier  `json:"tier"`
	AwardedBy   *uuid.UUID `json:"awarded_by,omitempty"`
	AwardedAt   time.Time  `json:"awarded_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AwardHistory records a tier grant or upgrade. PreviousTier is nil for the
// initial grant; otherwise PreviousTier < NewTier.
type AwardHistory struct {
	ID           uuid.UUID  `json:"id"`
	AwardID      uuid.UUID  `json:"award_id"`
	UserID       uuid.UUID  `json:"user_id"`
	AdminID      *uuid.UUID `json:"admin_id,omitempty"`
	PreviousTier *AwardTier `json:"previous_tier,omitempty"`
	NewTier      AwardTier  `json:"new_tier"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
}
