// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/models"
)

// uniqueRanks reports whether no two rankings share a rank. Ties are
// rejected at submission.
func uniqueRanks(rankings []RankEntry) bool {
	seen := make(map[int]struct{}, len(rankings))
	for _, r := range rankings {
		if _, dup := seen[r.Rank]; dup {
			return false
		}
		seen[r.Rank] = struct{}{}
	}
	return true
}

// assignFinalRanks turns per-team average ranks into dense final ranks.
// Ranked teams take 1..N in average-rank order; teams no ballot ranked
// share the slot after the last ranked team.
func assignFinalRanks(ranked []TeamAvgRank, allTeams []models.MatchTeam) map[uuid.UUID]int {
	final := make(map[uuid.UUID]int, len(allTeams))
	for i, tr := range ranked {
		final[tr.TeamID] = i + 1
	}
	for _, t := range allTeams {
		if _, ok := final[t.ID]; !ok {
			final[t.ID] = len(ranked) + 1
		}
	}
	return final
}

// isDuplicateAllocation reports whether params would give the user the
// same role they already hold in the match. Friendly matches allow one
// person several distinct speaker slots and even speaker-plus-panel
// double duty; only exact repeats are rejected. Guests are never
// deduplicated.
func isDuplicateAllocation(existing []models.AllocationWithUser, p CreateAllocationParams) bool {
	if p.UserID == nil {
		return false
	}
	for _, a := range existing {
		if a.UserID == nil || *a.UserID != *p.UserID {
			continue
		}
		if a.Role != p.Role {
			continue
		}
		if p.Role == models.RoleSpeaker {
			sameTwoTeam := p.TwoTeamSpeakerRole != nil &&
				a.TwoTeamSpeakerRole != nil && *a.TwoTeamSpeakerRole == *p.TwoTeamSpeakerRole
			sameFourTeam := p.FourTeamSpeakerRole != nil &&
				a.FourTeamSpeakerRole != nil && *a.FourTeamSpeakerRole == *p.FourTeamSpeakerRole
			if sameTwoTeam || sameFourTeam {
				return true
			}
			continue
		}
		// Adjudicator and resource roles repeat at most once per user.
		return true
	}
	return false
}
