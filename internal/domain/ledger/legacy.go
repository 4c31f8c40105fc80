package ledger

import "github.com/okian/signingday/internal/domain/model"

// LegacyShare is what a roster entry without a recorded share counts as:
// one whole grant unit, as in rosters kept before fractional scholarships.
const LegacyShare = 1.0

// FromRoster converts roster entries into allocations. This is the only place
// that interprets a missing share.
func FromRoster(roster []model.RosterEntry) []Allocation {
	out := make([]Allocation, 0, len(roster))
	for _, e := range roster {
		share := LegacyShare
		if e.Share != nil {
			share = *e.Share
		}
		out = append(out, Allocation{PlayerID: e.PlayerID, Share: share})
	}
	return out
}

// MigrateLegacy stamps LegacyShare onto every entry without a share and
// returns how many entries were changed.
func MigrateLegacy(roster []model.RosterEntry) int {
	migrated := 0
	for i := range roster {
		if roster[i].Share == nil {
			share := LegacyShare
			roster[i].Share = &share
			migrated++
		}
	}
	return migrated
}
