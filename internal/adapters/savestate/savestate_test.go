package savestate

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/negotiation"
)

var pool = model.GrantPool{TotalGrantUnits: 5, RosterSizeMin: 2, RosterSizeMax: 6}

func share(v float64) *float64 { return &v }

// session builds a store and engine holding a signed award, an open
// negotiation, a withdrawn coach negotiation and a legacy roster entry.
func session(t *testing.T, ctx context.Context) (*repository.MemoryStore, *negotiation.Engine) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.AddTeam(ctx, repository.TeamState{
		Team: model.Team{ID: "t1", Name: "Wildcats", Pool: pool},
		Roster: []model.RosterEntry{
			{PlayerID: "p1", Name: "Veteran", Share: share(1)},
			{PlayerID: "p2", Name: "Old Timer"},
		},
	}))
	require.NoError(t, store.AddTeam(ctx, repository.TeamState{Team: model.Team{ID: "t2", Name: "Hornets", Pool: pool, AI: true}}))
	require.NoError(t, store.AddRecruit(ctx, model.Recruit{ID: "r1", Name: "Rook", Position: "G", Potential: 70, SigningDifficulty: 0.2}))
	require.NoError(t, store.AddRecruit(ctx, model.Recruit{ID: "r2", Name: "Ace", Potential: 85, SigningDifficulty: 0.5, FinalEligibleYear: true}))
	require.NoError(t, store.AddCoach(ctx, model.Coach{ID: "c1", Name: "Sage", Role: "assistant"}))

	eng := negotiation.New(store, negotiation.WithClock(ids.NewStepClock(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), time.Minute)))
	signed, err := eng.StartNegotiation(ctx, "t1", "r1", model.TargetPlayer, model.PlayerOffer{ScholarshipShare: 0.5, PlayingTimeGuarantee: 20})
	require.NoError(t, err)
	_, err = eng.UpdateOffer(ctx, signed, model.PlayerOffer{ScholarshipShare: 0.5, PlayingTimeGuarantee: 0})
	require.NoError(t, err)
	_, err = eng.CompleteNegotiation(ctx, signed, true)
	require.NoError(t, err)

	_, err = eng.StartNegotiation(ctx, "t2", "r2", model.TargetPlayer, model.PlayerOffer{ScholarshipShare: 0.25})
	require.NoError(t, err)

	coach, err := eng.StartNegotiation(ctx, "t1", "c1", model.TargetCoach, model.CoachOffer{Salary: 180000, Bonus: 2500})
	require.NoError(t, err)
	require.NoError(t, eng.Withdraw(ctx, coach))
	return store, eng
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, eng := session(t, ctx)
	codec := NewCodec()
	st := Capture(ctx, store, eng, pool, codec.Thresholds())

	require.Len(t, st.Teams, 2)
	require.Len(t, st.Teams[0].Awards, 1)
	assert.Equal(t, model.LevelHalf, st.Teams[0].Awards[0].Level)
	require.Len(t, st.Negotiations, 3)
	assert.Equal(t, model.TargetCoach, st.Negotiations[2].CurrentOffer.Kind)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			first, err := codec.Marshal(st, format)
			require.NoError(t, err)
			decoded, err := codec.Unmarshal(ctx, first, format)
			require.NoError(t, err)
			second, err := codec.Marshal(decoded, format)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))

			n, err := decoded.Negotiations[0].Negotiation()
			require.NoError(t, err)
			assert.Equal(t, model.StatusAccepted, n.Status)
			assert.Equal(t, []model.Offer{
				model.PlayerOffer{ScholarshipShare: 0.5, PlayingTimeGuarantee: 20},
				model.PlayerOffer{ScholarshipShare: 0.5},
			}, n.History)
			assert.Nil(t, decoded.Teams[0].Roster[1].Share)
		})
	}

	t.Run("kind discriminator is written", func(t *testing.T) {
		data, err := codec.Marshal(st, FormatJSON)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"kind": "coach"`)
		assert.Contains(t, string(data), `"level": "half"`)
	})
}

func TestApplyRestoresSession(t *testing.T) {
	ctx := context.Background()
	store, eng := session(t, ctx)
	codec := NewCodec()
	want, err := codec.Marshal(Capture(ctx, store, eng, pool, codec.Thresholds()), FormatJSON)
	require.NoError(t, err)

	decoded, err := codec.Unmarshal(ctx, want, FormatJSON)
	require.NoError(t, err)
	freshStore := repository.NewMemoryStore()
	freshEngine := negotiation.New(freshStore)
	require.NoError(t, Apply(ctx, decoded, freshStore, freshEngine))

	got, err := codec.Marshal(Capture(ctx, freshStore, freshEngine, pool, codec.Thresholds()), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	open := freshEngine.ListActive(ctx, "t2")
	require.Len(t, open, 1)
	assert.True(t, freshEngine.IsAI(open[0].ID))

	ts, err := freshStore.State(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, ledger.ForRoster(ts.Team.Pool, ts.Roster).UsedShare())
}

func TestLegacyMigration(t *testing.T) {
	ctx := context.Background()
	blob := `{
  "version": 1,
  "pool": {"total_grant_units": 5, "roster_size_min": 1, "roster_size_max": 10},
  "teams": [{
    "team": {"id": "t1", "name": "Old", "pool": {"total_grant_units": 5, "roster_size_min": 1, "roster_size_max": 10}},
    "roster": [
      {"player_id": "a", "name": "A"},
      {"player_id": "b", "name": "B", "award_id": "aw-b"},
      {"player_id": "c", "name": "C", "share": 0.5, "award_id": "aw-c"}
    ],
    "staff": [],
    "awards": [{"id": "aw-c", "team_id": "t1", "player_id": "c", "share": 0.5, "level": "full", "created_at": "2026-01-01T00:00:00Z"}],
    "counters": {"scholarships_used": 3, "roster_size": 3}
  }],
  "market": {"recruits": [], "coaches": []},
  "negotiations": []
}`
	st, err := NewCodec().Unmarshal(ctx, []byte(blob), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, st.Version)
	team := st.Teams[0]
	for _, e := range team.Roster {
		require.NotNil(t, e.Share)
	}
	assert.Equal(t, 1.0, *team.Roster[0].Share)
	assert.Equal(t, "award-legacy-a", team.Roster[0].AwardID)
	assert.Equal(t, 0.5, *team.Roster[2].Share)

	require.Len(t, team.Awards, 3)
	byPlayer := map[string]AwardRecord{}
	for _, a := range team.Awards {
		byPlayer[a.PlayerID] = a
	}
	assert.Equal(t, "aw-b", byPlayer["b"].ID)
	assert.Equal(t, model.LevelFull, byPlayer["a"].Level)
	// The stored level is not trusted.
	assert.Equal(t, model.LevelHalf, byPlayer["c"].Level)

	assert.Equal(t, 2.5, ledger.ForRoster(team.Team.Pool, team.Roster).UsedShare())
	// Drifted counters survive for the consistency pass to repair.
	assert.Equal(t, 3.0, team.Counters.ScholarshipsUsed)
}

func TestDecodeRejects(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec()

	_, err := codec.Unmarshal(ctx, []byte(`{"version": 9}`), FormatJSON)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = codec.Unmarshal(ctx, []byte("version: 2\nnegotiations:\n  - id: neg-1\n    history:\n      - kind: trainer\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrUnknownOfferKind)

	_, err = codec.Unmarshal(ctx, []byte(`{`), FormatJSON)
	assert.Error(t, err)

	_, err = codec.Decode(ctx, bytes.NewReader(nil), Format("toml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	err = codec.Encode(&bytes.Buffer{}, SaveState{Version: 1}, FormatJSON)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("save.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("/tmp/a.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("slot.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("noext"))
}

func TestCustomThresholds(t *testing.T) {
	ctx := context.Background()
	store, eng := session(t, ctx)
	strict := NewCodec(WithThresholds(model.LevelThresholds{FullPct: 100, HalfPct: 75, QuarterPct: 40}))
	data, err := strict.Marshal(Capture(ctx, store, eng, pool, model.DefaultLevelThresholds), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level": "quarter"`)
}
