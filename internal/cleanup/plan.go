package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

// Policy holds the independent cleanup flags plus the matching options they
// ride along with.
type Policy struct {
	Mode               matching.Mode `json:"mode"`
	PreferExplicit     bool          `json:"prefer_explicit"`
	ReplaceInPlaylists bool          `json:"replace_in_playlists"`
	UnlikeLosers       bool          `json:"unlike_losers"`
	DryRun             bool          `json:"dry_run"`
	Threshold          float64       `json:"threshold,omitempty"`
}

// PolicyFromConfig validates and converts the TOML policy table.
func PolicyFromConfig(c shared.PolicyConfig) (Policy, error) {
	mode, err := matching.ParseMode(c.Mode)
	if err != nil {
		return Policy{}, err
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return Policy{}, fmt.Errorf("%w: threshold %v outside [0,1]", shared.ErrInvalidConfig, c.Threshold)
	}
	return Policy{
		Mode:               mode,
		PreferExplicit:     c.PreferExplicit,
		ReplaceInPlaylists: c.ReplaceInPlaylists,
		UnlikeLosers:       c.UnlikeLosers,
		DryRun:             c.DryRun,
		Threshold:          c.Threshold,
	}, nil
}

// Snapshot is the already-fetched remote state the planner consults. The
// planner itself never contacts the catalog service.
type Snapshot struct {
	Playlists []models.Playlist `json:"playlists"`
}

// Plan is an ordered sequence of cleanup actions with provenance. Immutable
// once built; a dry-run plan is identical in content to a live one, the
// flag only gates whether the executor is invoked.
type Plan struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Policy      Policy    `json:"policy"`
	DryRun      bool      `json:"dry_run"`
	Actions     []Action  `json:"actions"`
}

// BuildPlan converts ranked duplicate groups into a flat, ordered action
// plan. Groups are processed in input order; within a group, unlike actions
// come first, then playlist replacements. That fixed order matters: undo
// replays it exactly reversed.
//
// Building a plan is pure given the snapshot and has no side effects.
func BuildPlan(groups []matching.DuplicateGroup, policy Policy, snapshot Snapshot) *Plan {
	plan := &Plan{
		ID:          shared.GenerateID(),
		GeneratedAt: time.Now().UTC(),
		Policy:      policy,
		DryRun:      policy.DryRun,
	}

	// Track winner additions per playlist across groups so a winner is
	// added at most once even when it replaces losers from several groups.
	added := make(map[string]map[models.TrackID]struct{})
	winnerAdded := func(playlistID string, id models.TrackID) bool {
		if _, ok := added[playlistID][id]; ok {
			return true
		}
		if added[playlistID] == nil {
			added[playlistID] = make(map[models.TrackID]struct{})
		}
		added[playlistID][id] = struct{}{}
		return false
	}

	for _, group := range groups {
		winner := group.Winner.ID()

		if policy.UnlikeLosers {
			for _, loser := range group.Losers() {
				plan.Actions = append(plan.Actions, Action{Kind: KindUnlike, Track: loser.ID()})
			}
		}

		if policy.ReplaceInPlaylists {
			for _, pl := range snapshot.Playlists {
				for _, loser := range group.Losers() {
					if !pl.Contains(loser.ID()) {
						continue
					}
					plan.Actions = append(plan.Actions, Action{
						Kind:       KindRemoveFromPlaylist,
						Track:      loser.ID(),
						PlaylistID: pl.ID,
					})
					if !pl.Contains(winner) && !winnerAdded(pl.ID, winner) {
						plan.Actions = append(plan.Actions, Action{
							Kind:       KindAddToPlaylist,
							Track:      winner,
							PlaylistID: pl.ID,
						})
					}
				}
			}
		}
	}

	return plan
}

// Empty reports whether the plan carries no effective actions. An empty
// plan is a normal outcome, not an error.
func (p *Plan) Empty() bool {
	for _, a := range p.Actions {
		if a.Kind != KindNoOp {
			return false
		}
	}
	return true
}

// Save writes the plan as indented JSON. The field order is fixed by the
// struct definition, so serialize→deserialize→serialize is byte-stable.
func (p *Plan) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// LoadPlan reads a plan file written by [Plan.Save].
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	return &plan, nil
}
