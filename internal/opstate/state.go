// Package opstate persists the single, process-wide record describing an
// in-progress multi-step operation (sync, restack, move, insert), so a
// rebase conflict can checkpoint, surface to the user, and be resumed with
// `continue` or unwound with `abort` across process restarts.
package opstate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/diamond-stack/diamond/internal/gitshell"
)

// Kind identifies which operation owns the current checkpoint.
type Kind string

const (
	KindSync    Kind = "sync"
	KindRestack Kind = "restack"
	KindMove    Kind = "move"
	KindInsert  Kind = "insert"
)

const fileName = "operation_state.json"

// State is the in-progress-operation checkpoint, JSON round-tripped to
// <internal>/diamond/operation_state.json.
type State struct {
	Kind               Kind     `json:"kind"`
	InProgress         bool     `json:"in_progress"`
	OriginalBranch     string   `json:"original_branch"`
	AllBranches        []string `json:"all_branches"`
	RemainingBranches  []string `json:"remaining_branches"`
	CompletedBranches  []string `json:"completed_branches"`
	CurrentBranch      string   `json:"current_branch,omitempty"`
	MoveTargetParent   string   `json:"move_target_parent,omitempty"`
	OldParent          string   `json:"old_parent,omitempty"`
}

func path(internalDir string) string {
	return filepath.Join(internalDir, fileName)
}

// Load reads the checkpoint. A missing file, or one with in_progress=false,
// is reported as (nil, nil) — both mean "no operation underway".
func Load(internalDir string) (*State, error) {
	bs, err := os.ReadFile(path(internalDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	if !s.InProgress {
		return nil, nil
	}
	return &s, nil
}

// Save atomically persists the checkpoint: written to a sibling .tmp file
// then renamed over the destination, so a crash mid-write never leaves a
// half-written operation_state.json behind.
func Save(internalDir string, s *State) error {
	bs, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	dst := path(internalDir)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, bs, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// Clear removes the checkpoint file. Idempotent.
func Clear(internalDir string) error {
	if err := os.Remove(path(internalDir)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadFresh loads the checkpoint and, if one is in progress but the
// repository's VCS reports no rebase actually underway (the user ran the
// VCS's own `rebase --abort` directly), treats it as stale: clears it and
// returns (nil, true) so the caller can warn before proceeding.
func LoadFresh(ctx context.Context, repo *gitshell.Repo) (state *State, wasStale bool, err error) {
	s, err := Load(repo.InternalDir())
	if err != nil {
		return nil, false, err
	}
	if s == nil {
		return nil, false, nil
	}
	if !repo.RebaseInProgress(ctx) {
		if err := Clear(repo.InternalDir()); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	return s, false, nil
}

// Advance pops the head of RemainingBranches into CurrentBranch, for the
// orchestrator to process next.
func (s *State) Advance() (next string, ok bool) {
	if len(s.RemainingBranches) == 0 {
		s.CurrentBranch = ""
		return "", false
	}
	next = s.RemainingBranches[0]
	s.RemainingBranches = s.RemainingBranches[1:]
	s.CurrentBranch = next
	return next, true
}

// MarkCompleted records CurrentBranch as done and clears it.
func (s *State) MarkCompleted() {
	if s.CurrentBranch == "" {
		return
	}
	s.CompletedBranches = append(s.CompletedBranches, s.CurrentBranch)
	s.CurrentBranch = ""
}

// Done reports whether every branch in the original frontier has been
// processed.
func (s *State) Done() bool {
	return s.CurrentBranch == "" && len(s.RemainingBranches) == 0
}
