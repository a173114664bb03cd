package oplog

// startedCompletedPairs maps each *Started event to its matching
// *Completed event, for chain-undo derivation.
var startedCompletedPairs = map[EventType]EventType{
	SyncStarted:    SyncCompleted,
	RestackStarted: RestackCompleted,
	MoveStarted:    MoveCompleted,
	InsertStarted:  InsertCompleted,
}

// UndoCandidate describes one reversible operation found by walking the log
// backwards.
type UndoCandidate struct {
	Started   Entry
	Completed Entry
	Branches  []string
}

// NextUndo returns the newest operation eligible for undo: the newest
// *Started entry with a later matching *Completed entry, whose affected
// branches have not all since been restored via a BackupRestored event.
// Returns (nil, false) if nothing is undoable.
func NextUndo(entries []Entry) (*UndoCandidate, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		started := entries[i]
		completedType, ok := startedCompletedPairs[started.Operation]
		if !ok {
			continue
		}
		completedIdx := -1
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Operation == completedType {
				completedIdx = j
				break
			}
		}
		if completedIdx == -1 {
			continue
		}
		completed := entries[completedIdx]
		if !completed.Success {
			continue
		}
		branches := completed.Branches
		if len(branches) == 0 {
			branches = started.Branches
		}
		if allRestoredSince(entries[completedIdx+1:], branches) {
			continue
		}
		return &UndoCandidate{Started: started, Completed: completed, Branches: branches}, true
	}
	return nil, false
}

// allRestoredSince reports whether every branch in branches has a
// BackupRestored event somewhere in tail.
func allRestoredSince(tail []Entry, branches []string) bool {
	if len(branches) == 0 {
		return false
	}
	restored := make(map[string]bool, len(branches))
	for _, e := range tail {
		if e.Operation == BackupRestored {
			restored[e.Branch] = true
		}
	}
	for _, b := range branches {
		if !restored[b] {
			return false
		}
	}
	return true
}
