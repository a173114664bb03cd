package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// UserState is per-user state persisted to XDG_STATE_HOME, independent of
// any single repository.
var UserState struct {
	// NotifiedApprovedPRGuardChange is persisted with the rest of the user
	// state; no command currently reads or sets it, and no notice about the
	// approved-PR restack guard is shown.
	NotifiedApprovedPRGuardChange bool
	LastDoctorRunUnix             int64
}

func userStatePath() (string, error) {
	return filepath.Join("diamond", "user-state.json"), nil
}

// LoadUserState loads the user state. A missing file is not an error.
func LoadUserState() error {
	rel, err := userStatePath()
	if err != nil {
		return err
	}
	pth, err := xdg.SearchStateFile(rel)
	if err != nil {
		return nil
	}
	bs, err := os.ReadFile(pth)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, &UserState)
}

// SaveUserState persists the user state.
func SaveUserState() error {
	rel, err := userStatePath()
	if err != nil {
		return err
	}
	bs, err := json.Marshal(UserState)
	if err != nil {
		return err
	}
	pth, err := xdg.StateFile(rel)
	if err != nil {
		return err
	}
	return os.WriteFile(pth, bs, 0o644)
}
