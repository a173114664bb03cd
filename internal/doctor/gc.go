package doctor

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxAge = 30 * 24 * time.Hour
	defaultKeep   = 10
)

// GCOptions configures backup-ref garbage collection.
type GCOptions struct {
	MaxAge time.Duration // 0 uses defaultMaxAge
	Keep   int           // 0 uses defaultKeep
}

// GC removes backup refs older than opts.MaxAge and, per branch, retains at
// most opts.Keep most-recent. Returns the refs it deleted.
func (d *Doctor) GC(ctx context.Context, opts GCOptions) ([]string, error) {
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}
	keep := opts.Keep
	if keep == 0 {
		keep = defaultKeep
	}

	branches, err := d.store.TrackedBranches(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	var deleted []string
	for _, branch := range branches {
		backups, err := d.store.ListBackups(ctx, branch) // newest first
		if err != nil {
			return nil, err
		}
		for i, ref := range backups {
			ts, ok := backupTimestamp(ref)
			if i >= keep || (ok && ts.Before(cutoff)) {
				if err := d.repo.DeleteReference(ctx, ref); err != nil {
					return nil, err
				}
				deleted = append(deleted, ref)
			}
		}
	}
	return deleted, nil
}

// backupTimestamp extracts the unix-seconds suffix from a backup ref name
// of the form refs/diamond/backup/<branch>-<unix_ts>.
func backupTimestamp(ref string) (time.Time, bool) {
	idx := strings.LastIndex(ref, "-")
	if idx == -1 {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(ref[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
