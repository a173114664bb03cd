package gitshell

import (
	"context"
	"regexp"
	"strings"
)

// Status is the working-tree status, parsed from `git status --porcelain=v2`.
type Status struct {
	CurrentBranch      string
	StagedTrackedFiles []string
	UnstagedTrackedFiles []string
	UnmergedFiles      []string
	UntrackedFiles     []string
}

func (s Status) IsCleanIgnoringUntracked() bool {
	return len(s.StagedTrackedFiles) == 0 && len(s.UnstagedTrackedFiles) == 0 && len(s.UnmergedFiles) == 0
}

func (s Status) IsClean() bool {
	return s.IsCleanIgnoringUntracked() && len(s.UntrackedFiles) == 0
}

var (
	patternBranchHead   = regexp.MustCompile(`# branch\.head (.+)`)
	patternFile1        = regexp.MustCompile(`1 (..) .... ...... ...... ...... [0-9a-f]+ [0-9a-f]+ (.+)`)
	patternFile2        = regexp.MustCompile(`2 (..) .... ...... ...... ...... [0-9a-f]+ [0-9a-f]+ .+ (.+)\t.+`)
	patternFileUnmerged = regexp.MustCompile(`u .. .... ...... ...... ...... .... [0-9a-f]+ [0-9a-f]+ [0-9a-f]+ (.+)`)
	patternFileUntracked = regexp.MustCompile(`\? (.+)`)
)

func (r *Repo) Status(ctx context.Context) (Status, error) {
	out, err := r.Git(ctx, "status", "--porcelain=v2", "--branch", "--untracked-files")
	if err != nil {
		return Status{}, err
	}
	var st Status
	for _, line := range strings.Split(out, "\n") {
		parseStatusLine(line, &st)
	}
	return st, nil
}

func parseStatusLine(line string, st *Status) {
	if m := patternBranchHead.FindStringSubmatch(line); len(m) > 0 {
		if m[1] != "(detached)" {
			st.CurrentBranch = m[1]
		}
		return
	}
	if m := patternFile1.FindStringSubmatch(line); len(m) > 0 {
		xy := m[1]
		if xy[0] != '.' {
			st.StagedTrackedFiles = append(st.StagedTrackedFiles, m[2])
		}
		if xy[1] != '.' {
			st.UnstagedTrackedFiles = append(st.UnstagedTrackedFiles, m[2])
		}
		return
	}
	if m := patternFile2.FindStringSubmatch(line); len(m) > 0 {
		xy := m[1]
		if xy[0] != '.' {
			st.StagedTrackedFiles = append(st.StagedTrackedFiles, m[2])
		}
		if xy[1] != '.' {
			st.UnstagedTrackedFiles = append(st.UnstagedTrackedFiles, m[2])
		}
		return
	}
	if m := patternFileUnmerged.FindStringSubmatch(line); len(m) > 0 {
		st.UnmergedFiles = append(st.UnmergedFiles, m[1])
		return
	}
	if m := patternFileUntracked.FindStringSubmatch(line); len(m) > 0 {
		st.UntrackedFiles = append(st.UntrackedFiles, m[1])
		return
	}
}
