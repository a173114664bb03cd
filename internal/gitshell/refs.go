package gitshell

import (
	"context"
	"strings"

	"emperror.dev/errors"
)

// Missing is a sentinel used with CreateReference to mean "delete the ref".
const Missing = ""

// CreateBlob writes bytes as a git blob object and returns its OID.
func (r *Repo) CreateBlob(ctx context.Context, content []byte) (string, error) {
	out, err := r.Run(ctx, &RunOpts{
		Args:      []string{"hash-object", "-w", "--stdin"},
		Stdin:     content,
		ExitError: true,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create blob")
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

// ReadBlob reads the content of a blob object by OID.
func (r *Repo) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"cat-file", "blob", oid}, ExitError: true})
	if err != nil {
		return nil, err
	}
	return out.Stdout, nil
}

// FindReference resolves a ref name to an OID. ok is false if the ref does not exist.
func (r *Repo) FindReference(ctx context.Context, name string) (oid string, ok bool) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"show-ref", "--verify", name}})
	if err != nil || out.ExitCode != 0 {
		return "", false
	}
	fields := strings.Fields(string(out.Stdout))
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// CreateReference creates or force-updates a ref to point at oid. If oid is
// Missing, the ref is deleted (idempotent: deleting an absent ref is not an
// error).
func (r *Repo) CreateReference(ctx context.Context, name, oid string, reflogMsg string) error {
	if oid == Missing {
		return r.DeleteReference(ctx, name)
	}
	args := []string{"update-ref"}
	if reflogMsg != "" {
		args = append(args, "-m", reflogMsg)
	}
	args = append(args, name, oid)
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	return err
}

// DeleteReference deletes a ref. Deleting a ref that does not exist is not an error.
func (r *Repo) DeleteReference(ctx context.Context, name string) error {
	if _, ok := r.FindReference(ctx, name); !ok {
		return nil
	}
	_, err := r.Run(ctx, &RunOpts{Args: []string{"update-ref", "-d", name}, ExitError: true})
	return err
}

type RefEntry struct {
	Name string
	Oid  string
}

// ListReferences lists refs matching the given glob patterns
// (`refs/diamond/parent/**` etc; a single `*` only matches one path segment
// in git's for-each-ref, so multi-segment branch names need `**`).
func (r *Repo) ListReferences(ctx context.Context, patterns ...string) ([]RefEntry, error) {
	args := []string{"for-each-ref", "--format=%(refname)%00%(objectname)"}
	args = append(args, patterns...)
	out, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	if err != nil {
		return nil, err
	}
	var refs []RefEntry
	for _, line := range out.Lines() {
		parts := strings.SplitN(line, "\x00", 2)
		if len(parts) != 2 {
			continue
		}
		refs = append(refs, RefEntry{Name: parts[0], Oid: parts[1]})
	}
	return refs, nil
}
