package stackgraph

import (
	"context"
	"sort"
	"strings"
)

// nbsp is used in place of an ASCII space for prefix padding so that
// renderers which collapse whitespace (terminal wrapping, markdown) don't
// eat the indentation that makes the tree readable.
const nbsp = " "

const (
	branchMid  = "├─" // "├─"
	branchLast = "└─" // "└─"
	pipe       = "│" + nbsp + nbsp // "│  "
	blank      = nbsp + nbsp + nbsp
)

// ComputeTreePrefix produces the box-drawing prefix for branch when
// rendering the tree rooted at root, by walking from branch up to root and
// noting at each level whether the node is the last child of its parent.
func ComputeTreePrefix(ctx context.Context, getParent ParentLookup, getChildren ChildrenLookup, root, branch string) (string, error) {
	if branch == root {
		return "", nil
	}
	path, err := ancestorPath(ctx, getParent, root, branch)
	if err != nil {
		return "", err
	}
	// path is [root, ..., branch]; drop root.
	if len(path) > 0 && path[0] == root {
		path = path[1:]
	}

	var segments []string
	for i, node := range path {
		parent := root
		if i > 0 {
			parent = path[i-1]
		}
		last, err := isLastChild(ctx, getChildren, parent, node)
		if err != nil {
			return "", err
		}
		if i == len(path)-1 {
			if last {
				segments = append(segments, branchLast)
			} else {
				segments = append(segments, branchMid)
			}
		} else {
			if last {
				segments = append(segments, blank)
			} else {
				segments = append(segments, pipe)
			}
		}
	}
	return strings.Join(segments, ""), nil
}

func isLastChild(ctx context.Context, getChildren ChildrenLookup, parent, node string) (bool, error) {
	children, err := getChildren(ctx, parent)
	if err != nil {
		return false, err
	}
	sort.Strings(children)
	return len(children) > 0 && children[len(children)-1] == node, nil
}
