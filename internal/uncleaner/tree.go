// internal/uncleaner/tree.go
//
// Node arena for the backward transform.
//
// Context
// -------
// A clean path is read one level at a time.  The root holds every segment
// of the input; each child consumes a prefix of what its parent left over
// and records what it understood (a course, a user, a category id, …).
// Nodes live in one slice and point at their parent by index, so walking
// back up the chain is a loop over integers.
//
// Which child a node may have is decided by the kind table in kinds.go:
// every kind lists its candidate child kinds in order, and the first one
// whose admit predicate accepts the parent, and whose build step succeeds,
// becomes the child.
//
// Notes
// -----
// • Joining MyPath from the root to any node reproduces the consumed
//   prefix of the input path exactly.
// • The tree is built per call and never shared.
// • Oxford commas, two spaces after periods.
package uncleaner

import (
	"context"

	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Kind is the closed set of node kinds.
type Kind uint8

const (
	KindRoot Kind = iota
	KindSelfTest
	KindCategory
	KindUser
	KindUserInForum
	KindCourse
	KindUserInCourse
	KindCourseFormat
	KindCourseModule
	kindCount
)

var kindNames = [kindCount]string{
	"root", "selftest", "category", "user", "user-in-forum",
	"course", "user-in-course", "course-format", "course-module",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one level of the tree.
type Node struct {
	Kind    Kind
	Parent  int // index into the arena, -1 for the root
	MyPath  []string
	SubPath []string
	Params  weburl.Params // inherited from the input URL

	// What the node resolved along the way.  Children read these from
	// their parent.
	Course     *resource.Course
	User       *resource.User
	Module     *resource.CourseModule
	CategoryID int64
	ModName    string
	Token      string // optional trailing token a node consumed
	Section    int
	found      bool
}

// Tree is the arena.  Index 0 is the root.
type Tree struct {
	Nodes []Node
}

// run carries per-call collaborators through the kind table.
type run struct {
	ctx      context.Context
	env      *rewrite.Env
	settings *rewrite.Settings
}

// Build grows the tree for segments as deep as the kind table allows.
func Build(ctx context.Context, env *rewrite.Env, s *rewrite.Settings, segments []string, params weburl.Params) *Tree {
	r := &run{ctx: ctx, env: env, settings: s}
	t := &Tree{Nodes: []Node{{
		Kind:    KindRoot,
		Parent:  -1,
		SubPath: segments,
		Params:  params,
	}}}

	for cur := 0; ; {
		next, ok := t.descend(r, cur)
		if !ok {
			return t
		}
		cur = next
	}
}

// descend appends the first admissible child of node i.
func (t *Tree) descend(r *run, i int) (int, bool) {
	parent := &t.Nodes[i]
	if len(parent.SubPath) == 0 {
		return 0, false
	}
	for _, k := range table[parent.Kind].children {
		rule := table[k]
		if !rule.admit(r, parent) {
			continue
		}
		child, ok := rule.build(r, parent)
		if !ok {
			continue
		}
		n := len(child.MyPath)
		if n == 0 || n > len(parent.SubPath) {
			continue
		}
		child.Kind = k
		child.Parent = i
		child.SubPath = parent.SubPath[n:]
		child.Params = parent.Params
		t.Nodes = append(t.Nodes, child)
		return len(t.Nodes) - 1, true
	}
	return 0, false
}

// Leaf returns the index of the deepest node.
func (t *Tree) Leaf() int { return len(t.Nodes) - 1 }

// Consumed joins MyPath from the root down to node i.
func (t *Tree) Consumed(i int) []string {
	var chain []int
	for ; i >= 0; i = t.Nodes[i].Parent {
		chain = append(chain, i)
	}
	var out []string
	for j := len(chain) - 1; j >= 0; j-- {
		out = append(out, t.Nodes[chain[j]].MyPath...)
	}
	return out
}

// Kinds lists node kinds from the root down to node i.
func (t *Tree) Kinds(i int) []Kind {
	var out []Kind
	for ; i >= 0; i = t.Nodes[i].Parent {
		out = append([]Kind{t.Nodes[i].Kind}, out...)
	}
	return out
}
