package addonspath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// Source tells where an addons directory came from.
type Source int

// Known sources, in the order they are added to a PathSet.
const (
	SourceCore Source = iota
	SourceEnterprise
	SourceRepo
)

func (s Source) String() string {
	switch s {
	case SourceCore:
		return "core"
	case SourceEnterprise:
		return "enterprise"
	case SourceRepo:
		return "repo"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// SkipReason explains why a candidate path was left out of a PathSet.
type SkipReason int

// Skip reasons.
const (
	SkipMissing SkipReason = iota + 1
	SkipCore
	SkipDuplicate
	SkipIgnored
	SkipEnterpriseIsCore
)

func (r SkipReason) String() string {
	switch r {
	case SkipMissing:
		return "does not exist"
	case SkipCore:
		return "is the core server path"
	case SkipDuplicate:
		return "already present"
	case SkipIgnored:
		return "matches an ignore pattern"
	case SkipEnterpriseIsCore:
		return "enterprise path equals the core server path"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MissingPolicy controls what happens when the addons directory of the
// core server does not exist.
type MissingPolicy int

const (
	// MissingWarn keeps the entry and reports a warning. This is the default
	// since the directory is often created later during project setup.
	MissingWarn MissingPolicy = iota
	// MissingFail aborts with ErrCoreAddonsMissing.
	MissingFail
	// MissingIgnore keeps the entry silently.
	MissingIgnore
)

// ParseMissingPolicy parses "warn", "fail" or "ignore". The empty string is MissingWarn.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return MissingWarn, nil
	case "fail":
		return MissingFail, nil
	case "ignore":
		return MissingIgnore, nil
	default:
		return MissingWarn, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

func (p MissingPolicy) String() string {
	switch p {
	case MissingWarn:
		return "warn"
	case MissingFail:
		return "fail"
	case MissingIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Entry is a single addons directory in a PathSet.
type Entry struct {
	Path   string
	Exists bool
	Source Source
}

// Skip records a candidate path that was not added to a PathSet.
type Skip struct {
	Path   string
	Source Source
	Reason SkipReason
}

// Warn reports whether the skip should be surfaced to the operator.
func (s Skip) Warn() bool {
	return s.Reason == SkipMissing
}

// Options tune Compute.
type Options struct {
	// Root is the directory relative paths are resolved against.
	// Defaults to the current working directory.
	Root string
	// MissingCoreAddons is applied when <core>/addons does not exist.
	MissingCoreAddons MissingPolicy
	// Ignore holds glob patterns. Repo paths matching any of them,
	// either absolute or relative to Root, are skipped.
	Ignore []string
}

// PathSet is the ordered, duplicate free list of addons directories.
//
// The first entry is always the addons directory of the core server,
// followed by the enterprise directory (if any) and the configured repos
// in configuration order. A PathSet is computed fresh on every run and
// never persisted.
type PathSet struct {
	core    string
	policy  MissingPolicy
	entries []Entry
	skipped []Skip
	seen    map[string]struct{}
}

// Compute builds the PathSet for the given core server path, an optional
// enterprise path and the configured repo paths.
//
// Behavior:
//   - core must exist, otherwise ErrRequiredPathMissing is returned and nothing else is done
//   - <core>/addons is always the first entry; if it is missing the MissingCoreAddons policy applies
//   - enterprise is added if it is set, exists and is not the core path
//   - every repo is resolved; ignored ones (even if missing), missing ones, the core
//     path itself and duplicates are skipped (first occurrence wins)
//
// Every decision is traced, skips are available through Skipped. They never
// change the result.
func Compute(core, enterprise string, repos []string, opts Options) (*PathSet, error) {
	root := opts.Root
	if root != "" {
		r, err := ResolvePath(root, "")
		if err != nil {
			return nil, err
		}
		root = r
	}

	corePath, err := ResolvePath(core, root)
	if err != nil {
		return nil, err
	}
	if corePath == "" {
		return nil, fmt.Errorf("%w: core server path not configured", ErrRequiredPathMissing)
	}
	if !pathExists(corePath) {
		return nil, fmt.Errorf("%w: core server path %s does not exist", ErrRequiredPathMissing, corePath)
	}

	ignore, err := compileMatcher(opts.Ignore)
	if err != nil {
		return nil, err
	}

	ps := &PathSet{
		core:    corePath,
		policy:  opts.MissingCoreAddons,
		entries: make([]Entry, 0, len(repos)+2),
		seen:    make(map[string]struct{}, len(repos)+2),
	}

	addons := filepath.Join(corePath, "addons")
	exists := pathExists(addons)
	if !exists {
		switch opts.MissingCoreAddons {
		case MissingFail:
			return nil, fmt.Errorf("%w: %s", ErrCoreAddonsMissing, addons)
		case MissingWarn:
			debug.Log("core addons directory %s does not exist, keeping it", addons)
		case MissingIgnore:
			debug.V(1).Log("core addons directory %s does not exist", addons)
		}
	}
	ps.add(Entry{Path: addons, Exists: exists, Source: SourceCore})

	if err := ps.addEnterprise(enterprise, root); err != nil {
		return nil, err
	}

	for _, repo := range repos {
		p, err := ResolvePath(repo, root)
		if err != nil {
			return nil, err
		}
		if p == "" {
			debug.V(2).Log("skipping empty repo entry")

			continue
		}

		switch {
		case ignore.Match(p, root):
			ps.skip(p, SourceRepo, SkipIgnored)
		case !pathExists(p):
			ps.skip(p, SourceRepo, SkipMissing)
		case p == corePath:
			ps.skip(p, SourceRepo, SkipCore)
		default:
			ps.add(Entry{Path: p, Exists: true, Source: SourceRepo})
		}
	}

	debug.V(1).Log("computed addons path: %s", strings.Join(ps.Paths(), ","))

	return ps, nil
}

func (ps *PathSet) addEnterprise(enterprise, root string) error {
	p, err := ResolvePath(enterprise, root)
	if err != nil {
		return err
	}

	switch {
	case p == "":
		debug.V(2).Log("no enterprise path configured")
	case p == ps.core:
		ps.skip(p, SourceEnterprise, SkipEnterpriseIsCore)
	case !pathExists(p):
		ps.skip(p, SourceEnterprise, SkipMissing)
	default:
		ps.add(Entry{Path: p, Exists: true, Source: SourceEnterprise})
	}

	return nil
}

func (ps *PathSet) add(e Entry) {
	if _, found := ps.seen[e.Path]; found {
		ps.skip(e.Path, e.Source, SkipDuplicate)

		return
	}

	ps.seen[e.Path] = struct{}{}
	ps.entries = append(ps.entries, e)
	debug.V(2).Log("added %s path %s", e.Source, e.Path)
}

func (ps *PathSet) skip(p string, src Source, reason SkipReason) {
	ps.skipped = append(ps.skipped, Skip{Path: p, Source: src, Reason: reason})
	debug.V(2).Log("skipped %s path %s: %s", src, p, reason)
}

// Core returns the resolved core server path.
func (ps *PathSet) Core() string {
	return ps.core
}

// Paths returns the ordered list of directories.
func (ps *PathSet) Paths() []string {
	out := make([]string, 0, len(ps.entries))
	for _, e := range ps.entries {
		out = append(out, e.Path)
	}

	return out
}

// Entries returns a copy of the entries.
func (ps *PathSet) Entries() []Entry {
	return append([]Entry(nil), ps.entries...)
}

// Skipped returns the candidates that were left out, in the order they were seen.
func (ps *PathSet) Skipped() []Skip {
	return append([]Skip(nil), ps.skipped...)
}

// Contains reports whether p (after cleaning) is part of the set.
func (ps *PathSet) Contains(p string) bool {
	_, found := ps.seen[filepath.Clean(p)]

	return found
}

// Len returns the number of entries.
func (ps *PathSet) Len() int {
	return len(ps.entries)
}

// Warnings returns operator facing messages for every condition that did
// not abort the computation but likely needs attention.
func (ps *PathSet) Warnings() []string {
	var out []string

	for _, e := range ps.entries {
		if e.Source == SourceCore && !e.Exists && ps.policy == MissingWarn {
			out = append(out, fmt.Sprintf("core addons directory %s does not exist", e.Path))
		}
	}

	for _, s := range ps.skipped {
		if s.Warn() {
			out = append(out, fmt.Sprintf("skipping %s path %s: %s", s.Source, s.Path, s.Reason))
		}
	}

	return out
}
