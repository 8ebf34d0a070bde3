// Package registry implements the Contributor Registry (C3): the in-memory
// table mapping a signing-key fingerprint to a contributor's declared
// payout address and ordered commit history.
package registry

import (
	"time"

	"github.com/fossable/turbine/internal/currency"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Contributor is a single signing key's payout identity: the address it
// most recently declared, and the ordered, deduplicated list of commits it
// has signed.
type Contributor struct {
	Fingerprint string
	Name        string
	Address     currency.Address
	Commits     []plumbing.Hash
	LastPayout  *time.Time
}

// hasCommit reports whether id is already attributed to this contributor.
func (c *Contributor) hasCommit(id plumbing.Hash) bool {
	for _, existing := range c.Commits {
		if existing == id {
			return true
		}
	}
	return false
}

// VerifiedCommit pairs a commit with the fingerprint that signed it,
// produced by C2 for every commit that passes signature verification.
type VerifiedCommit struct {
	Commit      *object.Commit
	Fingerprint string
}

// Registry is the process-local, rebuilt-lazily table keyed by fingerprint.
// It is never persisted: the wallet's own transfer history is the engine's
// sole durable state (spec.md §3).
type Registry struct {
	contributors map[string]*Contributor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{contributors: make(map[string]*Contributor)}
}

// Contributors returns every known contributor. The order is unspecified.
func (r *Registry) Contributors() []*Contributor {
	out := make([]*Contributor, 0, len(r.contributors))
	for _, c := range r.contributors {
		out = append(out, c)
	}
	return out
}

// Get returns the contributor for fingerprint, if any.
func (r *Registry) Get(fingerprint string) (*Contributor, bool) {
	c, ok := r.contributors[fingerprint]
	return c, ok
}

// Update applies one refresh's worth of verified commits to the registry.
// commits MUST be supplied in chronological (oldest-first) order — the
// opposite of the mirror's native reverse-chronological walk order — since
// last-writer-wins address replacement and commit-index assignment both
// depend on chronological order (spec.md §4.3).
func (r *Registry) Update(commits []VerifiedCommit) {
	// Pass 1: address harvest. A later signed commit by the same
	// fingerprint replaces the earlier declared address.
	for _, vc := range commits {
		addr, ok := currency.ExtractDeclaration(vc.Commit.Message)
		if !ok {
			continue
		}

		c, exists := r.contributors[vc.Fingerprint]
		if !exists {
			c = &Contributor{
				Fingerprint: vc.Fingerprint,
				Name:        authorName(vc.Commit),
				Address:     addr,
			}
			r.contributors[vc.Fingerprint] = c
			continue
		}
		c.Address = addr
	}

	// Pass 2: commit attribution. Only contributors with a declared
	// address (created in pass 1, possibly on an earlier refresh) receive
	// commits; a verified commit from a signer who never declared an
	// address is an orphan and is dropped.
	for _, vc := range commits {
		c, exists := r.contributors[vc.Fingerprint]
		if !exists {
			log.Debugf("dropping orphan signed commit %s from unknown signer %s",
				vc.Commit.Hash, vc.Fingerprint)
			continue
		}
		if c.hasCommit(vc.Commit.Hash) {
			continue
		}
		c.Commits = append(c.Commits, vc.Commit.Hash)
	}
}

// authorName returns a best-effort display name for a commit's author,
// falling back to a sentinel when the commit carries no author identity.
func authorName(commit *object.Commit) string {
	if commit.Author.Name != "" {
		return commit.Author.Name
	}
	return "<invalid>"
}
