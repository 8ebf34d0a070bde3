// Package mirror implements the Repository Mirror (C1): a deterministic,
// resumable stream of commits over a local clone of a tracked remote
// branch.
package mirror

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Mirror owns a scratch clone of a single branch of a remote repository.
// Refresh, WalkFrom and Tip acquire mu, matching spec.md §5: the refresh
// task and the (out-of-core) rendering task share one exclusive lock. Dir
// and Close do not lock.
type Mirror struct {
	mu sync.Mutex

	remoteURL string
	branch    string
	dir       string
	repo      *git.Repository

	tip plumbing.Hash
}

// Open clones remoteURL into a fresh scratch directory and checks out
// branch. A clone failure or a missing branch after clone is fatal at
// startup per spec.md §7.
func Open(ctx context.Context, remoteURL, branch string) (*Mirror, error) {
	dir, err := os.MkdirTemp("", "turbine-repo-")
	if err != nil {
		return nil, fmt.Errorf("mirror: allocating scratch dir: %w", err)
	}

	log.Debugf("cloning %s (branch %s) into %s", remoteURL, branch, dir)

	refName := plumbing.NewBranchReferenceName(branch)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           remoteURL,
		ReferenceName: refName,
		SingleBranch:  true,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("mirror: cloning %s: %w", remoteURL, err)
	}

	ref, err := repo.Reference(refName, true)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("mirror: branch %q not present after clone: %w", branch, err)
	}

	return &Mirror{
		remoteURL: remoteURL,
		branch:    branch,
		dir:       dir,
		repo:      repo,
		tip:       ref.Hash(),
	}, nil
}

// Dir returns the local scratch directory backing the clone, used by C2 to
// shell `git verify-commit` against the same checkout.
func (m *Mirror) Dir() string {
	return m.dir
}

// Refresh fetches branch from origin under the repo lock. A failed fetch is
// a refresh-scoped error: it aborts this refresh but the mirror remains
// usable on the next tick. "already up to date" is not an error.
func (m *Mirror) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("mirror: fetching %s: %w", m.remoteURL, err)
	}

	// Fetch updates the remote-tracking ref, not the local branch, so the
	// remote-tracking ref is the fetched tip.
	remoteRef := plumbing.NewRemoteReferenceName("origin", m.branch)
	ref, err := m.repo.Reference(remoteRef, true)
	if err != nil {
		refName := plumbing.NewBranchReferenceName(m.branch)
		ref, err = m.repo.Reference(refName, true)
		if err != nil {
			return fmt.Errorf("mirror: branch %q missing after fetch: %w", m.branch, err)
		}
	}

	m.tip = ref.Hash()
	return nil
}

// WalkFrom returns, in reverse-chronological order starting at the current
// tip, every commit down to (but not including) watermark. If watermark is
// nil, or no longer reachable from the tip (history rewrite), the walk
// silently covers the entire branch. Call Tip after draining to obtain the
// new watermark.
func (m *Mirror) WalkFrom(watermark *plumbing.Hash) ([]*object.Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iter, err := m.repo.Log(&git.LogOptions{From: m.tip, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("mirror: walking from %s: %w", m.tip, err)
	}
	defer iter.Close()

	var commits []*object.Commit
	found := watermark == nil
	err = iter.ForEach(func(c *object.Commit) error {
		if watermark != nil && c.Hash == *watermark {
			found = true
			return storer.ErrStop
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: iterating commits: %w", err)
	}

	if !found {
		// Watermark unreachable: a rewritten history. Fall back to the
		// full branch, which the loop above already produced since it
		// never found a matching hash to stop at.
		log.Warnf("watermark %s not reachable from tip %s; walking full branch", watermark, m.tip)
	}

	return commits, nil
}

// Tip returns the branch tip as of the most recent successful Refresh (or
// the post-clone tip, if Refresh has never been called).
func (m *Mirror) Tip() plumbing.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tip
}

// Close removes the scratch clone directory.
func (m *Mirror) Close() error {
	return os.RemoveAll(m.dir)
}
