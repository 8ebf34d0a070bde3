package sigverify

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/fossable/turbine/internal/memo"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// keyImportTTL is how long a successful GPG key import is trusted before
// being re-attempted, per spec.md §4.2 step 3 ("Cache per-key for ≥10
// hours").
const keyImportTTL = 10 * time.Hour

// DefaultKeyserver is used when no keyserver override is configured.
const DefaultKeyserver = "hkp://keyserver.ubuntu.com"

// Verifier decides whether a commit carries a valid GPG signature and, if
// so, produces its stable key fingerprint. It is a capability (Design
// Notes) so the production shell-out implementation can be swapped for a
// canned one in tests.
type Verifier interface {
	// Verify returns the signer's fingerprint and true if commit is signed
	// and the signature verifies. A missing gpgsig is reported as
	// (_, false, nil) — not an error, per spec.md §4.2 step 1. An invalid
	// or unverifiable signature is also (_, false, nil): verification
	// failures are skip-and-continue, never fatal.
	Verify(ctx context.Context, repoDir string, commit *object.Commit) (fingerprint string, ok bool, err error)
}

// commandRunner abstracts process execution so tests can substitute a fake
// without touching the real gpg/git binaries.
type commandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, out)
	}
	return nil
}

// ShellVerifier verifies commits by shelling out to gpg and git, exactly as
// spec.md §4.2 describes. It is the production Verifier.
type ShellVerifier struct {
	Keyserver string

	runner     commandRunner
	importMemo *memo.Memo[string, struct{}]
}

// NewShellVerifier returns a ShellVerifier that imports keys from keyserver
// (or DefaultKeyserver if empty).
func NewShellVerifier(keyserver string) *ShellVerifier {
	if keyserver == "" {
		keyserver = DefaultKeyserver
	}
	return &ShellVerifier{
		Keyserver:  keyserver,
		runner:     execRunner{},
		importMemo: memo.New[string, struct{}](),
	}
}

// Verify implements Verifier.
func (v *ShellVerifier) Verify(ctx context.Context, repoDir string, commit *object.Commit) (string, bool, error) {
	if commit.PGPSignature == "" {
		return "", false, nil
	}

	fingerprint, err := extractFingerprint(commit.PGPSignature)
	if err != nil {
		log.Debugf("commit %s: failed to extract fingerprint: %v", commit.Hash, err)
		return "", false, nil
	}

	if _, err := v.importMemo.GetOrCompute(fingerprint, keyImportTTL, func() (struct{}, error) {
		return struct{}{}, v.importKey(ctx, fingerprint)
	}); err != nil {
		v.importMemo.Invalidate(fingerprint) // only successful imports stay cached
		log.Debugf("commit %s: failed to import key %s: %v", commit.Hash, fingerprint, err)
		return "", false, nil
	}

	if err := v.runner.Run(ctx, repoDir, "git", "verify-commit", commit.Hash.String()); err != nil {
		log.Debugf("commit %s: verify-commit failed: %v", commit.Hash, err)
		return "", false, nil
	}

	return fingerprint, true, nil
}

func (v *ShellVerifier) importKey(ctx context.Context, fingerprint string) error {
	return v.runner.Run(ctx, "", "gpg", "--keyserver", v.Keyserver, "--recv-keys", fingerprint)
}
