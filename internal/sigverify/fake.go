package sigverify

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// FakeVerifier is a test double that maps commit hashes to canned
// fingerprints without touching gpg or git. It lets C3/C6 be tested without
// a real keyring or signed commits.
type FakeVerifier struct {
	// Fingerprints maps commit hash (hex) to signer fingerprint. Commits
	// absent from this map are reported unsigned.
	Fingerprints map[string]string
}

// NewFakeVerifier returns a FakeVerifier with an empty mapping.
func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{Fingerprints: make(map[string]string)}
}

// Verify implements Verifier.
func (v *FakeVerifier) Verify(_ context.Context, _ string, commit *object.Commit) (string, bool, error) {
	fp, ok := v.Fingerprints[commit.Hash.String()]
	if !ok {
		return "", false, nil
	}
	return fp, true, nil
}
