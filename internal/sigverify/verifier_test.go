package sigverify

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type fakeRunner struct {
	calls []string
	fail  map[string]bool
}

func (r *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) error {
	key := name
	if len(args) > 0 {
		key = name + " " + args[0]
	}
	r.calls = append(r.calls, key)
	if r.fail[key] {
		return errors.New("simulated failure")
	}
	return nil
}

func commitWithSignature(t *testing.T, sig string) *object.Commit {
	t.Helper()
	return &object.Commit{
		Hash:         plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Message:      "test commit",
		PGPSignature: sig,
	}
}

func TestShellVerifier_NoSignature(t *testing.T) {
	v := NewShellVerifier("")
	runner := &fakeRunner{fail: map[string]bool{}}
	v.runner = runner

	_, ok, err := v.Verify(context.Background(), "/tmp/repo", commitWithSignature(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected unsigned commit to report ok=false")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no shell calls for unsigned commit, got %v", runner.calls)
	}
}

func TestShellVerifier_CorruptSignature(t *testing.T) {
	v := NewShellVerifier("")
	v.runner = &fakeRunner{}

	_, ok, err := v.Verify(context.Background(), "/tmp/repo", commitWithSignature(t, "not a real signature"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected corrupt signature to report ok=false")
	}
}

func TestShellVerifier_ImportFailure(t *testing.T) {
	armored := armorSignature(t, append(append([]byte{}, bytesOfLen(12)...), bytesOfLen(20)...))

	v := NewShellVerifier("")
	runner := &fakeRunner{fail: map[string]bool{"gpg --keyserver": true}}
	v.runner = runner

	_, ok, err := v.Verify(context.Background(), "/tmp/repo", commitWithSignature(t, armored))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected import failure to report ok=false")
	}
}

func TestShellVerifier_VerifyCommitFailure(t *testing.T) {
	armored := armorSignature(t, append(append([]byte{}, bytesOfLen(12)...), bytesOfLen(20)...))

	v := NewShellVerifier("")
	runner := &fakeRunner{fail: map[string]bool{"git verify-commit": true}}
	v.runner = runner

	_, ok, err := v.Verify(context.Background(), "/tmp/repo", commitWithSignature(t, armored))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected verify-commit failure to report ok=false")
	}
}

func TestShellVerifier_Success(t *testing.T) {
	fingerprint := bytesOfLen(20)
	for i := range fingerprint {
		fingerprint[i] = byte(i + 1)
	}
	packet := append(bytesOfLen(12), fingerprint...)
	armored := armorSignature(t, packet)

	v := NewShellVerifier("")
	runner := &fakeRunner{}
	v.runner = runner

	fp, ok, err := v.Verify(context.Background(), "/tmp/repo", commitWithSignature(t, armored))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected successful verification")
	}
	want := "0102030405060708090a0b0c0d0e0f1011121314"
	if fp != want {
		t.Fatalf("fingerprint = %q, want %q", fp, want)
	}
}

func bytesOfLen(n int) []byte {
	return make([]byte, n)
}
