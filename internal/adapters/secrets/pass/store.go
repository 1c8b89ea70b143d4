package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

// ErrUnavailable means the pass binary is not installed.
var ErrUnavailable = errors.New("pass command unavailable")

const notInStoreMarker = "is not in the password store"

type runner func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

// Store reads and writes session tokens through the pass(1) password
// manager. Tokens are single-line entries; anything pass keeps after the
// first line (notes, metadata) is ignored on read.
type Store struct {
	exec runner
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{exec: execPass}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := strings.TrimSpace(value)
	if token == "" || strings.ContainsAny(token, "\r\n") {
		return fmt.Errorf("pass insert %q: token must be a single non-empty line", key)
	}

	// --echo reads one line from stdin without prompting for confirmation.
	if _, stderr, err := s.exec(ctx, token+"\n", "insert", "--echo", "--force", key); err != nil {
		return wrapFailure("insert", key, err, stderr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.exec(ctx, "", "show", key)
	if err != nil {
		return "", wrapFailure("show", key, err, stderr)
	}

	first, _, _ := strings.Cut(stdout, "\n")
	token := strings.TrimSpace(first)
	if token == "" {
		return "", fmt.Errorf("pass show %q: %w", key, domain.ErrSecretNotFound)
	}
	return token, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.exec(ctx, "", "rm", "--force", key)
	if err == nil {
		return nil
	}
	failure := wrapFailure("rm", key, err, stderr)
	if errors.Is(failure, domain.ErrSecretNotFound) {
		return nil
	}
	return failure
}

func execPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	binary, err := exec.LookPath("pass")
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

// wrapFailure maps pass's "not in the password store" message onto
// domain.ErrSecretNotFound so callers can tell a missing entry from a
// broken store.
func wrapFailure(op string, key string, err error, stderr string) error {
	switch {
	case errors.Is(err, ErrUnavailable):
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	case strings.Contains(stderr, notInStoreMarker):
		return fmt.Errorf("pass %s %q: %w", op, key, domain.ErrSecretNotFound)
	case stderr != "":
		return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
	default:
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}
}
