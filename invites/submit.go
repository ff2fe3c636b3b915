package invites

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeInvalid
	OutcomeEmpty
	OutcomeSystemError
)

// String is also the value of the ?error= query parameter on the entry page
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeEmpty:
		return "empty"
	default:
		return "system"
	}
}

// Verifier marks the caller's session as verified for a code
type Verifier interface {
	MarkVerified(code string) error
}

// Submit drives a code submission: consume the code, then mark the session.
// The session is left untouched unless the code was accepted.
func (m *Manager) Submit(ctx context.Context, raw string, session Verifier) Outcome {
	code := strings.TrimSpace(raw)
	if code == "" {
		return OutcomeEmpty
	}
	ok, err := m.Consume(ctx, code)
	if err != nil {
		m.log.Error("invite code submission failed", zap.Error(err))
		return OutcomeSystemError
	}
	if !ok {
		return OutcomeInvalid
	}
	if err = session.MarkVerified(code); err != nil {
		m.log.Error("session verify failed", zap.Error(err))
		return OutcomeSystemError
	}
	return OutcomeOK
}
