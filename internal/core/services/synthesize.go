package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
	"github.com/pranavagrawaI/ShakespeareBot/internal/resilience"
)

// transition is the citation-check state machine:
//
//	PENDING    --pass--> VALIDATED
//	PENDING    --fail--> REGENERATE (when regenerations remain) | REFUSED
//	REGENERATE --pass--> VALIDATED
//	REGENERATE --fail--> REGENERATE (when regenerations remain) | REFUSED
//
// Kept as an explicit function rather than nested branching so the
// retry policy is auditable and testable in isolation.
func transition(current domain.ValidationState, pass bool, regensLeft int) domain.ValidationState {
	switch current {
	case domain.StatePending, domain.StateRegenerate:
		if pass {
			return domain.StateValidated
		}
		if regensLeft > 0 {
			return domain.StateRegenerate
		}
		return domain.StateRefused
	default:
		return current
	}
}

// synthesize calls the generator and runs the validate-regenerate loop.
// A citation failure triggers at most MaxRegenerations retries with an
// amended instruction; a further failure forces a refusal rather than
// risking an unverified answer. Generator transport exhaustion is
// returned as an error wrapping ErrGeneratorUnavailable, distinct from
// a content refusal.
func (s *AskService) synthesize(ctx context.Context, q domain.Query, evidence domain.EvidenceSet) (*domain.Answer, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("synthesize: %w: no generator configured", domain.ErrGeneratorUnavailable)
	}

	state := domain.StatePending
	regensLeft := s.cfg.Validation.MaxRegenerations
	violation := ""

	for {
		user := buildUserMessage(q.Text, evidence, violation)

		text, err := s.generate(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w: %v", domain.ErrGeneratorUnavailable, err)
		}
		text = strings.TrimSpace(text)

		citations := ExtractCitations(text)
		verr := s.validator.Check(citations, evidence)

		state = transition(state, verr == nil, regensLeft)
		logger.Debug("Validation: %d citations, state=%s, err=%v", len(citations), state, verr)

		switch state {
		case domain.StateValidated:
			return &domain.Answer{
				QueryID:   q.ID,
				Text:      text,
				Citations: citations,
				State:     domain.StateValidated,
			}, nil

		case domain.StateRegenerate:
			regensLeft--
			violation = verr.Error()
			logger.Info("Citation check failed (%v), regenerating", verr)
			continue

		case domain.StateRefused:
			logger.Info("Citation check failed twice, refusing")
			return &domain.Answer{
				QueryID:       q.ID,
				Text:          refusalMessage,
				State:         domain.StateRefused,
				RefusalReason: fmt.Sprintf("citation check failed: %v", verr),
			}, nil

		default:
			return nil, fmt.Errorf("synthesize: unexpected state %s", state)
		}
	}
}

// generate runs one generator call under the retry/breaker executor
// and the configured per-call timeout.
func (s *AskService) generate(ctx context.Context, user string) (string, error) {
	var text string

	err := s.exec.Execute(ctx, "generate", func(ctx context.Context) error {
		gctx, cancel := context.WithTimeout(ctx, s.cfg.Generator.Timeout)
		defer cancel()

		out, err := s.generator.Generate(gctx, systemPrompt, user)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, generatorClassifier)

	return text, err
}

// generatorClassifier treats everything except caller cancellation as a
// retryable transport failure.
func generatorClassifier(err error) resilience.Classification {
	if errors.Is(err, context.Canceled) {
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}
	return resilience.Classification{Retryable: true, RecordFailure: true}
}
