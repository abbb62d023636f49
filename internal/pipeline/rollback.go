package pipeline

import (
	"context"
	"log/slog"

	"github.com/go-faster/errors"

	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
)

// Rollback deletes the entries an import created, together with all of their
// lines. It only works for outcomes that carry a rollback token, and token must
// match it. The token is consumed on success.
func (p *Pipeline) Rollback(ctx context.Context, outcome *domain.ImportOutcome, token string) (int, error) {
	if outcome == nil || outcome.RollbackToken == nil || *outcome.RollbackToken != token || len(outcome.CreatedIDs) == 0 {
		return 0, domain.ErrRollbackUnavailable
	}

	removed, err := p.store.DeleteEntries(ctx, outcome.CreatedIDs)
	if err != nil {
		return 0, errors.Wrap(err, "delete created entries")
	}
	outcome.RollbackToken = nil

	logger.InfoContext(ctx, "import rolled back",
		slog.Int("entries", removed),
		slog.Int("created", len(outcome.CreatedIDs)),
	)
	return removed, nil
}
