package progress

import (
	"fmt"

	"payroll-import/internal/domain"
)

func summary(o domain.ImportOutcome) string {
	msg := fmt.Sprintf("imported %d of %d rows", o.SuccessCount, o.TotalRows)
	if o.FailedCount > 0 {
		msg += fmt.Sprintf(", %d failed", o.FailedCount)
	}
	if o.SkippedCount > 0 {
		msg += fmt.Sprintf(", %d skipped", o.SkippedCount)
	}
	return msg
}
