// Package sheets defines where monthly summaries are exported to.
package sheets

import (
	"context"

	"gagyebu/internal/core"
)

type (
	// SummaryWriter upserts an owner's month rows; months not in the slice
	// are left untouched.
	SummaryWriter interface {
		WriteMonthSummaries(ctx context.Context, ownerID string, summaries []core.MonthSummary) error
	}

	// SummaryReader returns the exported rows of an owner, newest month first.
	SummaryReader interface {
		ReadMonthSummaries(ctx context.Context, ownerID string) ([]core.MonthSummary, error)
	}

	SummaryStore interface {
		SummaryWriter
		SummaryReader
	}
)
