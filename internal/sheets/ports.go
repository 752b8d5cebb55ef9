// Package sheets defines the outbound port for the spreadsheet mirror.
package sheets

import (
	"context"

	"conti/internal/core"
)

// RowAppender mirrors a single transaction as one spreadsheet row.
type RowAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
