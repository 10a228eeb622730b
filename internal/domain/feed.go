package domain

import "context"

// WarningFeed supplies the current set of active warnings.
type WarningFeed interface {
	// FetchWarnings returns every warning the source currently considers
	// active. Order is source defined but stable between calls.
	FetchWarnings(ctx context.Context) ([]Warning, error)
}
