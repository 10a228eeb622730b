package pipeline

import (
	"context"

	"github.com/couchcryptid/cable-health-service/internal/domain"
)

// WarningTransformer implements Transformer by decoding NGA warning JSON.
type WarningTransformer struct{}

// NewTransformer creates a WarningTransformer.
func NewTransformer() *WarningTransformer {
	return &WarningTransformer{}
}

func (t *WarningTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Warning, error) {
	return domain.ParseWarningEvent(raw)
}
