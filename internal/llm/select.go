package llm

import (
	"fmt"

	"github.com/promptforge/promptforge-backend/internal/types"
)

// PickDefault returns the first enabled provider in list order. When the list
// contains no enabled provider it falls back to the first entry regardless of
// state; callers that must never run against a disabled provider pass an
// enabled-only list, which makes the fallback equivalent to "first or fail".
func PickDefault(providers []*types.APIProvider) (*types.APIProvider, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	for _, p := range providers {
		if p.Enabled {
			return p, nil
		}
	}
	return providers[0], nil
}
