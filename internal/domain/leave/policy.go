package leave

import (
	"fmt"
	"strings"
)

// AmendPolicy governs decisions on requests that are already approved or
// rejected.
type AmendPolicy string

const (
	AmendForbid AmendPolicy = "forbid"
	AmendAllow  AmendPolicy = "allow"
)

func ParseAmendPolicy(raw string) (AmendPolicy, error) {
	switch AmendPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AmendForbid:
		return AmendForbid, nil
	case AmendAllow:
		return AmendAllow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, raw)
	}
}
