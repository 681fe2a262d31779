package pagination

import (
	"strconv"

	"syncspace-backend/pkg/constants"
)

// Params represents limit/offset pagination parsed from query values
type Params struct {
	Limit  int
	Offset int
}

// ParseParams parses limit and offset query values, clamping the limit to
// the allowed page-size range. Malformed values fall back to defaults.
func ParseParams(limitStr, offsetStr string) *Params {
	limit := constants.DefaultPageSize
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case l < 1:
				limit = constants.DefaultPageSize
			case l > constants.MaxPageSize:
				limit = constants.MaxPageSize
			default:
				limit = l
			}
		}
	}

	offset := 0
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o > 0 {
			offset = o
		}
	}

	return &Params{Limit: limit, Offset: offset}
}
