package parse

import (
	"strings"

	"github.com/startup-roles/backend/internal/domain"
)

// InferWorkMode maps a location string to a work mode. An empty location is treated as remote.
func InferWorkMode(location string) domain.WorkMode {
	if strings.TrimSpace(location) == "" {
		return domain.WorkModeRemote
	}
	return InferWorkModeOr(location, domain.WorkModeOnsite)
}

// InferWorkModeOr is InferWorkMode with a caller-chosen mode for locations that
// mention neither remote nor hybrid work.
func InferWorkModeOr(location string, fallback domain.WorkMode) domain.WorkMode {
	l := strings.ToLower(location)
	switch {
	case strings.TrimSpace(l) == "":
		return domain.WorkModeRemote
	case strings.Contains(l, "remote"):
		return domain.WorkModeRemote
	case strings.Contains(l, "hybrid"):
		return domain.WorkModeHybrid
	default:
		return fallback
	}
}
