package service

import (
	"fmt"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type hafalanEvent string

const (
	eventCoverageComplete hafalanEvent = "coverageComplete"
	eventRecheckPassed    hafalanEvent = "recheckPassed"
	eventRecheckFailed    hafalanEvent = "recheckFailed"
)

// nextStatus is the hafalan record transition table. Any pair not listed is
// rejected with the error matching the attempted operation.
func nextStatus(current models.HafalanStatus, event hafalanEvent) (models.HafalanStatus, error) {
	switch event {
	case eventCoverageComplete:
		if current == models.HafalanStatusProgress {
			return models.HafalanStatusCompleteWaitingRecheck, nil
		}
		return current, appErrors.Clone(appErrors.ErrRecordAlreadyFinalized, fmt.Sprintf("record is %s", current))
	case eventRecheckPassed:
		if current == models.HafalanStatusCompleteWaitingRecheck {
			return models.HafalanStatusRecheckPassed, nil
		}
		return current, appErrors.Clone(appErrors.ErrNoRecheckPending, fmt.Sprintf("record is %s", current))
	case eventRecheckFailed:
		if current == models.HafalanStatusCompleteWaitingRecheck {
			return models.HafalanStatusCompleteWaitingRecheck, nil
		}
		return current, appErrors.Clone(appErrors.ErrNoRecheckPending, fmt.Sprintf("record is %s", current))
	default:
		return current, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown hafalan event %q", event))
	}
}
