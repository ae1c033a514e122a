package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

func TestNextStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		current models.HafalanStatus
		event   hafalanEvent
		want    models.HafalanStatus
		err     *appErrors.Error
	}{
		{"coverage completes progress", models.HafalanStatusProgress, eventCoverageComplete, models.HafalanStatusCompleteWaitingRecheck, nil},
		{"pass finalizes", models.HafalanStatusCompleteWaitingRecheck, eventRecheckPassed, models.HafalanStatusRecheckPassed, nil},
		{"fail keeps waiting", models.HafalanStatusCompleteWaitingRecheck, eventRecheckFailed, models.HafalanStatusCompleteWaitingRecheck, nil},
		{"coverage on waiting", models.HafalanStatusCompleteWaitingRecheck, eventCoverageComplete, "", appErrors.ErrRecordAlreadyFinalized},
		{"coverage on passed", models.HafalanStatusRecheckPassed, eventCoverageComplete, "", appErrors.ErrRecordAlreadyFinalized},
		{"recheck on progress", models.HafalanStatusProgress, eventRecheckPassed, "", appErrors.ErrNoRecheckPending},
		{"recheck fail on progress", models.HafalanStatusProgress, eventRecheckFailed, "", appErrors.ErrNoRecheckPending},
		{"recheck on passed", models.HafalanStatusRecheckPassed, eventRecheckPassed, "", appErrors.ErrNoRecheckPending},
		{"fail on passed", models.HafalanStatusRecheckPassed, eventRecheckFailed, "", appErrors.ErrNoRecheckPending},
		{"unknown event", models.HafalanStatusProgress, hafalanEvent("reopen"), "", appErrors.ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextStatus(tc.current, tc.event)
			if tc.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.err)
				assert.Equal(t, tc.current, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecheckPassedIsTerminal(t *testing.T) {
	for _, event := range []hafalanEvent{eventCoverageComplete, eventRecheckPassed, eventRecheckFailed} {
		_, err := nextStatus(models.HafalanStatusRecheckPassed, event)
		assert.Error(t, err, string(event))
	}
}
