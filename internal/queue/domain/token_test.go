package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusWaiting:    {StatusInProgress, StatusNoShow},
		StatusInProgress: {StatusDone, StatusNoShow},
		StatusDone:       {},
		StatusNoShow:     {},
	}
	all := []Status{StatusWaiting, StatusInProgress, StatusDone, StatusNoShow}

	for from, nexts := range allowed {
		legal := make(map[Status]bool)
		for _, next := range nexts {
			legal[next] = true
		}
		for _, to := range all {
			got := from.CanTransitionTo(to)
			assert.Equal(t, legal[to], got, "%s -> %s", from, to)
		}
		// Self-transitions are never legal.
		assert.False(t, from.CanTransitionTo(from), "%s -> itself", from)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusNoShow.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusWaiting.Valid())
	assert.True(t, StatusNoShow.Valid())
	assert.False(t, Status("CANCELLED").Valid())
	assert.False(t, Status("").Valid())
}

func TestTokenActive(t *testing.T) {
	token := &Token{Status: StatusWaiting}
	assert.True(t, token.Active())
	token.Status = StatusInProgress
	assert.True(t, token.Active())
	token.Status = StatusDone
	assert.False(t, token.Active())
	token.Status = StatusNoShow
	assert.False(t, token.Active())
}
