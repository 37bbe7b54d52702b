package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "token_changed.ev-1", RoutingKey("token_changed", "ev-1"))
	assert.Equal(t, "token_created.ev-2", RoutingKey("token_created", "ev-2"))
}
