package relay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDecl_SharedGroupIsDurable(t *testing.T) {
	decl := AMQPOptions{Queue: "rentalhub.notifications"}.queueDecl()

	assert.Equal(t, "rentalhub.notifications", decl.name)
	assert.True(t, decl.durable)
	assert.False(t, decl.autoDelete)
	assert.False(t, decl.exclusive)
}

func TestQueueDecl_ExclusiveIsPrivatePerConsumer(t *testing.T) {
	opts := AMQPOptions{Queue: "rentalhub.api", Exclusive: true}
	a, b := opts.queueDecl(), opts.queueDecl()

	assert.True(t, strings.HasPrefix(a.name, "rentalhub.api."))
	assert.NotEqual(t, a.name, b.name)
	assert.False(t, a.durable)
	assert.True(t, a.autoDelete)
	assert.True(t, a.exclusive)
}
