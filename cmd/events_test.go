package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/dashboard/internal/config"
)

func TestTailEventsRejectsSilentNotifier(t *testing.T) {
	for _, notifier := range []string{"none", "", "carrier-pigeon"} {
		var out bytes.Buffer
		err := tailEvents(&config.Config{NOTIFIER: notifier}, &out, make(chan os.Signal))
		require.Error(t, err, notifier)
		assert.Contains(t, err.Error(), "publishes nothing to tail")
		assert.Empty(t, out.String())
	}
}

func TestTailEventsReturnsListenerError(t *testing.T) {
	conf := &config.Config{NOTIFIER: "redis", REDIS_HOST: "127.0.0.1", REDIS_PORT: "1"}

	err := tailEvents(conf, &bytes.Buffer{}, make(chan os.Signal))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to start listener")
}
