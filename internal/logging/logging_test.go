package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Str("repo", "acme_widgets").Msg("classified")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "classified")
	assert.Contains(t, out, "acme_widgets")

	buf.Reset()
	log = New(&buf, true)
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
