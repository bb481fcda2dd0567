package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandLayout(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"run", "history", "verify-token"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	for _, cmd := range []string{"", "run"} {
		c := root
		if cmd != "" {
			c, _, _ = root.Find([]string{cmd})
		}
		assert.NotNil(t, c.Flags().Lookup("force"), cmd)
		assert.NotNil(t, c.Flags().Lookup("dry-run"), cmd)
	}
}
