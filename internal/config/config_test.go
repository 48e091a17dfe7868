package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, name := range []string{EnvStackSize, EnvJobs, EnvDebug, EnvMemoryPages} {
		t.Setenv(name, "")
	}
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvStackSize, "8192")
	t.Setenv(EnvJobs, "3")
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvMemoryPages, "4")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{StackLimit: 8192, Jobs: 3, Debug: true, MemoryPages: 4}, c)

	opts := c.Options()
	assert.Equal(t, 3, opts.Jobs)
	assert.Equal(t, uint32(8192), opts.StackLimit)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := []struct {
		name, value, msg string
	}{
		{EnvStackSize, "-1", "stack size"},
		{EnvStackSize, "4294967296", "stack size"},
		{EnvJobs, "-2", "jobs"},
		{EnvMemoryPages, "0", "memory pages"},
		{EnvMemoryPages, "70000", "memory pages"},
		{EnvStackSize, "131072", "exceeds 1 pages"},
	}
	for _, tc := range cases {
		t.Run(tc.name+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.name, tc.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
