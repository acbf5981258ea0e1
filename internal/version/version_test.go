package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldSHA, oldBuild := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldBuild })

	assert.Equal(t, "dev (unknown, built unknown)", String())

	Version, GitSHA, BuildTime = "0.3.1", "0123456789abcdef", "2026-01-02T03:04:05Z"
	assert.Equal(t, "0.3.1 (0123456789ab, built 2026-01-02T03:04:05Z)", String())
}
