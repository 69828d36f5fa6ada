package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_Typed(t *testing.T) {
	t.Setenv("GUIDE_TEST_BOOL", "true")
	t.Setenv("GUIDE_TEST_INT", "7")
	t.Setenv("GUIDE_TEST_BAD_INT", "seven")
	t.Setenv("GUIDE_TEST_MS", "1500")
	t.Setenv("GUIDE_TEST_DUR", "2s")
	t.Setenv("GUIDE_TEST_STR", "relay")

	e := &EnvService{}

	assert.True(t, e.GetBool("GUIDE_TEST_BOOL", false))
	assert.False(t, e.GetBool("GUIDE_TEST_MISSING", false))
	assert.Equal(t, 7, e.GetInt("GUIDE_TEST_INT", 1))
	assert.Equal(t, 1, e.GetInt("GUIDE_TEST_BAD_INT", 1))
	assert.Equal(t, 1500*time.Millisecond, e.GetDuration("GUIDE_TEST_MS", 0))
	assert.Equal(t, 2*time.Second, e.GetDuration("GUIDE_TEST_DUR", 0))
	assert.Equal(t, time.Second, e.GetDuration("GUIDE_TEST_MISSING", time.Second))
	assert.Equal(t, "relay", e.GetWithDefault("GUIDE_TEST_STR", "openrouter"))
	assert.Equal(t, "openrouter", e.GetWithDefault("GUIDE_TEST_MISSING", "openrouter"))
}
