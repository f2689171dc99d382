package hoststr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs(t *testing.T) {
	args := Args()
	assert.Len(t, args, len(os.Args))
	for i, a := range args {
		assert.Equal(t, os.Args[i], a.String())
		assert.Equal(t, Host.Model(), a.Model())
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("HOSTSTR_TEST_VALUE", "v=1 é")

	s, ok := Getenv("HOSTSTR_TEST_VALUE")
	assert.True(t, ok)
	assert.Equal(t, "v=1 é", s.String())

	_, ok = Getenv("HOSTSTR_TEST_UNSET_VARIABLE")
	assert.False(t, ok)
}

func TestFromPath(t *testing.T) {
	p := FromPath(filepath.Join("a", "..", "b", ".", "c"))
	assert.Equal(t, filepath.Join("b", "c"), p.String())
}
