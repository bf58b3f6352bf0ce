package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, APIVersion, info.APIVersion)
	assert.Equal(t, runtime.Version(), info.GoVersion)

	full := GetFullVersionString()
	assert.Contains(t, full, "switchrecon v"+Version)
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
}
