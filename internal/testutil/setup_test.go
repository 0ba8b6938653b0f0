package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pigdbc/dat-conditional-updater/internal/format"
)

func TestSetupReferenceInput(t *testing.T) {
	_, input := SetupReferenceInput(t)
	data, err := os.ReadFile(input)
	require.NoError(t, err)
	require.Len(t, data, 5*format.DefaultRecordSize)
	require.Equal(t, "534", Field(t, data, format.DefaultRecordSize, 1, 78, 3))
	require.Equal(t, "99", Field(t, data, format.DefaultRecordSize, 3, 234, 2))
}

func TestResolvePath(t *testing.T) {
	path := ResolvePath(t, ConfigINI)
	_, err := os.Stat(path)
	require.NoError(t, err)
}
