package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robalyx/keeper/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCappedFileKeepsNewestLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.log")

	file, err := logger.OpenCappedFile(path, 3)
	require.NoError(t, err)
	defer file.Close()

	for i := 1; i <= 5; i++ {
		_, err := fmt.Fprintf(file, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.Len(t, readLines(t, path), 5, "below twice the cap nothing is dropped")

	_, err = fmt.Fprintf(file, "line 6\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"line 4", "line 5", "line 6"}, readLines(t, path))

	_, err = fmt.Fprintf(file, "line 7\nline 8\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"line 4", "line 5", "line 6", "line 7", "line 8"}, readLines(t, path))
}
