package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-ordering/internal/logger"
)

func TestSilentLoggerOpensNoFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	l := logger.NewSilentLogger()
	l.Debug("TEST", "debug")
	l.Info("TEST", "info")
	l.Warn("TEST", "warn")
	l.Error("TEST", "error")
	l.LogOrder("PLACE", "o1", "message")
	l.LogRealtime("restaurant:rest-1", "message")
	l.Close()

	_, err = os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err), "silent logger must not create a logs directory")
}
