package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// LiveServicesSuite loads the dotenv settings file before each live suite.
// Suites skip themselves when the credentials they need are absent.
type LiveServicesSuite struct {
	suite.Suite
	settingsFile string
}

func (s *LiveServicesSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}
	s.settingsFile = settingsFile

	if _, err := os.Stat(settingsFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && settingsFromEnv == "" {
			return
		}
		require.NoError(s.T(), err)
		return
	}

	require.NoError(s.T(), godotenv.Overload(settingsFile))
}

// requireEnv returns the trimmed value of key or skips the suite.
func (s *LiveServicesSuite) requireEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		s.T().Skipf("%s is not set; skipping live service test", key)
	}
	return value
}
