package e2e

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Banner prints a colorized header for a scenario step in the logs
func (s *BaseHTTPSuite) Banner(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Do performs a request against the configured server, logging the
// method, status, and latency, plus the response body when
// E2E_DEBUG_JSON is enabled.
func (s *BaseHTTPSuite) Do(t *testing.T, method, path, user, body string) (int, string) {
	req, err := http.NewRequest(method, s.Config.ServerAddr+path, strings.NewReader(body))
	s.Require().NoError(err)
	if user != "" {
		req.Header.Set("User", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logLine := fmt.Sprintf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON && len(payload) > 0 {
		logLine += "\n" + string(payload)
	}
	t.Log(logLine)

	return resp.StatusCode, string(payload)
}
