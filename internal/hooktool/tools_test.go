package hooktool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hookstate/internal/types"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type UnitTestSuite struct {
	suite.Suite

	bin    string
	calls  string
	stderr *bytes.Buffer
	tools  *Tools
}

func TestUnitTestSuite(t *testing.T) {
	suite.Run(t, new(UnitTestSuite))
}

func (s *UnitTestSuite) SetupTest() {
	s.bin = s.T().TempDir()
	s.calls = filepath.Join(s.T().TempDir(), "calls")
	s.T().Setenv("PATH", s.bin)
	s.stderr = &bytes.Buffer{}
	s.tools = &Tools{Stderr: s.stderr}
}

// install writes a fake tool that records its arguments and then runs body.
func (s *UnitTestSuite) install(name, body string) {
	script := "#!/bin/sh\necho \"" + name + " $*\" >> " + s.calls + "\n" + body + "\n"
	s.Require().NoError(os.WriteFile(filepath.Join(s.bin, name), []byte(script), 0o755))
}

func (s *UnitTestSuite) recorded() []string {
	b, err := os.ReadFile(s.calls)
	if os.IsNotExist(err) {
		return nil
	}
	s.Require().NoError(err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func (s *UnitTestSuite) TestConfigGet() {
	s.install(ConfigGetCmd, `if [ "$1" = "port" ]; then echo 3306; else echo '{"port": 3306}'; fi`)

	out, err := s.tools.Fetch(context.Background(), "")
	s.NoError(err)
	s.JSONEq(`{"port": 3306}`, string(out))

	out, err = s.tools.Fetch(context.Background(), "port")
	s.NoError(err)
	s.Equal("3306", strings.TrimSpace(string(out)))

	s.Equal([]string{"config-get --format=json", "config-get port --format=json"}, s.recorded())
}

func (s *UnitTestSuite) TestConfigGetFailure() {
	s.install(ConfigGetCmd, `echo "permission denied" >&2; exit 2`)
	_, err := s.tools.Fetch(context.Background(), "")
	s.ErrorIs(err, types.ErrToolFailed)
	s.Contains(err.Error(), "permission denied")
}

func (s *UnitTestSuite) TestConfigGetMissing() {
	_, err := s.tools.Fetch(context.Background(), "")
	s.ErrorIs(err, types.ErrToolFailed)
}

func (s *UnitTestSuite) TestStatusSet() {
	s.install(StatusSetCmd, "exit 0")
	s.install(JujuLogCmd, "exit 0")

	ok, err := s.tools.StatusSet(context.Background(), types.StateActive, "ready")
	s.NoError(err)
	s.True(ok)
	s.Equal([]string{"status-set active ready"}, s.recorded())
}

func (s *UnitTestSuite) TestStatusSetInvalidState() {
	s.install(StatusSetCmd, "exit 0")
	ok, err := s.tools.StatusSet(context.Background(), types.WorkloadState("bogus"), "x")
	s.ErrorIs(err, types.ErrInvalidStatus)
	s.False(ok)

	_, err = s.tools.StatusSet(context.Background(), types.StateUnknown, "x")
	s.ErrorIs(err, types.ErrInvalidStatus)
	s.Nil(s.recorded())
}

func (s *UnitTestSuite) TestStatusSetFailureFallsBackToLog() {
	s.install(StatusSetCmd, "exit 1")
	s.install(JujuLogCmd, "exit 0")

	ok, err := s.tools.StatusSet(context.Background(), types.StateBlocked, "need relation")
	s.NoError(err)
	s.False(ok)
	s.Equal([]string{
		"status-set blocked need relation",
		"juju-log -l INFO status-set failed: blocked need relation",
	}, s.recorded())
}

func (s *UnitTestSuite) TestStatusSetMissingFallsBackToStderr() {
	ok, err := s.tools.StatusSet(context.Background(), types.StateWaiting, "db")
	s.NoError(err)
	s.False(ok)
	s.Equal("juju-log: INFO: status-set failed: waiting db\n", s.stderr.String())
}

func (s *UnitTestSuite) TestStatusGet() {
	s.install(StatusGetCmd, `echo '{"status": "active", "message": "ready", "status-data": {}}'`)
	st, err := s.tools.StatusGet(context.Background())
	s.NoError(err)
	s.Equal(types.Status{State: types.StateActive, Message: "ready"}, st)
	s.Equal([]string{"status-get --format=json --include-data"}, s.recorded())
}

func (s *UnitTestSuite) TestStatusGetMissing() {
	st, err := s.tools.StatusGet(context.Background())
	s.NoError(err)
	s.Equal(types.Status{State: types.StateUnknown, Message: ""}, st)
}

func (s *UnitTestSuite) TestStatusGetGarbage() {
	s.install(StatusGetCmd, "echo nope")
	_, err := s.tools.StatusGet(context.Background())
	s.ErrorIs(err, types.ErrToolFailed)
}

func (s *UnitTestSuite) TestLog() {
	s.install(JujuLogCmd, "exit 0")
	s.NoError(s.tools.Log(context.Background(), "hello", ""))
	s.NoError(s.tools.Log(context.Background(), "careful", LevelWarning))
	s.Equal([]string{"juju-log hello", "juju-log -l WARNING careful"}, s.recorded())
	s.Empty(s.stderr.String())
}

func (s *UnitTestSuite) TestLogNonZeroExitIgnored() {
	s.install(JujuLogCmd, "exit 3")
	s.NoError(s.tools.Log(context.Background(), "hello", LevelInfo))
}

func (s *UnitTestSuite) TestLogMissingWritesStderr() {
	s.NoError(s.tools.Log(context.Background(), "hello", ""))
	s.NoError(s.tools.Log(context.Background(), "oops", LevelError))
	s.Equal("juju-log: hello\njuju-log: ERROR: oops\n", s.stderr.String())
}

func (s *UnitTestSuite) TestLogHook() {
	s.install(JujuLogCmd, "exit 0")

	logger := log.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true, DisableColors: true})
	logger.AddHook(NewLogHook(s.tools, log.WarnLevel))

	logger.Info("not forwarded")
	logger.Warn("forwarded")
	logger.Error("also forwarded")

	calls := s.recorded()
	s.Len(calls, 2)
	s.True(strings.HasPrefix(calls[0], "juju-log -l WARNING "), calls[0])
	s.Contains(calls[0], "forwarded")
	s.True(strings.HasPrefix(calls[1], "juju-log -l ERROR "), calls[1])
}

func (s *UnitTestSuite) TestLogHookLevels() {
	h := NewLogHook(s.tools, log.InfoLevel)
	s.ElementsMatch([]log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel, log.InfoLevel}, h.Levels())
	s.Equal(LevelCritical, jujuLevel(log.FatalLevel))
	s.Equal(LevelDebug, jujuLevel(log.TraceLevel))
}
