package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"hookstate/internal/settings"

	"github.com/stretchr/testify/suite"
)

type UnitTestSuite struct {
	suite.Suite

	bin      string
	charmDir string
}

func TestUnitTestSuite(t *testing.T) {
	suite.Run(t, new(UnitTestSuite))
}

func (s *UnitTestSuite) SetupTest() {
	s.bin = s.T().TempDir()
	s.charmDir = s.T().TempDir()
	s.T().Setenv("PATH", s.bin)
	s.T().Setenv(settings.CharmDirKey, s.charmDir)
	s.T().Setenv(settings.UnitNameKey, "mysql/0")
	s.T().Setenv(settings.HookNameKey, "config-changed")
	s.T().Setenv("SNAPSHOT_BACKEND", "")
	s.T().Setenv(settings.PublisherKey, "")
	s.setConfig(`{"port": 3306}`)
}

func (s *UnitTestSuite) setConfig(cfg string) {
	script := "#!/bin/sh\nprintf '%s\\n' '" + cfg + "'\n"
	s.Require().NoError(os.WriteFile(filepath.Join(s.bin, "config-get"), []byte(script), 0o755))
}

func (s *UnitTestSuite) exec(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (s *UnitTestSuite) TestRunSavesSnapshot() {
	code, _, errOut := s.exec("run")
	s.Equal(0, code, errOut)

	b, err := os.ReadFile(settings.SnapshotPath(s.charmDir))
	s.NoError(err)
	s.JSONEq(`{"port": 3306}`, string(b))
}

func (s *UnitTestSuite) TestChanged() {
	code, out, _ := s.exec("changed", "port")
	s.Equal(0, code)
	s.Equal("port: true\n", out)

	code, _, _ = s.exec("run")
	s.Equal(0, code)

	_, out, _ = s.exec("changed", "port", "other")
	s.Equal("port: false\nother: false\n", out)

	s.setConfig(`{"port": 3307}`)
	_, out, _ = s.exec("changed", "port")
	s.Equal("port: true\n", out)
}

func (s *UnitTestSuite) TestChangedDoesNotSave() {
	code, _, _ := s.exec("changed", "port")
	s.Equal(0, code)
	_, err := os.Stat(settings.SnapshotPath(s.charmDir))
	s.True(os.IsNotExist(err))
}

func (s *UnitTestSuite) TestChangedNeedsKey() {
	code, _, errOut := s.exec("changed")
	s.Equal(1, code)
	s.Contains(errOut, "Error:")
}

func (s *UnitTestSuite) TestRunWithoutCharmDir() {
	s.T().Setenv(settings.CharmDirKey, "")
	code, _, errOut := s.exec("run")
	s.Equal(1, code)
	s.Contains(errOut, settings.CharmDirKey)
}

func (s *UnitTestSuite) TestRunUnknownBackend() {
	s.T().Setenv("SNAPSHOT_BACKEND", "floppy")
	code, _, errOut := s.exec("run")
	s.Equal(1, code)
	s.Contains(errOut, "floppy")
}

func (s *UnitTestSuite) TestRunConfigGetFails() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.bin, "config-get"), []byte("#!/bin/sh\nexit 1\n"), 0o755))
	code, _, _ := s.exec("run")
	s.Equal(1, code)
	_, err := os.Stat(settings.SnapshotPath(s.charmDir))
	s.True(os.IsNotExist(err))
}

func (s *UnitTestSuite) TestStatusWithoutTools() {
	code, out, _ := s.exec("status")
	s.Equal(0, code)
	s.Equal("unknown: \n", out)

	code, _, errOut := s.exec("status", "bogus", "x")
	s.Equal(1, code)
	s.Contains(errOut, "bogus")
}
