package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/testutils"
)

type BtlinkCommandSuite struct {
	CommandTestSuite
}

func TestBtlinkCommands(t *testing.T) {
	suite.Run(t, new(BtlinkCommandSuite))
}

func (s *BtlinkCommandSuite) TestStatusNeverStarted() {
	out, err := s.ExecuteCommand(rootCmd, "status")
	s.Require().NoError(err)
	s.Contains(out, "btlink should NOT run.")
	s.Contains(out, "btlink is NOT running.")
}

func (s *BtlinkCommandSuite) TestStatusJSON() {
	out, err := s.ExecuteCommand(rootCmd, "status", "--format", "json")
	s.Require().NoError(err)
	testutils.NewJSONAsserter(s.T()).Assert(out, `{"should_run": false, "running": false}`)
}

func (s *BtlinkCommandSuite) TestStatusRejectsUnknownFormat() {
	_, err := s.ExecuteCommand(rootCmd, "status", "--format", "xml")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid format")
}

func (s *BtlinkCommandSuite) TestStopWithoutDaemon() {
	_, err := s.ExecuteCommand(rootCmd, "stop")
	s.Require().ErrorIs(err, daemon.ErrNotRunning)
	s.Contains(FormatUserError(err), "not running")
}

func (s *BtlinkCommandSuite) TestStartOpenFailureExitsNonZero() {
	s.Script.Err = errors.New("no such device")
	_, err := s.ExecuteCommand(rootCmd, "start", "/dev/ttyS9")
	s.Require().ErrorIs(err, s.Script.Err)
}

func (s *BtlinkCommandSuite) TestATEchoesNumberedExchanges() {
	s.Script.Script = [][]byte{[]byte("OK\r\n")}
	out, err := s.ExecuteCommand(rootCmd, "at", "/dev/ttyS2", "AT")
	s.Require().NoError(err)
	s.Contains(out, "0# ")
	s.Contains(out, "OK")
	s.Require().Len(s.Script.Links, 1)
	s.Equal("AT\r", s.Script.Links[0].Written())
	s.True(s.Script.Links[0].Closed(), "maintenance link closed")
}

func (s *BtlinkCommandSuite) TestATRequiresCommand() {
	_, err := s.ExecuteCommand(rootCmd, "at", "/dev/ttyS2")
	s.Require().Error(err)
}

func (s *BtlinkCommandSuite) TestModeDefault() {
	s.Script.Script = [][]byte{[]byte("OK\r\n")}
	out, err := s.ExecuteCommand(rootCmd, "mode", "/dev/ttyS2", "default")
	s.Require().NoError(err)
	s.Contains(out, "default mode")
	s.Equal("AT+RUN\r", s.Script.Links[0].Written())
}

func (s *BtlinkCommandSuite) TestModeRejectsUnknownTarget() {
	_, err := s.ExecuteCommand(rootCmd, "mode", "/dev/ttyS2", "turbo")
	s.Require().Error(err)
	s.Zero(s.Script.Opens, "no device I/O for a bad mode")
}

func (s *BtlinkCommandSuite) TestFirmwareVersionCompatible() {
	s.Script.Script = [][]byte{[]byte("10\t3\t1.8.88.0\r\n")}
	out, err := s.ExecuteCommand(rootCmd, "firmware-version", "/dev/ttyS2")
	s.Require().NoError(err)
	s.Contains(out, "required version: 1.8.88.0")
	s.Contains(out, "ready to work.")
}

func (s *BtlinkCommandSuite) TestFirmwareVersionJSON() {
	s.Script.Script = [][]byte{[]byte("10\t3\t2.0.0.1\r\n")}
	out, err := s.ExecuteCommand(rootCmd, "firmware-version", "/dev/ttyS2", "--format", "json")
	s.Require().NoError(err)
	testutils.NewJSONAsserter(s.T()).Assert(out,
		`{"required": "1.8.88.0", "discovered": "2.0.0.1", "compatible": true}`)
}

func (s *BtlinkCommandSuite) TestFirmwareVersionUpgradeRequired() {
	s.Script.Script = [][]byte{[]byte("10\t3\t1.8.87.99\r\n")}
	out, err := s.ExecuteCommand(rootCmd, "firmware-version", "/dev/ttyS2")
	s.Require().ErrorIs(err, errUpgradeRequired)
	s.Contains(out, "upgrade required.")
}

func (s *BtlinkCommandSuite) TestInvalidLogLevel() {
	_, err := s.ExecuteCommand(rootCmd, "status", "--log-level", "shouty")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid log level")
}
