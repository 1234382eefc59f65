package main

import (
	"bytes"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/seriallink"
	"github.com/srg/btlink/internal/testutils"
)

// CommandTestSuite wires a scripted serial link behind the command
// surface and restores the real opener afterwards. All cmd/btlink test
// suites embed this.
type CommandTestSuite struct {
	suite.Suite
	Script *testutils.LinkScript
}

func (s *CommandTestSuite) SetupTest() {
	s.Script = &testutils.LinkScript{}
	linkOpener = func(device string, opts *seriallink.Options, logger *logrus.Logger) (daemon.LinkTransport, error) {
		l, err := s.Script.Open(device)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	// Flag state leaks between executions of the shared command tree.
	statusFormat = "table"
	firmwareFormat = "table"
	_ = rootCmd.PersistentFlags().Set("log-level", "")
	_ = rootCmd.PersistentFlags().Set("config", "")
}

func (s *CommandTestSuite) TearDownTest() {
	linkOpener = nil
}

// ExecuteCommand runs the command tree with args, returns combined
// output and error.
func (s *CommandTestSuite) ExecuteCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
