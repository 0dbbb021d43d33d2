// Copyright 2026 The mmusim Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"mmusim.dev/mmusim/pkg/machine"
	"mmusim.dev/mmusim/pkg/mmu"
)

// runCmd implements subcommands.Command for the "run" command.
type runCmd struct {
	config string
	debug  bool
}

// Name implements subcommands.Command.
func (*runCmd) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.
func (*runCmd) Synopsis() string {
	return "run an operation trace against a fresh machine"
}

// Usage implements subcommands.Command.
func (*runCmd) Usage() string {
	return `run [flags] <trace file> - run an operation trace against a fresh machine
`
}

// SetFlags implements subcommands.Command.
func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "path to a machine geometry TOML file (default geometry if empty)")
	f.BoolVar(&c.debug, "debug", false, "log every trace operation")
}

// Execute implements subcommands.Command.
func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	log := logrus.New()
	if c.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	geo := machine.Default()
	if c.config != "" {
		var err error
		geo, err = machine.Load(c.config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return subcommands.ExitFailure
		}
	}

	tf, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening trace: %v\n", err)
		return subcommands.ExitFailure
	}
	defer tf.Close()

	ops, err := parseTrace(tf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	m, err := mmu.New(geo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	execute(m, ops, log)

	log.WithFields(logrus.Fields{
		"processes": len(m.Processes()),
		"pid":       m.Current().ID,
	}).Info("trace complete")
	return subcommands.ExitSuccess
}
