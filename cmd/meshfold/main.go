// meshfold is a CLI utility for inspecting and running mesh reveals
// without a window.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/meshfold/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	logger.Sync()
	if errors.Is(err, errUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "info":
		return cmdInfo(rest, out)
	case "plan":
		return cmdPlan(rest, out)
	case "run":
		return cmdRun(rest, out)
	case "render":
		return cmdRender(rest, out)
	case "init-config":
		return cmdInitConfig(rest, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshfold - mesh unfold reveal utility

Usage:
  meshfold <command> [options] [mesh]

The mesh argument is an .obj/.stl file or a built-in primitive
(cube, disc, grid, icosphere, quad, triangle). Without it the mesh
from the config file is used.

Commands:
  info [mesh]               Show mesh topology statistics
  plan [-seed N] [mesh]     Show the reveal stages for a seed
  run [-seed N] [mesh]      Simulate a reveal and report its timing
  render [-o dir] [mesh]    Write a PNG per stage of a reveal
  init-config [path]        Write the default config file

Common options:
  -config <file>            Config file
  -speed <x>                Fold speed multiplier
  -debug                    Debug logging

Examples:
  meshfold info bunny.obj
  meshfold plan -seed 12 icosphere
  meshfold run -fps 30 -speed 2 cube
  meshfold render -o frames -size 512 -every 4 disc`)
}
