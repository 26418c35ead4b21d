package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/config"
	"github.com/Faultbox/meshfold/internal/logger"
	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

// session is the state shared by every subcommand: the merged config and
// the mesh it selects.
type session struct {
	cfg  *config.Config
	mesh meshio.Mesh
	name string
}

// newFlagSet returns a subcommand flag set carrying the config overrides.
func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs, config.Bind(fs)
}

// open parses args, loads the config and the mesh. A positional argument
// names a mesh file if one exists at that path and a primitive otherwise.
func open(fs *flag.FlagSet, cf *config.Flags, args []string) (*session, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	cfg, err := config.LoadWith(cf)
	if err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		arg := fs.Arg(0)
		if _, err := os.Stat(arg); err == nil {
			cfg.Mesh.Path = arg
		} else {
			cfg.Mesh.Path = ""
			cfg.Mesh.Primitive = arg
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}

	mesh, err := cfg.Mesh.LoadMesh()
	if err != nil {
		return nil, err
	}

	name := cfg.Mesh.Path
	if name == "" {
		name = cfg.Mesh.Primitive
	}
	logger.Debug("mesh loaded",
		zap.String("mesh", name),
		zap.Int("vertices", len(mesh.Positions)),
		zap.Int("triangles", mesh.NumTriangles()),
	)
	return &session{cfg: cfg, mesh: mesh, name: name}, nil
}

func (s *session) graph() (*topology.Graph, error) {
	g, err := topology.Build(s.mesh.Positions, s.mesh.Indices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return g, nil
}
