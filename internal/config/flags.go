package config

import "flag"

// Flags holds the command-line overrides.
type Flags struct {
	config     *string
	debug      *bool
	speed      *float64
	mesh       *string
	primitive  *string
	windowed   *bool
	fullscreen *bool
	width      *int
	height     *int
}

// cli is bound to the process-wide flag set.
var cli = Bind(flag.CommandLine)

// Bind registers the override flags on fs.
func Bind(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		speed:      fs.Float64("speed", 0, "Fold speed multiplier"),
		mesh:       fs.String("mesh", "", "Mesh file to reveal (.obj, .stl)"),
		primitive:  fs.String("primitive", "", "Built-in mesh to reveal"),
		windowed:   fs.Bool("windowed", false, "Run in windowed mode"),
		fullscreen: fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		width:      fs.Int("width", 0, "Window width"),
		height:     fs.Int("height", 0, "Window height"),
	}
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return cli.ConfigPath()
}

// ConfigPath returns the -config value.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.speed > 0 {
		cfg.Fold.Speed = float32(*f.speed)
	}
	if *f.mesh != "" {
		cfg.Mesh.Path = *f.mesh
	}
	if *f.primitive != "" {
		cfg.Mesh.Path = ""
		cfg.Mesh.Primitive = *f.primitive
	}
	if *f.windowed {
		cfg.Viewer.Fullscreen = false
	}
	if *f.fullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *f.width > 0 {
		cfg.Viewer.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Viewer.Height = *f.height
	}
}
