package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagAsset    = flag.String("asset", "", "Model asset path or URL")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
	flagNoRotate = flag.Bool("no-rotate", false, "Disable auto-rotation")
	flagWatch    = flag.Bool("watch", false, "Remount the viewer when the asset file changes")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file as well")
)

// ParseFlags parses command-line flags. Call this early in main().
// A single positional argument is taken as the asset.
func ParseFlags() {
	flag.Parse()
	if *flagAsset == "" && flag.NArg() > 0 {
		*flagAsset = flag.Arg(0)
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAsset != "" {
		cfg.Viewer.Asset = *flagAsset
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagNoRotate {
		cfg.Viewer.AutoRotate = false
	}
	if *flagWatch {
		cfg.Watch = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
