package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file (.yaml, .hjson or .toml)")
	flagOut      = flag.String("out", "", "Path of the result file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers  = flag.Int("workers", -1, "Bake goroutines (0 = all CPUs, 1 = serial)")
	flagRate     = flag.Float64("rate", 0, "Sample rate (may be fractional)")
	flagGamma    = flag.Float64("gamma", -1, "Occlusion gamma")
	flagExposure = flag.Float64("exposure", -1, "Occlusion exposure")
	flagDistance = flag.Float64("distance", 0, "Falloff distance")
	flagRGBA     = flag.Bool("rgba", false, "Also write RGBA8 colors")
	flagProf     = flag.String("prof", "", "Write a CPU profile to this directory")
	flagWatch    = flag.Bool("watch", false, "Re-bake whenever the scene file changes")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config. The first positional
// argument is the scene file.
func applyFlags(cfg *Config) {
	if arg := flag.Arg(0); arg != "" {
		cfg.Run.Input = arg
	}
	if *flagOut != "" {
		cfg.Run.Output = *flagOut
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers >= 0 {
		cfg.Run.Workers = *flagWorkers
	}
	if *flagRate > 0 {
		cfg.Bake.SampleRate = *flagRate
	}
	if *flagGamma >= 0 {
		cfg.Bake.Gamma = *flagGamma
	}
	if *flagExposure >= 0 {
		cfg.Bake.Exposure = *flagExposure
	}
	if *flagDistance > 0 {
		cfg.Bake.Distance = *flagDistance
	}
	if *flagRGBA {
		cfg.Run.RGBA = true
	}
	if *flagProf != "" {
		cfg.Run.ProfileDir = *flagProf
	}
	if *flagWatch {
		cfg.Run.Watch = true
	}
}
