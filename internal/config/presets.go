package config

var Presets = map[string]*Config{
	"small": {
		Bodies: 256, Frames: 50, WriteStep: 5, Threads: 1, Integrator: "euler",
		DataDir: DefaultDataDir, LogLevel: DefaultLogLevel,
	},
	"galaxy": {
		Bodies: 4096, Frames: 1000, WriteStep: 20, Threads: 8, Integrator: "forest-ruth",
		Backups: true, DataDir: DefaultDataDir, LogLevel: DefaultLogLevel,
	},
	"gpu": {
		Bodies: 16384, Frames: 2000, WriteStep: 50, Threads: 1, Integrator: "verlet",
		GPU: true, Backups: true, DataDir: DefaultDataDir, LogLevel: DefaultLogLevel,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
