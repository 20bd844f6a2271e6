package config

// File is the structure of stashsync.yaml.
type File struct {
	PollIntervalMs *int        `yaml:"pollIntervalMs"`
	GCIntervalMs   *int        `yaml:"gcIntervalMs"`
	Persistence    string      `yaml:"persistence"`
	Log            LogDTO      `yaml:"log"`
	Upstream       UpstreamDTO `yaml:"upstream"`
}

// LogDTO configures logging.
type LogDTO struct {
	JSON  bool   `yaml:"json"`
	Level string `yaml:"level"`
}

// UpstreamDTO tunes the simulated upstream.
type UpstreamDTO struct {
	LatencyMs   int `yaml:"latencyMs"`
	StaleReadMs int `yaml:"staleReadMs"`
}
