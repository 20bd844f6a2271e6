package declarations

// Document represents the structure of the registry declaration file.
type Document struct {
	Version    string                 `yaml:"version"`
	Resources  map[string]ResourceDTO `yaml:"resources"`
	Operations map[string]EffectDTO   `yaml:"operations"`
	Pages      map[string]PageDTO     `yaml:"pages"`
	Polling    PollingDTO             `yaml:"polling"`
}

// ResourceDTO represents a resource definition in the declaration.
type ResourceDTO struct {
	FreshnessWindowMs int64    `yaml:"freshnessWindowMs"`
	RetentionWindowMs int64    `yaml:"retentionWindowMs"`
	Pollable          bool     `yaml:"pollable"`
	DependsOn         []string `yaml:"dependsOn"`
}

// EffectDTO represents the effect entry of a write operation.
type EffectDTO struct {
	Invalidate []string `yaml:"invalidate"`
	MarkStale  []string `yaml:"markStale"`
}

// PageDTO represents a page definition in the declaration.
type PageDTO struct {
	Primary    []string `yaml:"primary"`
	Supporting []string `yaml:"supporting"`
	SyncScope  string   `yaml:"syncScope"`
}

// PollingDTO represents the polling section of the declaration.
type PollingDTO struct {
	PollIntervalMs    int64    `yaml:"pollIntervalMs"`
	PollableResources []string `yaml:"pollableResources"`
}
