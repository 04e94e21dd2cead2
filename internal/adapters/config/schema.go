package config

// Forgefile represents the structure of the forge.yaml configuration file.
type Forgefile struct {
	Version string               `yaml:"version"`
	Targets map[string]TargetDTO `yaml:"targets"`
}

// TargetDTO represents a target definition in the configuration.
type TargetDTO struct {
	Help        string            `yaml:"help"`
	Cmd         []string          `yaml:"cmd"`
	Inputs      []string          `yaml:"inputs"`
	Outputs     []string          `yaml:"outputs"`
	Needs       []string          `yaml:"needs"`
	Environment map[string]string `yaml:"env"`
	Check       string            `yaml:"check"`
}
