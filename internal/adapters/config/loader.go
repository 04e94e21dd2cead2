// Package config provides the loader for declarative forge.yaml targets.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"slices"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up when none is given.
const DefaultFilename = "forge.yaml"

// SupportedVersion is the only schema version understood by the loader.
const SupportedVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path and returns its targets sorted by name.
func (l *Loader) Load(path string) ([]domain.TargetSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	specs, err := l.Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return specs, nil
}

// Parse decodes a forge.yaml document. Unknown fields are rejected.
func (l *Loader) Parse(data []byte) ([]domain.TargetSpec, error) {
	var file Forgefile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to parse config file")
	}

	if file.Version != "" && file.Version != SupportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unsupported config version"), "version", file.Version)
	}

	specs := make([]domain.TargetSpec, 0, len(file.Targets))
	for name, dto := range file.Targets {
		spec, err := l.toSpec(name, dto, file.Targets)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	slices.SortFunc(specs, func(a, b domain.TargetSpec) int {
		return strings.Compare(a.Name, b.Name)
	})
	return specs, nil
}

func (l *Loader) toSpec(name string, dto TargetDTO, all map[string]TargetDTO) (domain.TargetSpec, error) {
	if strings.TrimSpace(name) == "" {
		return domain.TargetSpec{}, zerr.Wrap(domain.ErrInvalidConfig, "target name must not be empty")
	}

	for _, need := range dto.Needs {
		if _, ok := all[need]; !ok {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "missing dependency"), "target", name)
			return domain.TargetSpec{}, zerr.With(err, "missing_dependency", need)
		}
	}

	check := domain.CheckMode(dto.Check)
	switch check {
	case "":
		check = domain.CheckModificationTime
	case domain.CheckModificationTime, domain.CheckDigest:
	default:
		err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unknown check mode"), "target", name)
		return domain.TargetSpec{}, zerr.With(err, "check", dto.Check)
	}

	if len(dto.Cmd) == 0 && len(dto.Outputs) > 0 && l.Logger != nil {
		l.Logger.Warn("target " + name + " declares outputs but no cmd")
	}

	return domain.TargetSpec{
		Name:        name,
		Help:        strings.TrimSpace(dto.Help),
		Command:     dto.Cmd,
		Inputs:      canonicalizeStrings(dto.Inputs),
		Outputs:     canonicalizeStrings(dto.Outputs),
		Needs:       dto.Needs,
		Environment: dto.Environment,
		Check:       check,
	}, nil
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
