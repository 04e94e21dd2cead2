// Package domain contains the core domain models of the build engine.
package domain

import "time"

// TargetInfo describes a registered target for listings.
type TargetInfo struct {
	Name string
	Help string
}

// CheckMode selects how a declarative target decides whether it is up to date.
type CheckMode string

const (
	// CheckModificationTime compares input and output modification times.
	CheckModificationTime CheckMode = "mtime"
	// CheckDigest compares a content digest of the inputs against the last recorded build.
	CheckDigest CheckMode = "digest"
)

// TargetSpec is a declaratively configured target, as loaded from forge.yaml.
type TargetSpec struct {
	Name        string
	Help        string
	Command     []string
	Inputs      []string
	Outputs     []string
	Needs       []string
	Environment map[string]string
	Check       CheckMode
}

// TargetState records the input digest a target body last built successfully from.
type TargetState struct {
	Key         string    `json:"key,omitzero"`
	Target      string    `json:"target,omitzero"`
	InputDigest string    `json:"input_digest,omitzero"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
}
