package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StalenessChecker = (*MTimeChecker)(nil)

// MTimeChecker compares file modification times.
type MTimeChecker struct{}

// NewMTimeChecker creates a new MTimeChecker.
func NewMTimeChecker() *MTimeChecker {
	return &MTimeChecker{}
}

// IsStale reports whether the newest input is strictly newer than the newest output.
// Equal timestamps are not stale. With no inputs nothing is stale, with no outputs any
// input makes the target stale.
func (c *MTimeChecker) IsStale(inputs, outputs []string, force bool) (bool, error) {
	if force {
		return true, nil
	}

	var newestOutput time.Time
	for _, output := range outputs {
		info, err := os.Stat(output)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return true, nil
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", output)
		}
		if mtime := info.ModTime(); mtime.After(newestOutput) {
			newestOutput = mtime
		}
	}

	var newestInput time.Time
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return false, zerr.With(zerr.Wrap(domain.ErrInputNotFound, "failed to stat input"), "path", input)
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", input)
		}
		if mtime := info.ModTime(); mtime.After(newestInput) {
			newestInput = mtime
		}
	}

	if len(inputs) == 0 {
		return false, nil
	}
	if len(outputs) == 0 {
		return true, nil
	}
	return newestInput.After(newestOutput), nil
}

// OutputsExist reports whether every output path exists.
func (c *MTimeChecker) OutputsExist(outputs []string) (bool, error) {
	for _, output := range outputs {
		if _, err := os.Stat(output); err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", output)
		}
	}
	return true, nil
}
