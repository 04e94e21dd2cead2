package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestBenignError_Error(t *testing.T) {
	err := &domain.BenignError{
		Target:   "lint",
		Command:  []string{"go", "vet", "./..."},
		ExitCode: 2,
	}

	assert.Equal(t, `target "lint": command "go vet ./..." exited with status 2`, err.Error())
}

func TestIsBenign(t *testing.T) {
	exitErr := &domain.ExitError{Args: []string{"false"}, Code: 1}
	benign := &domain.BenignError{Target: "t", Command: exitErr.Args, ExitCode: 1, Err: exitErr}

	assert.True(t, domain.IsBenign(benign))
	assert.True(t, domain.IsBenign(zerr.Wrap(benign, "while resolving")))
	assert.False(t, domain.IsBenign(exitErr))
	assert.False(t, domain.IsBenign(domain.ErrTargetNotFound))
	assert.False(t, domain.IsBenign(nil))

	var unwrapped *domain.ExitError
	assert.True(t, errors.As(benign, &unwrapped))
	assert.Equal(t, 1, unwrapped.Code)
}

func TestExitError_Error(t *testing.T) {
	err := &domain.ExitError{Args: []string{"sh", "-c", "exit 3"}, Code: 3}
	assert.Equal(t, `command "sh -c exit 3" exited with status 3`, err.Error())
}
