package resolver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Context is handed to a target body. It is bound to one target of one session and
// must not be used after the body returned.
type Context struct {
	session *Session
	name    string
	expired bool

	checks   int
	stale    int
	commands int
	pending  []domain.TargetState
}

func newContext(s *Session, name string) *Context {
	return &Context{session: s, name: name}
}

// TargetName returns the name of the target being resolved.
func (c *Context) TargetName() string {
	return c.name
}

// ForceRebuild reports whether the session was created in always-rebuild mode.
func (c *Context) ForceRebuild() bool {
	return c.session.force
}

// Resolve ensures the named target resolved at least once in this session.
// It lets a body pull in prerequisites it did not declare up front.
func (c *Context) Resolve(ctx context.Context, name string) error {
	if err := c.alive(); err != nil {
		return err
	}
	return c.session.Resolve(ctx, name)
}

// ResolveMany ensures each named target resolved, in order, stopping at the first failure.
func (c *Context) ResolveMany(ctx context.Context, names ...string) error {
	if err := c.alive(); err != nil {
		return err
	}
	return c.session.ResolveMany(ctx, names...)
}

// CheckStale reports whether outputs must be regenerated from inputs, comparing
// modification times. It is always true in force-rebuild mode or when an output is missing.
// Inputs must exist.
func (c *Context) CheckStale(inputs, outputs []string) (bool, error) {
	if err := c.alive(); err != nil {
		return false, err
	}
	checker := c.session.builder.deps.Checker
	if checker == nil {
		return false, c.notConfigured("staleness checker")
	}

	stale, err := checker.IsStale(inputs, outputs, c.session.force)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "staleness check failed"), "target", c.name)
	}
	c.observe(stale)
	return stale, nil
}

// CheckChanged reports whether outputs must be regenerated because the content of
// inputs changed since the last successful build of this target. It is always true in
// force-rebuild mode or when an output is missing. The new input digest is recorded
// only once the target body succeeds.
func (c *Context) CheckChanged(ctx context.Context, inputs, outputs []string) (bool, error) {
	if err := c.alive(); err != nil {
		return false, err
	}
	deps := c.session.builder.deps
	switch {
	case deps.Checker == nil:
		return false, c.notConfigured("staleness checker")
	case deps.Hasher == nil:
		return false, c.notConfigured("hasher")
	case deps.Store == nil:
		return false, c.notConfigured("state store")
	}

	digest, err := deps.Hasher.DigestFiles(ctx, inputs)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to digest inputs"), "target", c.name)
	}

	exist, err := deps.Checker.OutputsExist(outputs)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to check outputs"), "target", c.name)
	}

	key := stateKey(c.name, inputs)
	stale := c.session.force || !exist
	if !stale {
		prev, err := deps.Store.Get(key)
		if err != nil {
			return false, zerr.With(zerr.Wrap(err, "failed to read target state"), "target", c.name)
		}
		stale = prev == nil || prev.InputDigest != digest
	}

	c.observe(stale)
	if stale {
		c.pending = append(c.pending, domain.TargetState{
			Key:         key,
			Target:      c.name,
			InputDigest: digest,
			Timestamp:   time.Now(),
		})
	}
	return stale, nil
}

// Run executes an external process and waits for it to exit.
// A nil env inherits the current environment; otherwise env is the complete environment.
// A non-zero exit status is reported as a *domain.BenignError.
func (c *Context) Run(ctx context.Context, args []string, env map[string]string) error {
	if err := c.alive(); err != nil {
		return err
	}
	executor := c.session.builder.deps.Executor
	if executor == nil {
		return c.notConfigured("executor")
	}
	if len(args) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrEmptyCommand, "failed to run command"), "target", c.name)
	}

	c.commands++
	err := executor.Execute(ctx, args, environ(env))
	if err == nil {
		return nil
	}

	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		return &domain.BenignError{
			Target:   c.name,
			Command:  slices.Clone(args),
			ExitCode: exitErr.Code,
			Err:      err,
		}
	}
	return zerr.With(zerr.Wrap(err, "failed to run command"), "target", c.name)
}

func (c *Context) observe(stale bool) {
	c.checks++
	if stale {
		c.stale++
	}
}

// upToDate reports whether the body checked its outputs, found all of them current and
// therefore did no work.
func (c *Context) upToDate() bool {
	return c.checks > 0 && c.stale == 0 && c.commands == 0
}

// commit persists the input digests staged by CheckChanged.
func (c *Context) commit() error {
	for _, state := range c.pending {
		if err := c.session.builder.deps.Store.Put(state); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to record target state"), "target", c.name)
		}
	}
	c.pending = nil
	return nil
}

func (c *Context) expire() {
	c.expired = true
	c.pending = nil
}

func (c *Context) alive() error {
	if c.expired {
		return zerr.With(zerr.Wrap(domain.ErrContextExpired, "invalid target context"), "target", c.name)
	}
	return nil
}

func (c *Context) notConfigured(what string) error {
	return zerr.With(zerr.Wrap(domain.ErrNotConfigured, "missing "+what), "target", c.name)
}

// stateKey identifies the digest record of one (target, input list) pair.
func stateKey(target string, inputs []string) string {
	return fmt.Sprintf("%s@%016x", target, xxhash.Sum64String(strings.Join(inputs, "\x00")))
}

func environ(env map[string]string) []string {
	if env == nil {
		return nil
	}
	list := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		list = append(list, k+"="+env[k])
	}
	return list
}
