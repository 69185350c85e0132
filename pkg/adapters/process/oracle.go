package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
)

// Oracle answers membership queries through an external program. Each batch
// starts the program once: the serialized query tree goes to its stdin and an
// acceptance stream is expected on its stdout.
type Oracle struct {
	cfg     Config
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the oracle.
type Option func(*Oracle)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

// New creates an oracle running cfg.Command.
func New(cfg Config, opts ...Option) (*Oracle, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("process oracle: command is required")
	}
	o := &Oracle{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("process oracle: invalid timeout: %w", err)
		}
		o.timeout = d
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// AnswerBatch runs the program on a serialized query tree and returns its output.
func (o *Oracle) AnswerBatch(ctx context.Context, queries []byte) ([]byte, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	// Arguments stay fixed; queries travel only through stdin.
	cmd := exec.CommandContext(ctx, o.cfg.Command, o.cfg.Args...)
	cmd.Dir = o.cfg.Dir
	cmd.Env = cmd.Environ()
	for k, v := range o.cfg.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(queries)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("oracle %s: %w", o.name(), ctxErr)
		}
		return nil, fmt.Errorf("oracle %s failed: %v. Stderr: %s", o.name(), err, stderr.String())
	}
	o.logger.Debug("oracle batch answered", "oracle", o.name(), "duration", time.Since(start), "bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// Contains asks the program about a single word.
func (o *Oracle) Contains(ctx context.Context, w domain.Word) (bool, error) {
	kb := knowledge.New()
	if !kb.MarkRequired(w) {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidWord, w)
	}
	out, err := o.AnswerBatch(ctx, kb.CreateQueryTree().Serialize())
	if err != nil {
		return false, err
	}
	answers, err := knowledge.DecodeAcceptances(out)
	if err != nil {
		return false, err
	}
	if len(answers) != 1 {
		return false, fmt.Errorf("%w: got %d answers for 1 query", domain.ErrAnswerCountMismatch, len(answers))
	}
	return answers[0], nil
}

func (o *Oracle) name() string {
	if o.cfg.Name != "" {
		return o.cfg.Name
	}
	return o.cfg.Command
}
