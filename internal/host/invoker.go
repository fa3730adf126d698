package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"kudubot/internal/domain"
	"kudubot/internal/protocol"
	"kudubot/internal/transport"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeoutSeconds = 30
	maxOutputBytes        = 4096
)

var (
	ErrServiceFailed = errors.New("service failed")
	ErrTimeout       = errors.New("service timed out")
	ErrBadResponse   = errors.New("bad service response")
)

type InvokerConfig struct {
	// WorkDir holds one exchange directory per service.
	WorkDir        string
	TimeoutSeconds int
	KeepFiles      bool
}

// Invoker runs one external service, one invocation per call.
type Invoker struct {
	manifest  Manifest
	dir       string
	timeout   time.Duration
	keepFiles bool
	logger    zerolog.Logger
	newID     func() string
}

func NewInvoker(m Manifest, cfg InvokerConfig, logger zerolog.Logger) *Invoker {
	seconds := m.TimeoutSeconds
	if seconds <= 0 {
		seconds = cfg.TimeoutSeconds
	}
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	// The service runs inside dir and receives paths under it, so both must
	// survive the change of working directory.
	dir, err := filepath.Abs(filepath.Join(cfg.WorkDir, m.Name))
	if err != nil {
		dir = filepath.Join(cfg.WorkDir, m.Name)
		logger.Warn().Err(err).Str("dir", dir).Msg("cannot make exchange dir absolute")
	}
	return &Invoker{
		manifest:  m,
		dir:       dir,
		timeout:   time.Duration(seconds) * time.Second,
		keepFiles: cfg.KeepFiles,
		logger:    logger.With().Str("service", m.Name).Logger(),
		newID:     uuid.NewString,
	}
}

// IsApplicable asks the service whether it wants to handle msg.
func (inv *Invoker) IsApplicable(ctx context.Context, msg domain.Message) (bool, error) {
	ex, err := inv.exchange(ctx, protocol.IsApplicableTo, msg)
	if err != nil {
		return false, err
	}
	defer ex.cleanup()

	applicable, err := parseApplicability(ex.response)
	if err != nil {
		return false, err
	}
	inv.logger.Debug().Bool("applicable", applicable).Msg("applicability checked")
	return applicable, nil
}

// Handle lets the service process msg. It returns the reply to send, or nil
// when the service chose not to reply.
func (inv *Invoker) Handle(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	ex, err := inv.exchange(ctx, protocol.HandleMessage, msg)
	if err != nil {
		return nil, err
	}
	defer ex.cleanup()

	send, err := parseHandle(ex.response)
	if err != nil {
		return nil, err
	}
	if !send {
		inv.logger.Debug().Msg("service chose not to reply")
		return nil, nil
	}

	reply, err := transport.ReadMessage(ex.messagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reply: %w", ErrBadResponse, err)
	}
	return &reply, nil
}

type exchange struct {
	messagePath  string
	responsePath string
	response     []byte
	cleanup      func()
}

// exchange writes msg, runs the service in mode and reads the response file.
// On success the caller owns cleanup; on failure the files are already gone.
func (inv *Invoker) exchange(ctx context.Context, mode protocol.Mode, msg domain.Message) (*exchange, error) {
	if err := os.MkdirAll(inv.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create exchange dir: %w", domain.ErrIO, err)
	}

	id := inv.newID()
	ex := &exchange{
		messagePath:  filepath.Join(inv.dir, id+".json"),
		responsePath: filepath.Join(inv.dir, id+"-response.json"),
	}
	ex.cleanup = func() { inv.removeFiles(ex.messagePath, ex.responsePath) }

	if err := transport.WriteMessage(ex.messagePath, msg); err != nil {
		ex.cleanup()
		return nil, err
	}

	if err := inv.run(ctx, mode, ex); err != nil {
		ex.cleanup()
		return nil, err
	}

	data, err := os.ReadFile(ex.responsePath)
	if err != nil {
		ex.cleanup()
		return nil, fmt.Errorf("%w: no response file: %w", ErrBadResponse, err)
	}
	ex.response = data
	return ex, nil
}

func (inv *Invoker) run(ctx context.Context, mode protocol.Mode, ex *exchange) error {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	argv := inv.manifest.Argv(mode.String(), ex.messagePath, ex.responsePath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.dir
	cmd.WaitDelay = time.Second

	start := time.Now()
	output, err := cmd.CombinedOutput()
	log := inv.logger.With().Str("mode", mode.String()).Dur("took", time.Since(start)).Logger()
	if len(output) > 0 {
		log.Debug().Str("output", truncate(string(output))).Msg("service output")
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, inv.timeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(truncate(string(output)))
		if msg == "" {
			return fmt.Errorf("%w: %w", ErrServiceFailed, err)
		}
		return fmt.Errorf("%w: %w: %s", ErrServiceFailed, err, msg)
	}

	log.Debug().Msg("service finished")
	return nil
}

func (inv *Invoker) removeFiles(paths ...string) {
	if inv.keepFiles {
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			inv.logger.Warn().Err(err).Str("path", p).Msg("cannot remove exchange file")
		}
	}
}

func truncate(s string) string {
	if len(s) > maxOutputBytes {
		return s[:maxOutputBytes] + "\n... (output truncated)"
	}
	return s
}
