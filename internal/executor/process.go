package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
)

const (
	// stderrTailBytes bounds how much stderr is retained per module.
	stderrTailBytes = 8 << 10

	// stderrExcerptLines is how many trailing stderr lines end up in a result message.
	stderrExcerptLines = 5

	defaultWaitDelay = 5 * time.Second
)

// ProcessInvoker runs each module as an external process. On Unix the
// process gets its own process group so that a timeout or cancellation
// kills the whole tree the module spawned.
type ProcessInvoker struct {
	Dir    string            // working directory; empty means the current one
	Env    map[string]string // added on top of the inherited environment
	Stdout io.Writer         // module stdout; nil discards it
	Stderr io.Writer         // module stderr is also streamed here when set

	// WaitDelay bounds how long to wait for output pipes after the module
	// is killed. Zero means five seconds.
	WaitDelay time.Duration
}

// Invoke runs d.Location and waits for it. A non-zero exit is returned as an
// error carrying the last lines the module wrote to stderr.
func (p *ProcessInvoker) Invoke(ctx context.Context, d task.Descriptor) error {
	cmd := exec.CommandContext(ctx, d.Location)
	cmd.Dir = p.Dir
	configureProcessGroup(cmd)
	cmd.WaitDelay = p.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	// Environment precedence (highest to lowest): p.Env, MODRUN_MODULE, inherited.
	cmd.Env = append(os.Environ(), "MODRUN_MODULE="+d.ID)
	for k, v := range p.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	tail := &tailBuffer{limit: stderrTailBytes}
	if p.Stdout != nil {
		cmd.Stdout = p.Stdout
	}
	if p.Stderr != nil {
		cmd.Stderr = io.MultiWriter(p.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	if err := cmd.Run(); err != nil {
		if excerpt := tail.Excerpt(stderrExcerptLines); excerpt != "" {
			return fmt.Errorf("%w: %s", err, excerpt)
		}
		return err
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

// Excerpt returns the last n non-blank lines joined with " | ".
func (t *tailBuffer) Excerpt(n int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lines []string
	for _, line := range bytes.Split(t.buf, []byte("\n")) {
		if s := strings.TrimSpace(string(line)); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
