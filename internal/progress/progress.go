// Package progress implements the ProgressReporter component (spec.md
// §4.5): a multi-line terminal renderer showing, for each test case, a
// status prefix finalised to a coloured one-line summary once its
// Verdict is known. Rendering runs on a dedicated drawing goroutine so it
// never blocks the Scheduler's worker pool.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/width"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// spinnerFrames matches the visual cadence of a terminal spinner without
// pulling in a dedicated spinner library — the corpus has no
// indicatif-equivalent dependency (see DESIGN.md).
var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

type lineState int

const (
	stateJudging lineState = iota
	stateDone
)

type line struct {
	name  string
	state lineState
	text  string
	color *color.Color
}

// Reporter draws one line per test case to w, redrawing in place via
// cursor-up + carriage-return escapes. It implements
// scheduler.Reporter without importing that package, so a caller can
// wire it directly: r.Started / r.Finished satisfy the interface by
// structural typing.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	enabled  bool
	lines    []line
	nameW    int
	total    int
	tickStop chan struct{}
	tickDone chan struct{}
	frame    int
	started  time.Time
}

// NewAuto constructs a Reporter writing to w, auto-detecting whether
// rendering should be suppressed: off when fd is not a terminal (spec.md
// §4.5). It does not consult NO_COLOR or any quiet setting; New takes an
// explicit enabled flag for that.
func NewAuto(w io.Writer, fd uintptr, names []string) *Reporter {
	isTTY := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return New(w, isTTY, names)
}

// New constructs a Reporter. enabled=false makes every method a no-op,
// satisfying spec.md §4.5's "when stderr is not a TTY, rendering is
// suppressed."
func New(w io.Writer, enabled bool, names []string) *Reporter {
	r := &Reporter{
		w:       w,
		enabled: enabled,
		lines:   make([]line, len(names)),
		total:   len(names),
	}
	for i, n := range names {
		r.lines[i] = line{name: n, state: stateJudging}
		if width.StringWidth(quoted(n)) > r.nameW {
			r.nameW = width.StringWidth(quoted(n))
		}
	}
	return r
}

// Start begins the drawing goroutine. Must be paired with Stop.
func (r *Reporter) Start() {
	if !r.enabled {
		return
	}
	r.started = time.Now()
	r.tickStop = make(chan struct{})
	r.tickDone = make(chan struct{})
	r.draw()
	go func() {
		defer close(r.tickDone)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.mu.Lock()
				r.frame++
				r.redraw()
				r.mu.Unlock()
			case <-r.tickStop:
				return
			}
		}
	}()
}

// Stop halts the drawing goroutine and leaves the final state on screen.
func (r *Reporter) Stop() {
	if !r.enabled {
		return
	}
	close(r.tickStop)
	<-r.tickDone
	r.mu.Lock()
	r.redraw()
	r.mu.Unlock()
}

// Started records that a case transitioned to Running (spec.md §4.3).
func (r *Reporter) Started(index int, tc judging.TestCase) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[index].state = stateJudging
	r.redraw()
}

// Finished records a terminal Verdict and finalises the case's line to a
// coloured one-line summary.
func (r *Reporter) Finished(index int, tc judging.TestCase, v judging.Verdict) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[index].state = stateDone
	r.lines[index].text = summary(v)
	r.lines[index].color = summaryColor(v.Kind)
	r.redraw()
}

// draw renders every line for the first time (no prior frame to erase).
func (r *Reporter) draw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		fmt.Fprintln(r.w, r.renderLine(i))
	}
}

// redraw moves the cursor up total lines and rewrites them in place.
func (r *Reporter) redraw() {
	fmt.Fprintf(r.w, "\x1b[%dA", r.total)
	for i := range r.lines {
		fmt.Fprint(r.w, "\r\x1b[2K")
		fmt.Fprintln(r.w, r.renderLine(i))
	}
}

func (r *Reporter) renderLine(i int) string {
	l := r.lines[i]
	prefix := fmt.Sprintf("%s/%d (%s)", rightAlign(i+1, r.total), r.total, leftAlign(quoted(l.name), r.nameW))
	if l.state == stateDone && l.color != nil {
		return prefix + " " + l.color.Sprint(l.text)
	}
	spin := string(spinnerFrames[r.frame%len(spinnerFrames)])
	return prefix + " " + spin + " Judging..."
}

func summary(v judging.Verdict) string {
	ms := v.Elapsed.Round(time.Millisecond).Milliseconds()
	switch v.Kind {
	case judging.Accepted:
		return fmt.Sprintf("Accepted (%d ms)", ms)
	case judging.TimelimitExceeded:
		var tl time.Duration
		if v.Timelimit != nil {
			tl = *v.Timelimit
		}
		return fmt.Sprintf("Timelimit Exceeded (%d ms)", tl.Milliseconds())
	case judging.WrongAnswer:
		return fmt.Sprintf("Wrong Answer (%d ms)", ms)
	case judging.RuntimeError:
		return fmt.Sprintf("Runtime Error (%d ms, %s)", ms, v.ExitStatus.String())
	default:
		return "Unknown"
	}
}

func summaryColor(k judging.VerdictKind) *color.Color {
	switch k {
	case judging.Accepted:
		return color.New(color.FgGreen, color.Bold)
	case judging.TimelimitExceeded:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func quoted(name string) string {
	return fmt.Sprintf("%q", name)
}

func rightAlign(n, total int) string {
	s := fmt.Sprintf("%d", n)
	w := len(fmt.Sprintf("%d", total))
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}

func leftAlign(s string, w int) string {
	sw := width.StringWidth(s)
	if sw >= w {
		return s
	}
	return s + strings.Repeat(" ", w-sw)
}
