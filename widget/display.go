package widget

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"
)

// Element identifiers written by [Widget.UpdateData].
const (
	ElementSpeed      = "speed"
	ElementDistance   = "distance"
	ElementTime       = "time"
	ElementCalories   = "calories"
	ElementLastUpdate = "last-update"
	ElementStatus     = "status"
	ElementCadence    = "cadence"

	// PropertyCadenceRate is the gauge property, a 0-100 value.
	PropertyCadenceRate = "--cadence-rate"
)

// Display text shown to the rider.
const (
	StatusOnline = "オンライン"
	StatusError  = "エラー"

	ConfirmResetMessage = "セッションをリセットしますか？"
	ResetSuccessMessage = "セッションがリセットされました"
	ResetFailedMessage  = "リセットに失敗しました"
)

// Display is the render target of the widget.
//
// Implementations must be safe for concurrent use: overlapping poll ticks
// write to the same display without coordination.
type Display interface {
	// SetText replaces the text of the element with the given id.
	SetText(id, text string)

	// SetProperty sets a named style property, e.g. [PropertyCadenceRate].
	SetProperty(name, value string)
}

// Dialog provides the blocking prompts used by [Widget.ResetSession].
type Dialog interface {
	// Confirm asks a yes/no question and blocks until answered.
	Confirm(message string) bool

	// Alert shows a message and blocks until acknowledged.
	Alert(message string)
}

// MemoryDisplay is a [Display] that records the latest value of every
// element and property.
type MemoryDisplay struct {
	mu    sync.RWMutex
	texts map[string]string
	props map[string]string
}

// NewMemoryDisplay creates an empty [MemoryDisplay].
func NewMemoryDisplay() *MemoryDisplay {
	return &MemoryDisplay{
		texts: make(map[string]string),
		props: make(map[string]string),
	}
}

// SetText implements [Display].
func (d *MemoryDisplay) SetText(id, text string) {
	d.mu.Lock()
	d.texts[id] = text
	d.mu.Unlock()
}

// SetProperty implements [Display].
func (d *MemoryDisplay) SetProperty(name, value string) {
	d.mu.Lock()
	d.props[name] = value
	d.mu.Unlock()
}

// Text returns the current text of an element and whether it was ever set.
func (d *MemoryDisplay) Text(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.texts[id]
	return v, ok
}

// Property returns the current value of a property and whether it was ever set.
func (d *MemoryDisplay) Property(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.props[name]
	return v, ok
}

// Texts returns a copy of all element texts.
func (d *MemoryDisplay) Texts() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.texts)
}

// Summary renders the current state as a single status line.
func (d *MemoryDisplay) Summary() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return fmt.Sprintf("[%s] %s km/h | %s km | %s | %s kcal | %s rpm (%s%%) | %s",
		d.texts[ElementStatus],
		d.texts[ElementSpeed],
		d.texts[ElementDistance],
		d.texts[ElementTime],
		d.texts[ElementCalories],
		d.texts[ElementCadence],
		d.props[PropertyCadenceRate],
		d.texts[ElementLastUpdate],
	)
}

// ConsoleDialog is a [Dialog] that prompts on a text stream.
type ConsoleDialog struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleDialog creates a [ConsoleDialog]. Pass the same *bufio.Reader
// used elsewhere for input so buffered lines are not lost between readers.
func NewConsoleDialog(in *bufio.Reader, out io.Writer) *ConsoleDialog {
	return &ConsoleDialog{in: in, out: out}
}

// Confirm prints the question and reads one line; only "y" or "yes"
// (any case) confirms. EOF declines.
func (c *ConsoleDialog) Confirm(message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.out, "%s [y/N]: ", message)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Alert prints the message on its own line.
func (c *ConsoleDialog) Alert(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, message)
}

// AutoDialog is a [Dialog] with a fixed confirmation answer, for
// non-interactive use.
type AutoDialog struct {
	Answer bool
	Out    io.Writer
}

// Confirm returns the fixed answer.
func (a AutoDialog) Confirm(string) bool {
	return a.Answer
}

// Alert prints the message to Out, if set.
func (a AutoDialog) Alert(message string) {
	if a.Out != nil {
		_, _ = fmt.Fprintln(a.Out, message)
	}
}
