package output

import (
	"fmt"
	"sync"
	"time"
)

// Progress is a spinner shown while a request is outstanding
type Progress struct {
	printer   *Printer
	message   string
	startTime time.Time
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// Spinner characters for animation
var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// StartProgress creates and starts a new progress indicator
func (p *Printer) StartProgress(message string) *Progress {
	progress := &Progress{
		printer:   p,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	progress.wg.Add(1)
	go progress.animate()

	return progress
}

// UpdateMessage updates the progress message
func (p *Progress) UpdateMessage(message string) {
	p.mu.Lock()
	p.message = message
	p.mu.Unlock()
}

// Stop stops the progress indicator and clears the line. It is safe to call
// more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.printer.clearLine()
	})
}

func (p *Progress) animate() {
	defer p.wg.Done()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	frame := 0
	p.render(frame)

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			frame++
			p.render(frame)
		}
	}
}

func (p *Progress) render(frame int) {
	p.mu.Lock()
	message := p.message
	p.mu.Unlock()

	spinner := spinnerChars[frame%len(spinnerChars)]
	elapsed := p.printer.detail.Sprintf("[%s]", formatDuration(time.Since(p.startTime)))
	line := fmt.Sprintf("\r%s %s", p.printer.info.Sprint(spinner+" "+message), elapsed)

	p.printer.write(p.printer.out, line+"\033[K")
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
