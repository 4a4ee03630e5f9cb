package chat

import (
	"sync"

	"github.com/Backland-Labs/waitlist/internal/articles"
	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/output"
)

const busyMessage = "Waiting for the assistant..."

// TerminalPresenter renders the conversation with an output.Printer. It also
// serves the highlight and article side effects of the built-in tools.
type TerminalPresenter struct {
	printer *output.Printer

	mu       sync.Mutex
	lastUser string
	progress *output.Progress
}

// NewTerminalPresenter creates a presenter writing through printer
func NewTerminalPresenter(printer *output.Printer) *TerminalPresenter {
	return &TerminalPresenter{printer: printer}
}

// ShowUser implements Presenter
func (p *TerminalPresenter) ShowUser(text string) {
	p.mu.Lock()
	p.lastUser = text
	p.mu.Unlock()
	p.printer.User(text)
}

// ShowAssistant implements Presenter. Messages without text are skipped.
func (p *TerminalPresenter) ShowAssistant(messages []core.Message) {
	for _, msg := range messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		if msg.Role == core.RoleUser {
			p.printer.User(text)
			continue
		}
		p.printer.Assistant(text)
	}
}

// ShowError implements Presenter
func (p *TerminalPresenter) ShowError(message string) {
	p.printer.Error("%s", message)
}

// Busy implements Presenter
func (p *TerminalPresenter) Busy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progress == nil {
		p.progress = p.printer.StartProgress(busyMessage)
	}
}

// Idle implements Presenter
func (p *TerminalPresenter) Idle() {
	p.mu.Lock()
	progress := p.progress
	p.progress = nil
	p.mu.Unlock()

	if progress != nil {
		progress.Stop()
	}
}

// HighlightCareTerms shows the user's last message again with the care terms
// marked
func (p *TerminalPresenter) HighlightCareTerms(terms []string) {
	p.mu.Lock()
	last := p.lastUser
	p.mu.Unlock()

	if last == "" {
		return
	}
	p.printer.User(p.printer.Highlight(last, terms))
}

// ShowArticles lists recommended articles under intro
func (p *TerminalPresenter) ShowArticles(intro string, list []articles.Article) {
	p.printer.Assistant(intro)
	for _, a := range list {
		p.printer.Link(a.Title, a.URL)
	}
}
