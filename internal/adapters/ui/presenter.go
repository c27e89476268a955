// Package ui defines the presentation-layer contract the tracker's surfaces
// implement, plus an in-memory implementation used by tests. Rendering
// itself stays outside the module; the contract only carries the data and
// the notices a surface must be able to show.
package ui

import (
	"context"
	"sync"

	"matchcore/pkg/domain"
)

// Severity classifies a user-facing notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a transient user-facing message.
type Notice struct {
	Title    string
	Message  string
	Severity Severity
}

// Presenter is implemented by anything that can surface tracker state to a
// person: a web view, a TUI, a test double. Implementations must tolerate
// Render being called again with the same kind after every mutation.
type Presenter interface {
	// Render replaces the displayed collection for one entity kind.
	Render(kind domain.EntityType, collection any)
	// ShowNotice surfaces a transient message.
	ShowNotice(notice Notice)
	// ConfirmDestructive asks the person to approve an irreversible action.
	ConfirmDestructive(prompt string) bool
}

// MemoryPresenter records every call for assertions. Confirmations answer
// with the configured Approve value.
type MemoryPresenter struct {
	mu       sync.Mutex
	Approve  bool
	rendered map[domain.EntityType]any
	notices  []Notice
	prompts  []string
}

// NewMemoryPresenter returns a presenter that approves destructive prompts.
func NewMemoryPresenter() *MemoryPresenter {
	return &MemoryPresenter{Approve: true, rendered: make(map[domain.EntityType]any)}
}

func (p *MemoryPresenter) Render(kind domain.EntityType, collection any) {
	p.mu.Lock()
	p.rendered[kind] = collection
	p.mu.Unlock()
}

func (p *MemoryPresenter) ShowNotice(notice Notice) {
	p.mu.Lock()
	p.notices = append(p.notices, notice)
	p.mu.Unlock()
}

func (p *MemoryPresenter) ConfirmDestructive(prompt string) bool {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	approve := p.Approve
	p.mu.Unlock()
	return approve
}

// Rendered returns the last collection rendered for kind.
func (p *MemoryPresenter) Rendered(kind domain.EntityType) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.rendered[kind]
	return c, ok
}

// Notices returns a copy of all shown notices.
func (p *MemoryPresenter) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notice, len(p.notices))
	copy(out, p.notices)
	return out
}

// Prompts returns a copy of all confirmation prompts.
func (p *MemoryPresenter) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

// Boundary translates service errors into presenter behavior. Stale
// references (NotFoundError) are swallowed so a concurrent deletion degrades
// to a silent refresh instead of an error dialog.
type Boundary struct {
	Presenter Presenter
}

// Do runs op and routes its error, reporting whether it succeeded. Validation
// and state errors become warnings, rule violations and unexpected errors
// become error notices, not-found is silent.
func (b Boundary) Do(_ context.Context, title string, op func() error) bool {
	err := op()
	if err == nil {
		return true
	}
	if domain.IsNotFound(err) {
		return false
	}
	severity := SeverityError
	if domain.IsValidation(err) || domain.IsInvalidState(err) {
		severity = SeverityWarning
	}
	if b.Presenter != nil {
		b.Presenter.ShowNotice(Notice{Title: title, Message: err.Error(), Severity: severity})
	}
	return false
}
