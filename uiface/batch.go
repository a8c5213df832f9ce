package uiface

// Batch is the non-interactive Interactor: every escalation is answered
// from a fixed default rather than asked, for unattended runs (cron jobs,
// scripted restores). Pause is a no-op.
type Batch struct {
	Data DataChoice
	EA   EAChoice
}

// NewBatch returns a Batch that always answers Data and ea on escalation.
func NewBatch(data DataChoice, ea EAChoice) *Batch {
	return &Batch{Data: data, EA: ea}
}

// AskData implements Interactor: it returns b.Data without blocking.
func (b *Batch) AskData(path, reason string) (DataChoice, error) { return b.Data, nil }

// AskEA implements Interactor: it returns b.EA without blocking.
func (b *Batch) AskEA(path, reason string) (EAChoice, error) { return b.EA, nil }

// Pause implements Interactor: batch mode never waits on an operator.
func (b *Batch) Pause(message string) error { return nil }
