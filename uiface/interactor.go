// Package uiface defines the user-interaction boundary: the prompt an
// overwriting policy's ask verdicts escalate to, and the pause a slice
// transport issues between media. Two Interactor implementations are
// provided: CLI (reads a real terminal) and Batch (answers from a fixed
// default, for unattended runs). Modeled on dlog.Outputter's
// small-interface-plus-default-implementation shape (dlog/log.go).
package uiface

// DataChoice is the three-way answer to a data-ask escalation.
type DataChoice int

const (
	DataKeep DataChoice = iota
	DataOverwrite
	DataAbort
)

// EAChoice is the three-way answer to an ea-ask escalation.
type EAChoice int

const (
	EAKeep EAChoice = iota
	EAOverwrite
	EAAbort
)

// Interactor is the user-interaction collaborator an orchestration
// operation calls out to when it cannot decide on its own.
type Interactor interface {
	// AskData presents a data-keep/data-overwrite/abort prompt for path,
	// explaining why the policy escalated (reason).
	AskData(path, reason string) (DataChoice, error)

	// AskEA presents the EA equivalent of AskData.
	AskEA(path, reason string) (EAChoice, error)

	// Pause is called when a slice transport needs operator action
	// (next slice insertion, or an ENOSPC retry point) before it can
	// continue; message describes what's needed.
	Pause(message string) error
}
