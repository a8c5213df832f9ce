package policy

import "github.com/dar-go/dar/catalog"

// DataVerdict is the action to take on a name collision's data, one axis
// of a policy's two independent verdicts.
type DataVerdict int

const (
	DataPreserve DataVerdict = iota
	DataOverwrite
	DataPreserveMarkAbsent
	DataOverwriteMarkAbsent
	DataMergePreserve
	DataMergeOverwrite
	DataAsk
)

func (v DataVerdict) String() string {
	switch v {
	case DataPreserve:
		return "preserve"
	case DataOverwrite:
		return "overwrite"
	case DataPreserveMarkAbsent:
		return "preserve-mark-absent"
	case DataOverwriteMarkAbsent:
		return "overwrite-mark-absent"
	case DataMergePreserve:
		return "merge-preserve"
	case DataMergeOverwrite:
		return "merge-overwrite"
	case DataAsk:
		return "data-ask"
	default:
		return "unknown"
	}
}

// EAVerdict is the action to take on a name collision's extended
// attributes, the policy's other axis.
type EAVerdict int

const (
	EAPreserve EAVerdict = iota
	EAOverwrite
	EAPreserveMarkAbsent
	EAOverwriteMarkAbsent
	EAMergePreserve
	EAMergeOverwrite
	EAAsk
)

func (v EAVerdict) String() string {
	switch v {
	case EAPreserve:
		return "preserve"
	case EAOverwrite:
		return "overwrite"
	case EAPreserveMarkAbsent:
		return "preserve-mark-absent"
	case EAOverwriteMarkAbsent:
		return "overwrite-mark-absent"
	case EAMergePreserve:
		return "merge-preserve"
	case EAMergeOverwrite:
		return "merge-overwrite"
	case EAAsk:
		return "ea-ask"
	default:
		return "unknown"
	}
}

// Policy decides a (DataVerdict, EAVerdict) pair for a name collision
// between inPlace (the entry already present) and candidate (the entry
// being added). Implementations form a tree (Constant leaves, Conditional
// internal nodes), never a graph, so Evaluate always terminates.
type Policy interface {
	Evaluate(inPlace, candidate *catalog.Entry) (DataVerdict, EAVerdict)
}

// Constant is a policy that always returns the same verdict pair.
type Constant struct {
	Data DataVerdict
	EA   EAVerdict
}

// Evaluate returns c's fixed verdicts, ignoring the entries.
func (c Constant) Evaluate(_, _ *catalog.Entry) (DataVerdict, EAVerdict) {
	return c.Data, c.EA
}

// Conditional evaluates Criterion and recurses into Then or Else.
type Conditional struct {
	Criterion Criterion
	Then      Policy
	Else      Policy
}

// Evaluate implements Policy.
func (c Conditional) Evaluate(inPlace, candidate *catalog.Entry) (DataVerdict, EAVerdict) {
	if c.Criterion.Eval(inPlace, candidate) {
		return c.Then.Evaluate(inPlace, candidate)
	}
	return c.Else.Evaluate(inPlace, candidate)
}

// PreserveAll is the default policy: keep the in-place entry's data and
// EA on every collision.
var PreserveAll Policy = Constant{Data: DataPreserve, EA: EAPreserve}

// OverwriteAll always takes the candidate's data and EA.
var OverwriteAll Policy = Constant{Data: DataOverwrite, EA: EAOverwrite}
