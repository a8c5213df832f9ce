package dardb

import (
	"sort"

	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/derr"
)

// RestoreStep is one archive invocation in a restore plan: the archive
// to read from and the set of paths to extract from it for data and/or
// EA (i_database::restore invokes the external dar executable once per
// such step, in ascending archive-number order).
type RestoreStep struct {
	Archive   ArchiveNum
	DataPaths []string
	EAPaths   []string
}

// RestorePlan is the result of planning a restore: ordered archive
// invocations plus any requested paths that could not be resolved.
type RestorePlan struct {
	Steps      []RestoreStep
	Unresolved map[string]Lookup
}

// PlanRestore computes the minimum sequence of archive invocations needed
// to reconstruct every path in paths as it stood at date at (nil meaning
// "most recent"). This is the planner half of i_database::restore; the
// actual "invoke dar once per archive" side is cmd/dar_manager's job,
// since dardb is a library and has no process-execution concern of its
// own.
func (db *DB) PlanRestore(paths []string, at *dartime.Date) (RestorePlan, error) {
	if err := db.requireTree(); err != nil {
		return RestorePlan{}, err
	}
	plan := RestorePlan{Unresolved: map[string]Lookup{}}
	byArchiveData := map[ArchiveNum][]string{}
	byArchiveEA := map[ArchiveNum][]string{}

	for _, p := range paths {
		n, err := db.find(p)
		if err != nil {
			return RestorePlan{}, derr.E(derr.Data, err, "dardb: restore: unknown path "+p)
		}
		dataArchive, dataVerdict := n.getData(at)
		if dataVerdict == FoundPresent {
			byArchiveData[dataArchive] = append(byArchiveData[dataArchive], p)
		} else {
			plan.Unresolved[p] = dataVerdict
		}

		eaArchive, eaVerdict := n.getEA(at)
		if eaVerdict == FoundPresent {
			byArchiveEA[eaArchive] = append(byArchiveEA[eaArchive], p)
		}
	}

	archives := map[ArchiveNum]bool{}
	for num := range byArchiveData {
		archives[num] = true
	}
	for num := range byArchiveEA {
		archives[num] = true
	}
	ordered := make([]ArchiveNum, 0, len(archives))
	for num := range archives {
		ordered = append(ordered, num)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, num := range ordered {
		data := byArchiveData[num]
		ea := byArchiveEA[num]
		sort.Strings(data)
		sort.Strings(ea)
		plan.Steps = append(plan.Steps, RestoreStep{Archive: num, DataPaths: data, EAPaths: ea})
	}
	return plan, nil
}
