package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
	Err     error  // Set on the final update of a failed operation
}

// Operation phase enumeration
type Phase int

const (
	Validate Phase = iota
	Resolve
	Building
	Transfer
	Save
	Export
	Done
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case Resolve:
		return "resolve"
	case Building:
		return "build_request"
	case Transfer:
		return "transfer"
	case Save:
		return "save"
	case Export:
		return "export"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validateUpdate(link string) ProgressUpdate {
	return ProgressUpdate{Phase: Validate, Step: 1, Total: 1, Message: fmt.Sprintf("Checking link %s...", link)}
}

func resolveUpdate(link string) ProgressUpdate {
	return ProgressUpdate{Phase: Resolve, Step: 1, Total: 1, Message: "Resolving playlist tracks...", Data: link}
}

func resolvedUpdate(snap *Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", snap.Name(), snap.Len()),
		Data:    snap,
	}
}

func buildRequestUpdate(total int) ProgressUpdate {
	return ProgressUpdate{Phase: Building, Step: total, Total: total, Message: fmt.Sprintf("Preparing %d tracks...", total)}
}

func transferUpdate(name string, total int) ProgressUpdate {
	return ProgressUpdate{Phase: Transfer, Step: 1, Total: 1, Message: fmt.Sprintf("Packaging %s (%d tracks)...", name, total)}
}

func saveUpdate(name string) ProgressUpdate {
	return ProgressUpdate{Phase: Save, Step: 1, Total: 1, Message: fmt.Sprintf("Saving %s...", name)}
}

func exportingUpdate(step, total int, link string) ProgressUpdate {
	return ProgressUpdate{Phase: Export, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] Resolving: %s...", step, total, link)}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{Phase: Export, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount)}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Export, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err)}
}

func doneUpdate(op string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{Phase: Done, Step: 1, Total: 1, Message: fmt.Sprintf("%s failed: %v", op, err), Err: err}
	}
	return ProgressUpdate{Phase: Done, Step: 1, Total: 1, Message: fmt.Sprintf("%s complete", op)}
}
