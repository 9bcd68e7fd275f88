package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the stages of card generation.
type Phase int

const (
	FetchCards Phase = iota
	FetchCard
	ResolveTheme
	RenderCard
	WritingManifest
)

func (p Phase) String() string {
	switch p {
	case FetchCards:
		return "fetch_cards"
	case FetchCard:
		return "fetch_card"
	case ResolveTheme:
		return "resolve_theme"
	case RenderCard:
		return "render_card"
	case WritingManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchCardsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchCards, Step: 1, Total: 1, Message: "Fetching playlists..."}
}

func fetchCardUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCard,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, id),
	}
}

func themeFallbackUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTheme,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s: using default theme (%v)", title, err),
	}
}

func cardCompletedUpdate(step, total int, res CardResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RenderCard,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, res.Title, res.Path),
		Data:    res,
	}
}

func cardFailedUpdate(step, total int, res CardResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RenderCard,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WritingManifest, Step: 1, Total: 1, Message: "Writing " + path}
}
