package session

import "flashzen/internal/domain"

// ChangeKind classifies a session mutation.
type ChangeKind string

const (
	ChangeReplaced ChangeKind = "replaced"
	ChangeAppended ChangeKind = "appended"
	ChangeCleared  ChangeKind = "cleared"
)

// View is the screen the UI should show after a change.
type View string

const (
	ViewNone       View = ""
	ViewGenerate   View = "generate"
	ViewFlashcards View = "flashcards"
)

// Event is emitted after every mutation. Snapshot is the session as it
// stands after the change; View is ViewNone when navigation should not move.
type Event struct {
	Kind               ChangeKind
	Snapshot           domain.StudySet
	AddedFlashcards    int
	AddedQuizQuestions int
	View               View
}

// Listener receives change events.
type Listener func(Event)
