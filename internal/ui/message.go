package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/review"
)

// collectionsFetchedMsg carries the user's collections, liked songs first.
type collectionsFetchedMsg struct {
	collections []models.Collection
	err         error
}

// engineOpenedMsg carries the engine for the selected collection after its
// snapshot restore or first fetch finished.
type engineOpenedMsg struct {
	engine *review.Engine
	err    error
}

// decisionMsg reports the outcome of a keep, discard or retry.
type decisionMsg struct {
	err error
}

// playbackMsg reports the outcome of a play or pause request.
type playbackMsg struct {
	playing bool
	err     error
}

// tickMsg drives periodic redraws so background refills become visible.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
