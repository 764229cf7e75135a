package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/playback"
	"github.com/desertthunder/sift/internal/review"
	"github.com/desertthunder/sift/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionListView ViewState = iota
	ReviewView
	SummaryView
)

// EngineFactory builds a review engine for the selected collection.
type EngineFactory func(collection models.Collection) *review.Engine

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	source     services.CollectionSource
	openEngine EngineFactory
	engine     *review.Engine
	player     playback.Adapter

	width  int
	height int

	collectionList list.Model
	collections    []models.Collection

	playing  bool
	deciding bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source services.CollectionSource, openEngine EngineFactory, player playback.Adapter) *Model {
	return &Model{
		ctx:        ctx,
		view:       CollectionListView,
		source:     source,
		openEngine: openEngine,
		player:     player,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's collections.
func (m *Model) Init() tea.Cmd {
	return m.fetchCollections()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.collectionList.Width() == 0 {
			m.collectionList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CollectionListView:
			return m.handleCollectionListKeys(msg)
		case ReviewView:
			return m.handleReviewKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}

	case collectionsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.collections = msg.collections
		items := make([]list.Item, len(msg.collections))
		for i, c := range msg.collections {
			items[i] = collectionItem{collection: c}
		}
		m.collectionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.collectionList.Title = "Collections"
		m.collectionList.SetSize(m.width-4, m.height-8)
		return m, nil

	case engineOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = CollectionListView
			return m, nil
		}
		m.engine = msg.engine
		m.err = nil
		m.view = ReviewView
		if m.engine.CurrentTrack() == nil && m.engine.Exhausted() {
			m.view = SummaryView
			return m, nil
		}
		return m, tick()

	case decisionMsg:
		m.deciding = false
		if m.engine != nil && m.engine.CurrentTrack() == nil && m.engine.Exhausted() {
			m.view = SummaryView
		}
		return m, nil

	case playbackMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.playing = msg.playing
		return m, nil

	case tickMsg:
		if m.view != ReviewView {
			return m, nil
		}
		if m.engine.CurrentTrack() == nil && m.engine.Exhausted() {
			m.view = SummaryView
			return m, nil
		}
		return m, tick()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == CollectionListView && len(m.collections) == 0 {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CollectionListView:
		return m.renderCollectionList()
	case ReviewView:
		return m.renderReview()
	case SummaryView:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) handleCollectionListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		selected := m.collectionList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(collectionItem); ok {
				return m, m.open(item.collection)
			}
		}
	}

	var cmd tea.Cmd
	m.collectionList, cmd = m.collectionList.Update(msg)
	return m, cmd
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Sequence(m.stopPlayback(), tea.Quit)
	case key.Matches(msg, m.keys.back):
		m.view = CollectionListView
		m.engine = nil
		m.err = nil
		return m, m.stopPlayback()
	case key.Matches(msg, m.keys.dismiss):
		m.engine.DismissError()
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.play):
		return m, m.togglePlayback()
	case key.Matches(msg, m.keys.keep):
		if m.deciding {
			return m, nil
		}
		m.deciding = true
		return m, m.decide(true)
	case key.Matches(msg, m.keys.discard):
		if m.deciding {
			return m, nil
		}
		m.deciding = true
		return m, m.decide(false)
	case key.Matches(msg, m.keys.retry):
		if m.deciding {
			return m, nil
		}
		m.deciding = true
		return m, m.retry()
	}
	return m, nil
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CollectionListView
		m.engine = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == CollectionListView {
		m.collectionList, cmd = m.collectionList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchCollections() tea.Cmd {
	return func() tea.Msg {
		collections, err := m.source.UserCollections(m.ctx)
		return collectionsFetchedMsg{collections: collections, err: err}
	}
}

// open builds the engine for the collection and restores its snapshot or
// fetches the first page before the review view is shown.
func (m *Model) open(collection models.Collection) tea.Cmd {
	return func() tea.Msg {
		engine := m.openEngine(collection)
		if err := engine.Open(m.ctx); err != nil {
			return engineOpenedMsg{err: err}
		}
		return engineOpenedMsg{engine: engine}
	}
}

func (m *Model) decide(keep bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if keep {
			err = m.engine.Keep(m.ctx)
		} else {
			err = m.engine.Discard(m.ctx)
		}
		return decisionMsg{err: err}
	}
}

func (m *Model) retry() tea.Cmd {
	return func() tea.Msg {
		return decisionMsg{err: m.engine.RetryLastFailure(m.ctx)}
	}
}

func (m *Model) togglePlayback() tea.Cmd {
	playing := m.playing
	track := m.engine.CurrentTrack()
	return func() tea.Msg {
		if playing {
			if err := m.player.Pause(m.ctx); err != nil {
				return playbackMsg{playing: true, err: err}
			}
			return playbackMsg{playing: false}
		}
		if track == nil {
			return playbackMsg{}
		}
		if err := m.player.Play(m.ctx, *track); err != nil {
			return playbackMsg{err: err}
		}
		return playbackMsg{playing: true}
	}
}

func (m *Model) stopPlayback() tea.Cmd {
	playing := m.playing
	m.playing = false
	return func() tea.Msg {
		if playing {
			// best effort, review state does not depend on playback
			_ = m.player.Pause(m.ctx)
		}
		return nil
	}
}

func (m *Model) renderCollectionList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.collectionList.View(), helpView)
}

func (m *Model) renderReview() string {
	stats := m.engine.Stats()
	title := styles.title.Render(fmt.Sprintf("Reviewing '%s'", m.engine.Collection().Name))

	var resumed string
	if m.engine.Resumed() {
		resumed = styles.help.Render("resumed from a previous session") + "\n"
	}

	var card string
	if track := m.engine.CurrentTrack(); track != nil {
		body := fmt.Sprintf(
			"%s\n%s\n%s · %s",
			styles.ok.Render(track.Name),
			track.ArtistLine(),
			track.Album,
			formatDuration(track.DurationMS),
		)
		if m.playing {
			body += "\n\n" + styles.warn.Render("▶ playing")
		}
		card = styles.card.Render(body)
	} else if m.deciding || !m.engine.Exhausted() {
		card = styles.help.Render("Fetching more tracks...")
	}

	progress := fmt.Sprintf("Kept %d · Discarded %d · %d pending", stats.Kept, stats.Discarded, stats.Pending)
	if stats.ProgressPercent != nil {
		progress = fmt.Sprintf("%s · %.1f%% of %d", progress, *stats.ProgressPercent, stats.Total)
	}

	var errPanel string
	if err := m.engine.Err(); err != nil {
		errPanel = "\n" + m.renderClassifiedError(err)
	}

	helpKeys := []key.Binding{m.keys.keep, m.keys.discard, m.keys.play, m.keys.back, m.keys.quit}
	if m.engine.Err() != nil {
		helpKeys = append([]key.Binding{m.keys.retry, m.keys.dismiss}, helpKeys...)
	}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s%s\n\n%s", title, resumed, card, progress, errPanel, helpView)
}

// renderClassifiedError shows the removal failure with its classification so
// the user can tell a rate limit from an expired token.
func (m *Model) renderClassifiedError(err error) string {
	classified, ok := services.AsClassified(err)
	if !ok {
		return styles.err.Render(fmt.Sprintf("Removal failed: %v", err))
	}

	line := fmt.Sprintf("Removal failed (%s): %s", classified.Kind, classified.Message)
	if classified.Kind == services.KindRateLimit {
		line = fmt.Sprintf("%s · retry in %s", line, classified.RetryAfter)
	}

	rendered := styles.err.Render(line)
	if classified.Retryable() {
		rendered += "\n" + styles.help.Render("press r to retry, x to dismiss")
	} else {
		rendered += "\n" + styles.help.Render("press x to dismiss")
	}
	return rendered
}

func (m *Model) renderSummary() string {
	title := styles.ok.Render("✓ Review Complete")
	if m.engine == nil {
		return title
	}

	stats := m.engine.Stats()
	info := fmt.Sprintf("\nCollection: %s\nKept: %d\nDiscarded: %d\n", m.engine.Collection().Name, stats.Kept, stats.Discarded)

	var discarded string
	if stats.Discarded > 0 {
		discarded = "\n" + styles.warn.Render("Removed from the collection:")
		for _, track := range m.engine.DiscardedTracks() {
			discarded += fmt.Sprintf("\n  • %s - %s", track.ArtistLine(), track.Name)
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, discarded, helpView)
}

func formatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
