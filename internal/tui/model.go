// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kubbtrack/internal/manager"
	"github.com/verte-zerg/kubbtrack/internal/session"
	statsPkg "github.com/verte-zerg/kubbtrack/internal/stats"
)

// Model implements the Bubble Tea practice UI. All session mutation goes
// through the manager; the model only renders and translates keys.
type Model struct {
	mgr     *manager.Manager
	storage manager.Storage
	sess    *session.Session

	width  int
	height int

	allAcc      float64
	allSessions int
	hasAllTime  bool

	notice string
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	excellentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0D911"))
	averageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	needsWorkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

var variantTitles = map[session.Variant]string{
	session.VariantStandard: "Standard Practice",
	session.VariantPitch:    "Around the Pitch",
	session.VariantBlast:    "Inkast Blast",
	session.VariantGame:     "Full Game",
}

// NewModel constructs a practice TUI model around an active session.
func NewModel(mgr *manager.Manager, storage manager.Storage, sess *session.Session) *Model {
	m := &Model{
		mgr:     mgr,
		storage: storage,
		sess:    sess,
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyRunes:
			return m.handleRunes(msg.Runes)
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.sess == nil {
		return ""
	}
	content := m.renderSession()
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) handleRunes(runes []rune) (tea.Model, tea.Cmd) {
	for _, r := range runes {
		switch r {
		case 'q':
			return m, tea.Quit
		case 'h':
			m.record(session.Outcome{Hit: true})
		case 'm':
			m.record(session.Outcome{})
		case 'k':
			if m.sess.Variant == session.VariantStandard {
				m.record(session.Outcome{Hit: true, Tag: session.TagKing})
			}
		case '1', '2', '3', '4':
			if m.sess.Variant == session.VariantBlast || m.sess.Variant == session.VariantGame {
				m.record(session.Outcome{Hit: true, Units: int(r - '0')})
			}
		case 'a':
			m.advancePhase()
		case 'p':
			m.togglePause()
		case 'c':
			return m, m.complete()
		}
	}
	return m, nil
}

func (m *Model) record(o session.Outcome) {
	ctx := context.Background()
	applied, err := m.mgr.RecordThrow(ctx, m.sess.ID, o)
	if err != nil {
		m.notice = fmt.Sprintf("throw rejected: %v", err)
		return
	}
	if !applied {
		return
	}
	m.notice = ""
	if m.sess.TargetReached() {
		m.notice = "target reached"
	}
}

func (m *Model) advancePhase() {
	if m.sess.Variant != session.VariantGame {
		return
	}
	ctx := context.Background()
	if _, err := m.mgr.AdvancePhase(ctx, m.sess.ID); err != nil {
		m.notice = fmt.Sprintf("phase unchanged: %v", err)
		return
	}
	m.notice = ""
}

func (m *Model) togglePause() {
	ctx := context.Background()
	var err error
	if m.sess.Paused {
		err = m.mgr.Resume(ctx, m.sess.ID)
	} else {
		err = m.mgr.Pause(ctx, m.sess.ID)
	}
	if err != nil {
		m.notice = fmt.Sprintf("pause failed: %v", err)
		return
	}
	m.notice = ""
}

func (m *Model) complete() tea.Cmd {
	ctx := context.Background()
	if err := m.mgr.Complete(ctx, m.sess.ID); err != nil {
		m.notice = fmt.Sprintf("complete failed: %v", err)
		return nil
	}
	return tea.Quit
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	sessions, err := m.storage.ReadAll(ctx, m.sess.Variant)
	if err != nil {
		logErrf("failed to load session history: %v\n", err)
		return
	}
	completed := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed {
			completed = append(completed, s)
		}
	}
	if len(completed) == 0 {
		return
	}
	overall := statsPkg.Summarize(completed)
	m.allAcc = overall.Accuracy
	m.allSessions = overall.Sessions
	m.hasAllTime = true
}

func (m *Model) renderSession() string {
	s := m.sess
	lines := []string{titleStyle.Render(variantTitles[s.Variant])}
	if s.Paused {
		lines = append(lines, pausedStyle.Render("PAUSED"))
	}
	for _, item := range m.sessionItems() {
		lines = append(lines, labelStyle.Render(item[0]+" ")+valueStyle.Render(item[1]))
	}
	acc := s.Accuracy()
	lines = append(lines, labelStyle.Render("Accuracy ")+zoneStyle(acc).Render(fmt.Sprintf("%.1f%% (%d/%d)", acc*100, s.Hits, s.Throws)))
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	lines = append(lines, "", labelStyle.Render(m.keyHelp()))
	return strings.Join(lines, "\n")
}

func (m *Model) sessionItems() [][2]string {
	s := m.sess
	switch s.Variant {
	case session.VariantPitch:
		return [][2]string{
			{"Score", fmt.Sprintf("%d/%d", s.Hits, s.Target)},
			{"Side", string(s.CurrentSide())},
		}
	case session.VariantBlast:
		r := s.CurrentRound()
		return [][2]string{
			{"Round", fmt.Sprintf("%d", r.Number)},
			{"Cleared", fmt.Sprintf("%d/%d", r.ClearedUnits(), r.TargetCount)},
		}
	case session.VariantGame:
		g := s.Game
		return [][2]string{
			{"Round", fmt.Sprintf("%d", g.Round)},
			{"Phase", string(g.Phase)},
			{"Field", fmt.Sprintf("%d", g.FieldRemaining)},
			{"Lines", fmt.Sprintf("%d-%d", g.HomeLine, g.AwayLine)},
		}
	default:
		r := s.CurrentRound()
		return [][2]string{
			{"Round", fmt.Sprintf("%d", r.Number)},
			{"Throws", fmt.Sprintf("%d/%d", s.Throws, s.Target)},
		}
	}
}

func (m *Model) keyHelp() string {
	switch m.sess.Variant {
	case session.VariantBlast:
		return "1-4 hit units · m miss · p pause · c complete · q quit"
	case session.VariantGame:
		return "1-4 hit units · m miss · a advance phase · p pause · c complete · q quit"
	case session.VariantStandard:
		return "h hit · k king · m miss · p pause · c complete · q quit"
	default:
		return "h hit · m miss · p pause · c complete · q quit"
	}
}

func (m *Model) renderFooter() string {
	if !m.hasAllTime {
		return ""
	}
	footer := fmt.Sprintf("All-time %.1f%% over %d sessions", m.allAcc*100, m.allSessions)
	return footerStyle.Render(footer)
}

func zoneStyle(accuracy float64) lipgloss.Style {
	switch statsPkg.ZoneOf(accuracy) {
	case statsPkg.ZoneExcellent:
		return excellentStyle
	case statsPkg.ZoneGood:
		return goodStyle
	case statsPkg.ZoneAverage:
		return averageStyle
	default:
		return needsWorkStyle
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
