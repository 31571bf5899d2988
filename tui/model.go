// Package tui is an interactive terminal front end for the expected loss engine.
// It forwards key presses to session.Reducer and renders the resulting state.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/uyouii/lossopt/dataset"
	"github.com/uyouii/lossopt/session"
)

const (
	defaultWidth = 72
	// one press on [ or ] moves the step by a tenth of a decade
	stepFactor = 1.2589254117941673
)

// increments per key press
var fieldIncrements = map[session.Field]float64{
	session.FieldMean:       0.01,
	session.FieldStdev:      0.005,
	session.FieldSlopeUnder: 0.05,
	session.FieldPowerUnder: 0.1,
	session.FieldSlopeOver:  0.05,
	session.FieldPowerOver:  0.1,
}

type Config struct {
	Debounce time.Duration
	DataPath string
	Column   string
}

type Model struct {
	ctx      context.Context
	reducer  *session.Reducer
	state    session.State
	cfg      Config
	selected int
	width    int

	keys keyMap
	help help.Model
}

func New(ctx context.Context, reducer *session.Reducer, initial session.State, cfg Config) Model {
	return Model{
		ctx:     ctx,
		reducer: reducer,
		state:   initial,
		cfg:     cfg,
		width:   defaultWidth,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// State is the current session state.
func (m Model) State() session.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.recomputeNow()}
	if m.cfg.DataPath != "" {
		cmds = append(cmds, m.loadSample)
	}
	return tea.Batch(cmds...)
}

func (m Model) loadSample() tea.Msg {
	sample, err := dataset.LoadColumn(m.cfg.DataPath, m.cfg.Column)
	return sampleLoadedMsg{sample: sample, err: err}
}

func (m Model) recomputeNow() tea.Cmd {
	rev := m.state.Revision
	return func() tea.Msg { return recomputeMsg{revision: rev} }
}

// scheduleRecompute waits for the inputs to settle before evaluating.
func (m Model) scheduleRecompute() tea.Cmd {
	rev := m.state.Revision
	return tea.Tick(m.cfg.Debounce, func(time.Time) tea.Msg {
		return recomputeMsg{revision: rev}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width-6, 10)
		m.help.Width = msg.Width

	case sampleLoadedMsg:
		m.state = m.reducer.Reduce(m.ctx, m.state, session.SampleLoaded{Sample: msg.sample, Err: msg.err})
		return m, m.scheduleRecompute()

	case recomputeMsg:
		if msg.revision == m.state.Revision {
			m.state = m.reducer.Reduce(m.ctx, m.state, session.Recompute{})
		}
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := session.AllFields[m.selected]

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.selected = (m.selected + len(session.AllFields) - 1) % len(session.AllFields)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.selected = (m.selected + 1) % len(session.AllFields)
		return m, nil
	case key.Matches(msg, m.keys.Increase):
		return m.apply(adjust(m.state.Inputs, field, 1))
	case key.Matches(msg, m.keys.Decrease):
		return m.apply(adjust(m.state.Inputs, field, -1))
	case key.Matches(msg, m.keys.StepUp):
		return m.apply(session.ScaleStep{Factor: stepFactor})
	case key.Matches(msg, m.keys.StepDown):
		return m.apply(session.ScaleStep{Factor: 1 / stepFactor})
	case key.Matches(msg, m.keys.Empirical):
		return m.apply(session.ToggleEmpirical{})
	}
	return m, nil
}

func (m Model) apply(ev session.Event) (tea.Model, tea.Cmd) {
	m.state = m.reducer.Reduce(m.ctx, m.state, ev)
	return m, m.scheduleRecompute()
}

func adjust(in session.Inputs, field session.Field, direction float64) session.Event {
	if field == session.FieldStep {
		return session.ScaleStep{Factor: math.Pow(stepFactor, direction)}
	}
	v := in.Value(field) + direction*fieldIncrements[field]
	// keep the display free of 0.30000000000000004
	v = math.Round(v*1e6) / 1e6
	return session.SetField{Field: field, Value: v}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("Optimum estimate under asymmetric loss"))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderInputs())
	sb.WriteString("\n")
	sb.WriteString(m.renderResult())
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderInputs() string {
	in := m.state.Inputs
	lines := []string{}

	source := "gaussian"
	if in.UseEmpirical {
		source = fmt.Sprintf("empirical (%d values)", len(in.Sample))
	}
	lines = append(lines, LabelStyle.Render("source")+ValueStyle.Render(source))

	for i, f := range session.AllFields {
		label := LabelStyle.Render(f.String())
		value := fmt.Sprintf("%.6g", in.Value(f))
		if i == m.selected {
			lines = append(lines, SelectedStyle.Render("> ")+label+SelectedStyle.Render(value))
			continue
		}
		lines = append(lines, "  "+label+ValueStyle.Render(value))
	}
	return PanelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderResult() string {
	lines := []string{}

	if m.state.Err != nil {
		lines = append(lines, ErrorStyle.Render("error: "+m.state.Err.Error()))
		if m.state.Result != nil {
			lines = append(lines, StaleStyle.Render("showing previous result"))
		}
	}

	res := m.state.Result
	if res == nil {
		lines = append(lines, StaleStyle.Render("no result yet"))
		return PanelStyle.Render(strings.Join(lines, "\n"))
	}

	lo, hi := res.DensityGrid.Min, res.DensityGrid.Max()
	lines = append(lines,
		LabelStyle.Render("mean")+ValueStyle.Render(fmt.Sprintf("%.6g", res.Mean)),
		LabelStyle.Render("optimum")+ResultStyle.Render(fmt.Sprintf("%.6g", res.OptimumEstimate)),
		LabelStyle.Render("min E[loss]")+ValueStyle.Render(fmt.Sprintf("%.6g", res.MinimumExpectedLoss)),
		"",
		LabelStyle.Render("density"),
		CurveStyle.Render(Sparkline(res.DensityValues, m.width)),
		MarkerStyle.Render(MarkerLine(res.OptimumEstimate, lo, hi, min(m.width, len(res.DensityValues)))),
		LabelStyle.Render("loss"),
		CurveStyle.Render(Sparkline(res.LossValues, m.width)),
		LabelStyle.Render("E[loss]"),
	)

	window := Window(res.ExpectedLoss.Grid, res.ExpectedLoss.Values, lo, hi)
	lines = append(lines,
		CurveStyle.Render(Sparkline(window, m.width)),
		MarkerStyle.Render(MarkerLine(res.OptimumEstimate, lo, hi, min(m.width, len(window)))),
	)

	return lipgloss.JoinVertical(lipgloss.Left, PanelStyle.Render(strings.Join(lines, "\n")))
}
