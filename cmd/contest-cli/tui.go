package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/session"
)

type state int

const (
	stateGuidelines state = iota
	stateProblems
	stateFeedback
	stateCompleted
	stateError
)

type controllerEventMsg struct {
	event session.Event
}

type evalDoneMsg struct {
	eval *apiclient.Evaluation
	err  error
}

type phaseDoneMsg struct {
	err error
}

type askDoneMsg struct {
	err error
}

type resultsMsg struct {
	leaderboard *model.Leaderboard
	err         error
}

type appModel struct {
	ctrl *session.Controller

	state        state
	width        int
	height       int
	timeLeft     int
	problemIndex int

	editor  textarea.Model
	spin    spinner.Model
	waiting bool
	status  string
	errMsg  string

	showBoard bool
	asking    bool
	askInput  textinput.Model

	lastEval *apiclient.Evaluation
	rating   int
	comments textinput.Model
	results  *model.Leaderboard
}

func initialModel(ctrl *session.Controller) appModel {
	ta := textarea.New()
	ta.Placeholder = "Write your solution here"
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(16)
	ta.SetValue(ctrl.Code())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	ask := textinput.New()
	ask.Placeholder = "Your question for the contest staff"
	ask.CharLimit = 1000
	ask.Width = 70

	comments := textinput.New()
	comments.Placeholder = "Anything the organizers should hear?"
	comments.CharLimit = 2000
	comments.Width = 60

	m := appModel{
		ctrl:         ctrl,
		editor:       ta,
		spin:         sp,
		askInput:     ask,
		comments:     comments,
		rating:       3,
		timeLeft:     ctrl.TimeLeft(),
		problemIndex: ctrl.CurrentIndex(),
	}
	m.state = stateForPhase(ctrl.Phase())
	if m.state == stateProblems {
		m.editor.Focus()
	}
	return m
}

func stateForPhase(phase model.ContestPhase) state {
	switch phase {
	case model.PhaseProblems:
		return stateProblems
	case model.PhaseFeedback:
		return stateFeedback
	case model.PhaseCompleted:
		return stateCompleted
	default:
		return stateGuidelines
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(min(msg.Width-4, 100))
		m.editor.SetHeight(max(msg.Height-16, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// The beacon fires on the way out, in Shutdown.
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case controllerEventMsg:
		return m.handleEvent(msg.event)

	case evalDoneMsg:
		m.waiting = false
		if msg.err != nil {
			return m.handleCallError(msg.err)
		}
		m.lastEval = msg.eval
		m.status = ""
		return m.syncWithController()

	case phaseDoneMsg:
		if msg.err != nil {
			return m.handleCallError(msg.err)
		}
		m.status = ""
		return m.syncWithController()

	case askDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = "Question sent. Answers show up in the standings panel."
		}
		return m, nil

	case resultsMsg:
		if msg.err == nil {
			m.results = msg.leaderboard
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateGuidelines:
		switch msg.String() {
		case "enter", " ":
			return m, m.beginCmd()
		case "q":
			return m, tea.Quit
		}
		return m, nil

	case stateProblems:
		if m.asking {
			return m.handleAskKey(msg)
		}
		switch msg.String() {
		case "ctrl+r":
			return m.dispatchEval(m.ctrl.Run)
		case "ctrl+d":
			return m.dispatchEval(m.ctrl.DryRun)
		case "ctrl+s":
			return m.dispatchEval(m.ctrl.Submit)
		case "tab":
			return m, m.advanceCmd()
		case "ctrl+e":
			m.editor.SetValue(m.ctrl.ResetCode())
			return m, nil
		case "ctrl+l":
			m.showBoard = !m.showBoard
			return m, nil
		case "ctrl+a":
			m.asking = true
			m.editor.Blur()
			m.askInput.Focus()
			return m, textinput.Blink
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.ctrl.SetCode(m.editor.Value())
		return m, cmd

	case stateFeedback:
		switch msg.String() {
		case "up":
			if m.rating < 5 {
				m.rating++
			}
			return m, nil
		case "down":
			if m.rating > 1 {
				m.rating--
			}
			return m, nil
		case "enter":
			return m, m.feedbackCmd()
		}
		var cmd tea.Cmd
		m.comments, cmd = m.comments.Update(msg)
		return m, cmd

	case stateCompleted:
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil

	case stateError:
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) handleAskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.asking = false
		m.askInput.Reset()
		m.askInput.Blur()
		m.editor.Focus()
		return m, textarea.Blink
	case "enter":
		question := m.askInput.Value()
		m.asking = false
		m.askInput.Reset()
		m.askInput.Blur()
		m.editor.Focus()
		if question == "" {
			return m, textarea.Blink
		}
		return m, tea.Batch(textarea.Blink, m.askCmd(question))
	}
	var cmd tea.Cmd
	m.askInput, cmd = m.askInput.Update(msg)
	return m, cmd
}

func (m appModel) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case session.EventTick:
		m.timeLeft = ev.TimeLeft
		return m, nil
	case session.EventContestEnded:
		m.timeLeft = 0
		m.status = "Time! The clock ran out; your latest draft is auto-submitted."
		return m, nil
	case session.EventPhaseChanged:
		return m.syncWithController()
	case session.EventVerdictReceived:
		m.lastEval = ev.Evaluation
		return m, nil
	}
	// Leaderboard and clarification updates render straight from the
	// controller on the next frame.
	return m, nil
}

// handleCallError routes one failed controller call: an invalidated
// token is fatal (someone logged in elsewhere), anything else lands in
// the status line.
func (m appModel) handleCallError(err error) (tea.Model, tea.Cmd) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		m.state = stateError
		m.errMsg = "Your session is no longer valid. Log in again and resume."
		return m, nil
	}
	switch {
	case errors.Is(err, session.ErrBusy):
		m.status = "The judge is still working on your last request."
	case errors.Is(err, session.ErrContestOver):
		m.status = "The contest has ended; this code rides the auto-submit."
	default:
		m.status = err.Error()
	}
	return m, nil
}

// syncWithController realigns panel state and the editor buffer after
// any transition the controller reported or performed.
func (m appModel) syncWithController() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if idx := m.ctrl.CurrentIndex(); idx != m.problemIndex {
		m.problemIndex = idx
		m.editor.SetValue(m.ctrl.Code())
	}

	next := stateForPhase(m.ctrl.Phase())
	if next != m.state {
		m.state = next
		switch next {
		case stateProblems:
			m.editor.SetValue(m.ctrl.Code())
			m.editor.Focus()
			cmds = append(cmds, textarea.Blink)
		case stateFeedback:
			m.editor.Blur()
			m.comments.Focus()
			cmds = append(cmds, textinput.Blink)
		case stateCompleted:
			cmds = append(cmds, m.resultsCmd())
		}
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case stateProblems:
		if m.asking {
			m.askInput, cmd = m.askInput.Update(msg)
			return m, cmd
		}
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	case stateFeedback:
		m.comments, cmd = m.comments.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Commands
// ────────────────────────────────────────────────────────────────────────────

func (m appModel) dispatchEval(call func(context.Context) (*apiclient.Evaluation, error)) (tea.Model, tea.Cmd) {
	if m.waiting {
		m.status = "The judge is still working on your last request."
		return m, nil
	}
	m.waiting = true
	m.status = ""
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		eval, err := call(ctx)
		return evalDoneMsg{eval: eval, err: err}
	})
}

func (m appModel) beginCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return phaseDoneMsg{err: m.ctrl.Begin(ctx)}
	}
}

func (m appModel) advanceCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return phaseDoneMsg{err: m.ctrl.Advance(ctx)}
	}
}

func (m appModel) feedbackCmd() tea.Cmd {
	rating := m.rating
	comments := m.comments.Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return phaseDoneMsg{err: m.ctrl.SubmitFeedback(ctx, rating, comments)}
	}
}

func (m appModel) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return askDoneMsg{err: m.ctrl.AskClarification(ctx, question)}
	}
}

func (m appModel) resultsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		lb, err := m.ctrl.Results(ctx)
		return resultsMsg{leaderboard: lb, err: err}
	}
}
