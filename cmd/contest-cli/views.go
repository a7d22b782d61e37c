package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/algobucks/platform/internal/apiclient"
	"github.com/algobucks/platform/internal/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f1c40f"))
	timerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ecc71"))
	timerLowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e74c3c"))
	problemStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	okStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ecc71"))
	badStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e74c3c"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))
)

const problemsHelp = "ctrl+r run samples   ctrl+d dry run   ctrl+s submit   tab next   ctrl+e reset   ctrl+l standings   ctrl+a ask   ctrl+c quit"

func (m appModel) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	switch m.state {
	case stateGuidelines:
		b.WriteString(m.guidelinesView())
	case stateProblems:
		b.WriteString(m.problemsView())
	case stateFeedback:
		b.WriteString(m.feedbackView())
	case stateCompleted:
		b.WriteString(m.completedView())
	case stateError:
		b.WriteString(m.errorView())
	}
	return b.String()
}

func (m appModel) headerView() string {
	title := "AlgoBucks"
	if c := m.ctrl.Contest(); c != nil {
		title = c.Title
	}
	clock := fmt.Sprintf("%02d:%02d", m.timeLeft/60, m.timeLeft%60)
	style := timerStyle
	if m.timeLeft <= 60 {
		style = timerLowStyle
	}
	return titleStyle.Render(title) + "   " + style.Render(clock)
}

func (m appModel) guidelinesView() string {
	c := m.ctrl.Contest()
	var b strings.Builder
	if c != nil && c.Description != "" {
		b.WriteString(c.Description + "\n\n")
	}
	if c != nil && c.Rules != "" {
		b.WriteString(c.Rules + "\n\n")
	}
	b.WriteString(fmt.Sprintf("%d problems. The clock is already counting.\n\n", len(m.ctrl.Problems())))
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}
	b.WriteString(dimStyle.Render("enter start   q leave"))
	return b.String()
}

func (m appModel) problemsView() string {
	p := m.ctrl.CurrentProblem()
	if p == nil {
		return "This contest has no problems yet.\n\n" + dimStyle.Render("ctrl+c quit")
	}

	var b strings.Builder
	b.WriteString(problemStyle.Render(fmt.Sprintf("[%d/%d] %s", m.ctrl.CurrentIndex()+1, len(m.ctrl.Problems()), p.Title)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("   %s   %d pts   %s", p.Difficulty, p.Points, m.ctrl.Language())))
	b.WriteString("\n\n")
	b.WriteString(firstLines(p.Statement, 6))
	b.WriteString("\n\n")
	b.WriteString(m.editor.View())
	b.WriteString("\n\n")

	switch {
	case m.waiting:
		b.WriteString(m.spin.View() + " Judging...")
	case m.lastEval != nil:
		b.WriteString(verdictView(m.lastEval))
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}

	if m.asking {
		b.WriteString("\n\nAsk the staff: " + m.askInput.View())
		b.WriteString("\n" + dimStyle.Render("enter send   esc cancel"))
		return b.String()
	}

	if m.showBoard {
		b.WriteString("\n\n" + renderStandings("Standings", m.ctrl.Leaderboard()))
		b.WriteString("\n" + renderClarifications(m.ctrl.Clarifications()))
	}

	b.WriteString("\n\n" + dimStyle.Render(problemsHelp))
	return b.String()
}

func (m appModel) feedbackView() string {
	stars := strings.Repeat("★", m.rating) + strings.Repeat("☆", 5-m.rating)
	var b strings.Builder
	b.WriteString("That's a wrap. How was the contest?\n\n")
	b.WriteString("Rating:   " + titleStyle.Render(stars) + "\n\n")
	b.WriteString("Comments: " + m.comments.View() + "\n\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}
	b.WriteString(dimStyle.Render("up/down rating   enter submit   ctrl+c quit"))
	return b.String()
}

func (m appModel) completedView() string {
	var b strings.Builder
	b.WriteString(okStyle.Render("Session complete.") + " Thanks for playing.\n\n")
	if m.results != nil {
		b.WriteString(renderStandings("Final standings", m.results) + "\n")
	} else {
		b.WriteString(dimStyle.Render("Fetching final standings...") + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("enter leave"))
	return b.String()
}

func (m appModel) errorView() string {
	return badStyle.Render("Something went wrong.") + "\n\n" + m.errMsg + "\n\n" + dimStyle.Render("press any key to leave")
}

func verdictView(eval *apiclient.Evaluation) string {
	style := badStyle
	if eval.Verdict == model.VerdictAccepted {
		style = okStyle
	}
	line := style.Render(string(eval.Verdict)) +
		fmt.Sprintf("   %d/%d passed   %d ms", eval.Passed, eval.Total, eval.RuntimeMS)
	if eval.Score > 0 {
		line += fmt.Sprintf("   %d pts", eval.Score)
	}
	if eval.Output != "" {
		line += "\n" + dimStyle.Render(firstLines(eval.Output, 4))
	}
	if eval.Diagnostics != "" {
		line += "\n" + dimStyle.Render(firstLines(eval.Diagnostics, 4))
	}
	return line
}

func renderStandings(title string, lb *model.Leaderboard) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	if lb == nil || len(lb.Entries) == 0 {
		b.WriteString(dimStyle.Render("No standings yet."))
		return b.String()
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%4s  %-20s %7s %7s %9s", "#", "user", "solved", "score", "penalty")))
	b.WriteString("\n")
	for _, e := range lb.Entries {
		b.WriteString(fmt.Sprintf("%4d  %-20s %7d %7d %8.1fm\n",
			e.Rank, e.Username, e.Solved, e.Score, float64(e.PenaltyMS)/60000))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderClarifications(clarifications []model.Clarification) string {
	if len(clarifications) == 0 {
		return dimStyle.Render("No clarifications yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Clarifications") + "\n")
	for _, cl := range clarifications {
		marker := "you"
		if cl.UserID == nil {
			marker = "all"
		}
		b.WriteString(fmt.Sprintf("[%s] %s\n", marker, firstLines(cl.Question, 1)))
		if cl.Answer != nil {
			b.WriteString("      " + statusStyle.Render(firstLines(*cl.Answer, 2)) + "\n")
		} else {
			b.WriteString("      " + dimStyle.Render("awaiting answer") + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// firstLines keeps the opening n lines of s and marks the cut.
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + dimStyle.Render(" (...)")
}
