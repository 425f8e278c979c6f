package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/qiuyin/AgentDesk/internal/decision"
	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	decisionPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#10B981")).
		Padding(1, 2).
		Width(80)

	idleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	thinkingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	completedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	longStyle  = completedStyle
	shortStyle = errorStyle
	waitStyle  = thinkingStyle
)

// Banner shows the startup banner.
func Banner() {
	fmt.Println(titleStyle.Render("AgentDesk — AI Trading Desk"))
	fmt.Println(idleStyle.Render("Multi-agent market analysis. Not financial advice."))
	fmt.Println()
}

func statusGlyph(status models.AgentStatus) string {
	switch status {
	case models.StatusThinking:
		return thinkingStyle.Render("…")
	case models.StatusCompleted:
		return completedStyle.Render("✔")
	case models.StatusError:
		return errorStyle.Render("✘")
	default:
		return idleStyle.Render("·")
	}
}

// RenderDesk draws the agent hierarchy with per-agent status glyphs, one
// tier per block.
func RenderDesk(states []models.AgentState) string {
	byRole := make(map[models.AgentRole]models.AgentState, len(states))
	for _, st := range states {
		byRole[st.Role] = st
	}

	var b strings.Builder
	tiers := [][]models.AgentRole{
		models.Tier1Roles,
		models.Tier2Roles,
		{models.RoleRiskManager},
		{models.RoleCEO},
	}
	for i, tier := range tiers {
		if i > 0 {
			b.WriteString(idleStyle.Render(strings.Repeat(" ", 4) + "│"))
			b.WriteString("\n")
		}
		for _, role := range tier {
			st := byRole[role]
			fmt.Fprintf(&b, "  %s %s — %s\n", statusGlyph(st.Status), st.Name, st.Description)
		}
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderDecision draws the final decision panel.
func RenderDecision(d models.TradingDecision, lang locales.Language) string {
	actionStyle := waitStyle
	switch d.Action {
	case models.ActionLong:
		actionStyle = longStyle
	case models.ActionShort:
		actionStyle = shortStyle
	}
	body := actionStyle.Render(d.Action) + "\n\n" + decision.Summary(d, lang)
	return decisionPanelStyle.Render(body)
}

// RenderReports prints every completed agent's output in tier order.
func RenderReports(states []models.AgentState) string {
	var b strings.Builder
	for _, st := range states {
		if st.Status != models.StatusCompleted || st.Output == "" {
			continue
		}
		b.WriteString(titleStyle.Render(st.Name))
		b.WriteString("\n")
		b.WriteString(st.Output)
		b.WriteString("\n\n")
	}
	return b.String()
}
