package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

var (
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#8f6af5ff"}).Render
	xStyle               = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50ff", Dark: "#6afd76ff"}).Render
	oStyle               = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003adff", Dark: "#5f61fcff"}).Render
	bracketStyle         = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	lastMoveBracketStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000ff", Dark: "#ffffffff"}).Render
	winningRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"}).Render
	selectorStyle        = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000ff", Dark: "#fc7e7eff"}).Render
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8f8f8fff", Dark: "#626262ff"}).Render
)

const helpText = "s start/stop • r reset • tab switch player • ↑/↓ choose model • q quit"

func (m *model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle("LLM Tic-Tac-Toe Battle") + "\n\n")

	s.WriteString(m.selectorView(0, "Player X (First)"))
	s.WriteString(m.selectorView(1, "Player O (Second)"))
	if m.loadErr != "" {
		s.WriteString(errorStyle(m.loadErr) + "\n")
	}
	s.WriteString("\n")

	game := entity.NewGame()
	if m.snapshot != nil {
		game = &m.snapshot.Game
	}
	s.WriteString(boardView(game))
	s.WriteString("\n")

	s.WriteString(m.statusLine() + "\n")
	s.WriteString(m.scoreLine())
	s.WriteString("\n" + helpStyle(helpText) + "\n")

	return s.String()
}

func (m *model) selectorView(index int, label string) string {
	marker := "  "
	if m.focus == index && !m.running {
		marker = selectorStyle("> ")
	}

	return fmt.Sprintf("%s%s: %s\n", marker, label, selectorStyle("< "+m.models[m.selected[index]]+" >"))
}

func boardView(game *entity.Game) string {
	highlights := game.WinningLine()

	var s strings.Builder
	for i, cell := range game.Board {
		var mark string
		switch cell {
		case entity.PlayerX:
			mark = xStyle(cell)
		case entity.PlayerO:
			mark = oStyle(cell)
		default:
			mark = " "
		}

		bStyle := bracketStyle
		switch {
		case slices.Contains(highlights, i):
			bStyle = winningRowStyle
		case game.LastMove == i:
			bStyle = lastMoveBracketStyle
		}

		s.WriteString(bStyle("[") + mark + bStyle("]"))
		if (i+1)%3 == 0 {
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m *model) statusLine() string {
	switch {
	case m.runErr != "":
		return errorStyle("Error: " + m.runErr)
	case m.stopping:
		return "Stopping... " + m.spinner.View()
	case m.result != nil:
		return resultLine(m.result)
	case m.snapshot == nil && m.running:
		return "Game started! " + m.spinner.View()
	case m.snapshot == nil:
		return "Press s to begin the game"
	}

	snapshot := m.snapshot
	switch {
	case snapshot.Err != "":
		return errorStyle("Error: " + snapshot.Err)
	case snapshot.GameOver && snapshot.Outcome == entity.ResultDraw:
		return "Game Over - It's a Draw!"
	case snapshot.GameOver:
		return fmt.Sprintf("Game Over - Player %s wins!", snapshot.Outcome)
	case snapshot.Acting != nil:
		return fmt.Sprintf("Player %s (%s) is thinking... %s", snapshot.Acting.Mark, snapshot.Acting.Model, m.spinner.View())
	}

	return ""
}

func (m *model) scoreLine() string {
	if m.snapshot == nil {
		return ""
	}

	scores := m.snapshot.Scores

	return fmt.Sprintf("Game %d/%d   %s %d   %s %d   Draw %d\n",
		m.snapshot.GameNumber, m.snapshot.Games,
		xStyle(entity.PlayerX), scores[entity.PlayerX],
		oStyle(entity.PlayerO), scores[entity.PlayerO],
		scores[entity.ResultDraw],
	)
}

func resultLine(result *entity.Result) string {
	var s strings.Builder

	if result.Stopped {
		fmt.Fprintf(&s, "Stopped after %d of %d games. ", result.Played, result.Planned)
	}

	if result.Tie {
		s.WriteString("It's a tie!")
	} else {
		fmt.Fprintf(&s, "%s wins!", result.Winner)
	}

	return s.String()
}
