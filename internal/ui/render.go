package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(5).Align(lipgloss.Right)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Todo renders a single row.
func Todo(todo models.Todo) string {
	return idStyle.Render(fmt.Sprintf("#%d", todo.ID)) + " " + todo.Text
}

func Created(todo models.Todo) string {
	return okStyle.Render("✔ created") + " " + Todo(todo)
}

// List renders the whole list inside a panel.
func List(list models.TodoList) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Todos (%d)", len(list.Items)))}
	if len(list.Items) == 0 {
		lines = append(lines, mutedStyle.Render("nothing here yet"))
	}
	for _, todo := range list.Items {
		lines = append(lines, Todo(todo))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func StreamDone(count int) string {
	return mutedStyle.Render(fmt.Sprintf("server done sending data (%d items)", count))
}

func Error(err error) string {
	return errStyle.Render("✘ " + err.Error())
}
