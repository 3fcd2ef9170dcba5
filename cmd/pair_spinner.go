package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pairQRMsg string

type pairResultMsg struct {
	err error
}

// pairProgress shows a spinner while pairing runs, with the most recent QR
// payload underneath it until the engine stops asking for one.
type pairProgress struct {
	spinner  spinner.Model
	account  string
	qr       string
	qrStyle  lipgloss.Style
	finished *pairResultMsg
}

func (m pairProgress) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m pairProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pairQRMsg:
		m.qr = string(msg)
		return m, nil
	case pairResultMsg:
		m.finished = &msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m pairProgress) View() string {
	if m.finished != nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s pairing %s", m.spinner.View(), m.account)
	if m.qr != "" {
		b.WriteString("\n" + m.qrStyle.Render("scan to pair: "+m.qr))
	}
	return b.String()
}

// runPairProgress runs pair while drawing progress on output. pair reports
// QR payloads through showQR.
func runPairProgress(ctx context.Context, output io.Writer, account string, pair func(ctx context.Context, showQR func(string)) error) error {
	program := tea.NewProgram(
		pairProgress{
			spinner: spinner.New(
				spinner.WithSpinner(spinner.Dot),
				spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
			),
			account: account,
			qrStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		},
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	go func() {
		err := pair(ctx, func(qr string) { program.Send(pairQRMsg(qr)) })
		program.Send(pairResultMsg{err: err})
	}()

	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	progress, ok := final.(pairProgress)
	if !ok || progress.finished == nil {
		return fmt.Errorf("pairing ended without a result (%T)", final)
	}
	return progress.finished.err
}
