// Package chatui is a small terminal chat front end over the dialogue
// router, built with bubbletea.
package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bancoagil/atendimento/agent/agents/router"
)

const turnTimeout = 60 * time.Second

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00b894")).Bold(true)
	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0984e3")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d63031")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type replyMsg struct {
	text string
	err  error
}

type Model struct {
	svc       *router.Service
	sessionID string

	viewport viewport.Model
	input    textinput.Model
	lines    []string
	waiting  bool
	ready    bool
}

// New builds the chat model over an already-created session.
func New(svc *router.Service, sessionID string) Model {
	input := textinput.New()
	input.Placeholder = "Digite sua mensagem..."
	input.Focus()
	input.CharLimit = 500

	return Model{
		svc:       svc,
		sessionID: sessionID,
		input:     input,
		lines: []string{
			agentStyle.Render("Banco Ágil") + ": Olá! Bem-vindo ao Banco Ágil. " +
				"Para começar, informe seu CPF e sua data de nascimento (DD/MM/AAAA).",
		},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.appendLine(userStyle.Render("Você") + ": " + text)
			return m, m.turnCmd(text)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLine(errStyle.Render("Erro") + ": " + msg.err.Error())
		} else {
			m.appendLine(agentStyle.Render("Banco Ágil") + ": " + msg.text)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "carregando..."
	}
	status := helpStyle.Render("enter envia · esc sai")
	if m.waiting {
		status = helpStyle.Render("aguardando resposta...")
	}
	return fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), m.input.View(), status)
}

func (m Model) turnCmd(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		reply, err := m.svc.HandleTurn(ctx, m.sessionID, text)
		return replyMsg{text: reply, err: err}
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line, "")
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(m.lines, "\n")))
	m.viewport.GotoBottom()
}

// Run starts the interactive chat loop and blocks until the user quits.
func Run(svc *router.Service, sessionID string) error {
	program := tea.NewProgram(New(svc, sessionID), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
