package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	chatServerURL string
	chatContext   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the CRM assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := newChatModel(chatServerURL, chatContext)
		_, err := tea.NewProgram(model).Run()
		return err
	},
}

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type chatModel struct {
	serverURL string
	convID    string
	input     textinput.Model
	lines     []string
	waiting   bool
}

type assistantReply struct {
	Response    string  `json:"response"`
	ActionTaken *string `json:"action_taken"`
}

type replyMsg struct {
	reply assistantReply
	err   error
}

func newChatModel(serverURL, convID string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask the CRM assistant..."
	ti.Focus()
	ti.CharLimit = 500
	return chatModel{serverURL: serverURL, convID: convID, input: ti}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			if text == "" || m.waiting {
				return m, nil
			}
			m.lines = append(m.lines, userStyle.Render("you: ")+text)
			m.input.SetValue("")
			m.waiting = true
			return m, sendMessage(m.serverURL, m.convID, text)
		}
	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.lines = append(m.lines, errStyle.Render("error: "+msg.err.Error()))
			return m, nil
		}
		m.lines = append(m.lines, botStyle.Render("crm: ")+msg.reply.Response)
		if msg.reply.ActionTaken != nil {
			m.lines = append(m.lines, actionStyle.Render("  [actions: "+*msg.reply.ActionTaken+"]"))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	view := ""
	for _, line := range m.lines {
		view += line + "\n"
	}
	if m.waiting {
		view += actionStyle.Render("thinking...") + "\n"
	}
	return view + "\n" + m.input.View() + "\n"
}

func sendMessage(serverURL, convID, message string) tea.Cmd {
	return func() tea.Msg {
		body, err := json.Marshal(map[string]string{
			"message": message,
			"context": convID,
		})
		if err != nil {
			return replyMsg{err: err}
		}
		client := &http.Client{Timeout: 3 * time.Minute}
		resp, err := client.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
		if err != nil {
			return replyMsg{err: err}
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return replyMsg{err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return replyMsg{err: fmt.Errorf("server returned %s: %s", resp.Status, data)}
		}
		var reply assistantReply
		if err := json.Unmarshal(data, &reply); err != nil {
			return replyMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}
