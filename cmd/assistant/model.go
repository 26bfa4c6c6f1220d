package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-dashboard/core"
	"github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/llms"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// controller is the part of the engine the UI drives.
type controller interface {
	Open(voice bool)
	ClosePanel()
	ToggleVoice()
	Submit(text string)
	Clear()
	Snapshot() orchestration.ConversationV1
}

type engineEventMsg struct{ event events.Event }

type conversationMsg orchestration.ConversationV1

type readingMsg telemetry.Reading

type keyMap struct {
	quit        key.Binding
	togglePanel key.Binding
	closePanel  key.Binding
	toggleVoice key.Binding
	clear       key.Binding
	submit      key.Binding
	scrollUp    key.Binding
	scrollDown  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		togglePanel: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "panel")),
		closePanel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		toggleVoice: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "voice")),
		clear:       key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		scrollUp:    key.NewBinding(key.WithKeys("pgup")),
		scrollDown:  key.NewBinding(key.WithKeys("pgdown")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.submit, k.togglePanel, k.toggleVoice, k.clear, k.closePanel, k.quit}
}

type theme struct {
	header    lipgloss.Style
	panel     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	warning   lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		panel: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		user:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(accent).Bold(true),
		status:    lipgloss.NewStyle().Foreground(accent),
		muted:     lipgloss.NewStyle().Foreground(muted),
		warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff71ce")).Bold(true),
	}
}

type model struct {
	engine         controller
	events         <-chan events.Event
	voiceAvailable bool

	conversation orchestration.ConversationV1
	reading      *telemetry.Reading
	notice       string

	width  int
	height int

	input    textinput.Model
	messages viewport.Model
	keys     keyMap
	theme    theme
}

func newModel(engine controller, engineEvents <-chan events.Event, voiceAvailable bool) model {
	input := textinput.New()
	input.Placeholder = "问问站点的运行情况…"
	input.Prompt = "› "
	input.Focus()

	return model{
		engine:         engine,
		events:         engineEvents,
		voiceAvailable: voiceAvailable,
		input:          input,
		messages:       viewport.New(80, 10),
		keys:           newKeyMap(),
		theme:          newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEngineEvent(m.events), m.refreshConversation())
}

func waitForEngineEvent(engineEvents <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-engineEvents
		if !ok {
			return nil
		}
		return engineEventMsg{event: event}
	}
}

func (m model) refreshConversation() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return conversationMsg(engine.Snapshot())
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderMessages()
	case engineEventMsg:
		if closed, ok := msg.event.(events.PanelClosed); ok && closed.Reason == events.PanelCloseReasonExitPhrase {
			m.notice = "再见"
		}
		cmds = append(cmds, m.refreshConversation(), waitForEngineEvent(m.events))
	case conversationMsg:
		m.conversation = orchestration.ConversationV1(msg)
		m.renderMessages()
	case readingMsg:
		reading := telemetry.Reading(msg)
		m.reading = &reading
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.togglePanel):
			m.notice = ""
			if m.conversation.Open {
				m.engine.ClosePanel()
			} else {
				m.engine.Open(false)
			}
			return m, nil
		case key.Matches(msg, m.keys.closePanel):
			m.engine.ClosePanel()
			return m, nil
		case key.Matches(msg, m.keys.toggleVoice):
			m.toggleVoice()
			return m, nil
		case key.Matches(msg, m.keys.clear):
			m.engine.Clear()
			return m, nil
		case key.Matches(msg, m.keys.submit):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.notice = ""
			if !m.conversation.Open {
				m.engine.Open(false)
			}
			m.engine.Submit(text)
			m.input.Reset()
			return m, m.refreshConversation()
		case key.Matches(msg, m.keys.scrollUp), key.Matches(msg, m.keys.scrollDown):
			var cmd tea.Cmd
			m.messages, cmd = m.messages.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) toggleVoice() {
	switch {
	case !m.voiceAvailable:
		m.notice = "语音不可用：未配置语音识别"
	case !m.conversation.Open:
		m.notice = ""
		m.engine.Open(true)
	default:
		m.notice = ""
		m.engine.ToggleVoice()
	}
}

func (m *model) resize() {
	width := max(20, m.width-4)
	// header, status, input and help lines plus borders
	height := max(3, m.height-12)
	m.messages.Width = width
	m.messages.Height = height
	m.input.Width = width - 4
}

func (m *model) renderMessages() {
	width := max(10, m.messages.Width-2)
	var b strings.Builder
	for i, message := range m.conversation.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		label := m.theme.assistant.Render("助手")
		if message.Role == llms.RoleUser {
			label = m.theme.user.Render("你")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(wrapText(message.Content, width))
		b.WriteString("\n")
	}
	m.messages.SetContent(b.String())
	m.messages.GotoBottom()
}

// wrapText wraps at word boundaries and hard-wraps runs without spaces,
// which is most Chinese text.
func wrapText(text string, width int) string {
	return wrap.String(wordwrap.String(text, width), width)
}

func (m model) View() string {
	header := m.theme.header.Render(m.renderHeader())
	body := m.theme.panel.Width(max(20, m.width-2)).Render(m.messages.View())
	status := m.renderStatus()
	input := m.theme.panel.Width(max(20, m.width-2)).Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, input, m.renderHelp())
}

func (m model) renderHeader() string {
	title := "能源看板助手"
	if m.reading == nil {
		return title + m.theme.muted.Render("  等待数据…")
	}
	summary := m.reading.Summary
	return fmt.Sprintf("%s  功率 %.0f kW · 发电 %.0f kWh · 收益 %.2f 元 · 在线 %d/%d · %s",
		title, summary.TotalPower, summary.TotalEnergy, summary.TotalProfit,
		summary.OnlineCount, summary.TotalCount, m.reading.LastUpdate)
}

func (m model) renderStatus() string {
	conversation := m.conversation
	parts := []string{m.theme.status.Render(modeLabel(conversation.Mode))}
	if !conversation.Open {
		parts = []string{m.theme.muted.Render("面板已关闭")}
	}
	if conversation.VoiceModeEnabled {
		parts = append(parts, m.theme.status.Render("语音模式"))
	}
	if !conversation.DataReady {
		parts = append(parts, m.theme.warning.Render("数据加载中"))
	}
	if conversation.Transcript != "" {
		parts = append(parts, m.theme.muted.Render("“"+conversation.Transcript+"”"))
	}
	if conversation.PendingTranscript != "" {
		parts = append(parts, m.theme.muted.Render("待发送："+conversation.PendingTranscript))
	}
	if conversation.Advisory != "" {
		parts = append(parts, m.theme.warning.Render(conversation.Advisory))
	}
	if m.notice != "" {
		parts = append(parts, m.theme.warning.Render(m.notice))
	}
	return strings.Join(parts, "  ")
}

func modeLabel(mode orchestration.Mode) string {
	switch mode {
	case orchestration.ModeListening:
		return "正在聆听"
	case orchestration.ModeSpeaking:
		return "正在播报"
	case orchestration.ModeAwaitingReply:
		return "思考中"
	default:
		return "空闲"
	}
}

func (m model) renderHelp() string {
	bindings := m.keys.help()
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return m.theme.muted.Render(strings.Join(parts, " · "))
}
