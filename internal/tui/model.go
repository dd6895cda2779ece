package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/capture"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/consent"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/session"
)

// errorEntry marks a locally rendered error bubble; it never reaches the
// transcript or the backend.
const errorEntry = session.MessageType("error")

// Model is the root bubbletea model for the chat widget.
type Model struct {
	orc *session.Orchestrator

	// Gate and session state
	gate      consent.State
	startup   bool
	startErr  string
	recording bool

	// Transcript display
	entries []session.Message

	// Live streaming bubble
	liveID    string
	thinking  bool
	liveText  string
	elapsed   float64
	elapsedOn bool

	// Text input
	input string

	// Feedback entry mode
	feedbackMode    bool
	feedbackRating  int
	feedbackNotice  string
	feedbackIsError bool

	width  int
	height int
}

// New creates the widget model around an orchestrator.
func New(orc *session.Orchestrator) Model {
	return Model{orc: orc, startup: true, gate: consent.Unknown}
}

// Init kicks off session creation and the consent check.
func (m Model) Init() tea.Cmd {
	return m.startupCmd()
}

func (m Model) startupCmd() tea.Cmd {
	return func() tea.Msg {
		return StartupDoneMsg{Err: m.orc.Startup(context.Background())}
	}
}

func (m Model) acceptConsentCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.orc.AcceptConsent(context.Background())
		return nil
	}
}

func (m Model) withdrawConsentCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.orc.WithdrawConsent(context.Background())
		return nil
	}
}

func (m Model) toggleRecordingCmd(recording bool) tea.Cmd {
	return func() tea.Msg {
		if recording {
			m.orc.StopRecording(context.Background())
			return RecordingToggledMsg{Recording: false}
		}
		err := m.orc.StartRecording(context.Background(), capture.ModeToggle)
		return RecordingToggledMsg{Recording: err == nil && m.orc.Recording(), Err: err}
	}
}

func (m Model) toggleLanguageCmd() tea.Cmd {
	return func() tea.Msg {
		m.orc.ToggleLanguage(context.Background())
		return nil
	}
}

func (m Model) submitFeedbackCmd(rating int, comment string) tea.Cmd {
	return func() tea.Msg {
		m.orc.SubmitFeedback(context.Background(), rating, comment)
		return nil
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StartupDoneMsg:
		m.startup = false
		if msg.Err != nil {
			m.startErr = msg.Err.Error()
		}
		return m, nil

	case TranscriptMsg:
		m.entries = append(m.entries, msg.Message)
		// The finalized bot message replaces the live bubble.
		if msg.Message.Type == session.BotMessage && m.liveID != "" && !m.thinking {
			m.liveID = ""
			m.liveText = ""
		}
		return m, nil

	case GateMsg:
		m.gate = msg.State
		if msg.State == consent.Withdrawn {
			m.recording = false
		}
		return m, nil

	case FeedbackNoticeMsg:
		m.feedbackNotice = msg.Text
		m.feedbackIsError = msg.IsError
		if !msg.IsError {
			m.feedbackMode = false
			m.feedbackRating = 0
			m.input = ""
		}
		return m, nil

	case ThinkingMsg:
		m.liveID = msg.ID
		m.thinking = true
		m.liveText = ""
		m.elapsed = 0
		m.elapsedOn = false
		return m, nil

	case AnswerStartedMsg:
		if msg.ID == m.liveID {
			m.thinking = false
		}
		return m, nil

	case AnswerChunkMsg:
		if msg.ID == m.liveID {
			m.liveText += msg.Chunk
		}
		return m, nil

	case AnswerRemovedMsg:
		if msg.ID == m.liveID {
			m.liveID = ""
			m.thinking = false
			m.liveText = ""
		}
		return m, nil

	case ElapsedMsg:
		if msg.ID == m.liveID || msg.Final {
			m.elapsed = msg.Seconds
			m.elapsedOn = true
		}
		return m, nil

	case ElapsedClearedMsg:
		m.elapsedOn = false
		return m, nil

	case FallbackMsg:
		m.liveID = ""
		m.thinking = false
		m.liveText = ""
		m.entries = append(m.entries, session.Message{Type: errorEntry, Content: msg.Text})
		return m, nil

	case RecordingToggledMsg:
		m.recording = msg.Recording
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+a":
		if m.gate != consent.Granted {
			return m, m.acceptConsentCmd()
		}
		return m, nil

	case "ctrl+x":
		if m.gate == consent.Granted {
			return m, m.withdrawConsentCmd()
		}
		return m, nil

	case "ctrl+r":
		if m.gate != consent.Granted {
			return m, nil
		}
		return m, m.toggleRecordingCmd(m.recording)

	case "ctrl+l":
		return m, m.toggleLanguageCmd()

	case "ctrl+f":
		if m.gate != consent.Granted {
			return m, nil
		}
		m.feedbackMode = !m.feedbackMode
		m.feedbackNotice = ""
		m.feedbackRating = 0
		m.input = ""
		return m, nil

	case "ctrl+e":
		if m.feedbackMode {
			m.orc.EnableFeedbackEdit()
		}
		return m, nil

	case "esc":
		if m.feedbackMode {
			m.feedbackMode = false
			m.feedbackRating = 0
			m.input = ""
		}
		return m, nil

	case "enter":
		if m.feedbackMode {
			return m, m.submitFeedbackCmd(m.feedbackRating, m.input)
		}
		if m.gate != consent.Granted || strings.TrimSpace(m.input) == "" {
			return m, nil
		}
		text := m.input
		m.input = ""
		m.orc.SendTyped(context.Background(), text)
		return m, nil

	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if m.feedbackMode && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '5' && m.input == "" {
		m.feedbackRating = int(msg.Runes[0] - '0')
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if msg.Type == tea.KeySpace {
			m.input += " "
		} else {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

// View renders the widget.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading Bravur AI Chatbot..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTranscript())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	if m.feedbackMode {
		sections = append(sections, m.renderFeedback())
	} else {
		sections = append(sections, m.renderInput())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("BRAVUR AI CHATBOT")
	lang := langBadgeStyle.Render(" [" + string(m.orc.Language()) + "]")

	var rec string
	if m.recording {
		rec = recordingDotStyle.Render("  ● REC")
	}

	var gate string
	switch {
	case m.startup:
		gate = dimStyle.Render("  connecting...")
	case m.startErr != "":
		gate = errorStyle.Render("  " + m.startErr)
	case m.gate == consent.Checking:
		gate = dimStyle.Render("  checking consent...")
	case m.gate != consent.Granted:
		gate = gateBannerStyle.Render("  Consent required. Press Ctrl+A to accept the privacy terms.")
	}

	return title + lang + rec + gate
}

func (m Model) renderTranscript() string {
	height := m.transcriptHeight()

	var lines []string
	for _, e := range m.entries {
		lines = append(lines, m.renderEntry(e)...)
	}
	if m.liveID != "" {
		if m.thinking {
			lines = append(lines, thinkingStyle.Render("  Bot is thinking..."))
		} else {
			for _, l := range wrapText(m.liveText, m.textWidth()) {
				lines = append(lines, botMsgStyle.Render("  "+l))
			}
		}
	}
	if m.elapsedOn {
		lines = append(lines, elapsedStyle.Render(fmt.Sprintf("  %.1fs", m.elapsed)))
	}

	// Show the tail that fits.
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEntry(e session.Message) []string {
	width := m.textWidth()
	var out []string
	switch e.Type {
	case session.UserMessage:
		for i, l := range wrapText(e.Content, width) {
			prefix := "  You: "
			if i > 0 {
				prefix = "       "
			}
			out = append(out, userMsgStyle.Render(prefix+l))
		}
	case session.BotMessage:
		for _, l := range wrapText(e.Content, width) {
			out = append(out, botMsgStyle.Render("  "+l))
		}
	case errorEntry:
		for _, l := range wrapText(e.Content, width) {
			out = append(out, errorStyle.Render("  "+l))
		}
	default:
		for _, l := range wrapText(e.Content, width) {
			out = append(out, systemMsgStyle.Render("  · "+l))
		}
	}
	return out
}

func (m Model) renderInput() string {
	if m.gate != consent.Granted {
		return dimInputStyle.Render("> chat locked until consent is accepted")
	}
	return promptStyle.Render("> ") + m.input + "▌"
}

func (m Model) renderFeedback() string {
	stars := ""
	for i := 1; i <= 5; i++ {
		if i <= m.feedbackRating {
			stars += "★"
		} else {
			stars += "☆"
		}
	}
	line := promptStyle.Render("Feedback ") + langBadgeStyle.Render(stars) + " " + m.input + "▌"
	if m.feedbackNotice != "" {
		if m.feedbackIsError {
			line += "  " + errorStyle.Render(m.feedbackNotice)
		} else {
			line += "  " + dimStyle.Render(m.feedbackNotice)
		}
	}
	return line
}

func (m Model) renderFooter() string {
	var parts []string
	if m.gate == consent.Granted {
		parts = append(parts,
			footerKeyStyle.Render("Enter")+footerDescStyle.Render(" Send"),
			footerKeyStyle.Render("Ctrl+R")+footerDescStyle.Render(" Voice"),
			footerKeyStyle.Render("Ctrl+L")+footerDescStyle.Render(" Language"),
			footerKeyStyle.Render("Ctrl+F")+footerDescStyle.Render(" Feedback"),
			footerKeyStyle.Render("Ctrl+X")+footerDescStyle.Render(" Withdraw"),
		)
	} else {
		parts = append(parts, footerKeyStyle.Render("Ctrl+A")+footerDescStyle.Render(" Accept consent"))
	}
	parts = append(parts, footerKeyStyle.Render("Ctrl+C")+footerDescStyle.Render(" Quit"))
	return strings.Join(parts, "  ")
}

func (m Model) transcriptHeight() int {
	if m.height == 0 {
		return 20
	}
	// header + two dividers + input + footer
	return max(5, m.height-5)
}

func (m Model) textWidth() int {
	if m.width == 0 {
		return 70
	}
	return max(20, m.width-10)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case lipgloss.Width(current)+1+lipgloss.Width(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
