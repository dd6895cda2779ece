package main

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/api"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/capture"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/chat"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/config"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/consent"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/locale"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/playback"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/session"
	"github.com/MergerAccount/Bravurs-AI-Chatbot/internal/tui"
)

// languageNotifier adapts the API client to the locale notification hook.
type languageNotifier struct {
	client *api.Client
}

func (n languageNotifier) NotifyLanguageChange(ctx context.Context, sessionID, from, to string) (string, error) {
	res, err := n.client.NotifyLanguageChange(ctx, sessionID, from, to)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	// The TUI owns stdout; route logs to a file.
	if f, err := tea.LogToFile("widget.log", "widget"); err == nil {
		defer f.Close()
	}

	cfg := config.Load()
	client := api.NewClient(cfg.APIBaseURL)
	view := tui.NewProgramView()

	deps := session.Deps{
		Backend: client,
		Consent: client,
		Locale:  languageNotifier{client: client},
		ChatSender: chat.SenderFunc(func(ctx context.Context, userInput, sessionID, language string) (chat.Stream, error) {
			return client.StreamChat(ctx, userInput, sessionID, language)
		}),
		ChatView:  view,
		SessionID: cfg.SessionID,
		Language:  locale.Language(cfg.DefaultLocale),
	}
	if cfg.MicSourceURL != "" {
		deps.Mic = capture.NewWSMicSource(cfg.MicSourceURL)
	}
	if cfg.PlayerCommand != "" {
		deps.Device = playback.NewExecDevice(cfg.PlayerCommand)
	}

	orc := session.New(deps, session.Callbacks{
		OnMessage: func(m session.Message) {
			view.Post(tui.TranscriptMsg{Message: m})
		},
		OnGate: func(s consent.State) {
			view.Post(tui.GateMsg{State: s})
		},
		OnRecording: func(active bool) {
			view.Post(tui.RecordingToggledMsg{Recording: active})
		},
		OnFeedback: func(text string, isErr bool) {
			view.Post(tui.FeedbackNoticeMsg{Text: text, IsError: isErr})
		},
	})

	p := tea.NewProgram(tui.New(orc), tea.WithAltScreen())
	view.Attach(func(msg any) { p.Send(msg) })

	if _, err := p.Run(); err != nil {
		log.Fatalf("widget error: %v", err)
	}
}
