package main

import (
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"Xiuchatbot/pkg/chat"
	"Xiuchatbot/pkg/config"
	"Xiuchatbot/pkg/services"
	"Xiuchatbot/tui"
)

func main() {
	config.Load()

	src := services.NewResponseSource(services.SourceConfig{
		APIKey:   config.APIKey,
		APIURL:   config.APIURL,
		RelayURL: config.RelayURL,
		Timeout:  config.UpstreamTimeout(),
	})

	// the alt screen owns stderr while the program runs
	if path := os.Getenv("CHAT_LOG_FILE"); path != "" {
		f, err := tea.LogToFile(path, "chat")
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	err := tui.Run(src,
		chat.WithCooldown(config.Cooldown()),
		chat.WithCharDelay(config.CharDelay()),
	)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}
