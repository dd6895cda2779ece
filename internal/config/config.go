package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds widget engine configuration.
type Config struct {
	APIBaseURL    string
	HTTPAddress   string // stub backend listen address
	MicSourceURL  string // websocket PCM feed; empty disables live capture
	PlayerCommand string // external WAV player; empty disables playback
	DefaultLocale string
	SessionID     string // resume an existing backend session when set
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	base := os.Getenv("BRAVUR_API_URL")
	if base == "" {
		base = "http://localhost:5001/api/v1"
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":5001"
	}

	micURL := os.Getenv("MIC_SOURCE_URL")
	if micURL == "" {
		log.Println("Warning: MIC_SOURCE_URL not set - voice capture will not work")
	}

	player := os.Getenv("PLAYER_COMMAND")
	if player == "" {
		log.Println("Warning: PLAYER_COMMAND not set - synthesized speech will not play")
	}

	loc := os.Getenv("DEFAULT_LOCALE")
	if loc != "nl-NL" && loc != "en-US" {
		if loc != "" {
			log.Printf("Warning: unsupported DEFAULT_LOCALE %q - falling back to nl-NL", loc)
		}
		loc = "nl-NL"
	}

	log.Printf("config: BRAVUR_API_URL=%s", base)
	return Config{
		APIBaseURL:    base,
		HTTPAddress:   addr,
		MicSourceURL:  micURL,
		PlayerCommand: player,
		DefaultLocale: loc,
		SessionID:     os.Getenv("BRAVUR_SESSION_ID"),
	}
}
