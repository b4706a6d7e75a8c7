package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Engine names accepted by Config.Engine.
const (
	EngineAuto      = "auto"
	EngineEspeak    = "espeak"
	EngineGoogle    = "google"
	EngineTranslate = "translate"
	EngineOff       = "off"
)

// Config holds speech configuration.
type Config struct {
	// Engine selects the synthesizer. "auto" uses Google Cloud when an API
	// key is set, then espeak, then the keyless translate endpoint.
	Engine string

	Accent string
	Rate   float64

	GoogleAPIKey    string
	PreferredVoices []string

	// CacheDir holds synthesized audio. Empty disables the cache.
	CacheDir string

	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:          EngineAuto,
		Accent:          TagUS,
		Rate:            DefaultRate,
		PreferredVoices: []string{"Neural2", "Wavenet"},
		Timeout:         30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if e := os.Getenv("LINGOZ_TTS_ENGINE"); e != "" {
		cfg.Engine = strings.ToLower(e)
	}
	if a := os.Getenv("LINGOZ_ACCENT"); a != "" {
		cfg.Accent = NormalizeTag(a)
	}
	if r := os.Getenv("LINGOZ_TTS_RATE"); r != "" {
		if v, err := strconv.ParseFloat(r, 64); err == nil {
			cfg.Rate = ClampRate(v)
		}
	}
	if k := os.Getenv("GOOGLE_TTS_API_KEY"); k != "" {
		cfg.GoogleAPIKey = k
	}
	if v := os.Getenv("LINGOZ_TTS_VOICES"); v != "" {
		cfg.PreferredVoices = strings.Split(v, ",")
	}
	if d := os.Getenv("LINGOZ_TTS_CACHE"); d != "" {
		cfg.CacheDir = d
	}

	return cfg
}

// Validate checks the engine name and its requirements.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineAuto, EngineEspeak, EngineTranslate, EngineOff:
	case EngineGoogle:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_TTS_API_KEY is required for the google tts engine")
		}
	default:
		return fmt.Errorf("unknown tts engine: %q", c.Engine)
	}
	return nil
}

// NewSynthesizer builds the configured synthesizer, wrapped in a disk cache
// when CacheDir is set.
func NewSynthesizer(cfg Config) (Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var synth Synthesizer
	switch cfg.Engine {
	case EngineGoogle:
		synth = NewGoogleCloud(cfg.GoogleAPIKey, cfg.PreferredVoices...)
	case EngineEspeak:
		e, err := FindEspeak()
		if err != nil {
			return nil, err
		}
		synth = e
	case EngineTranslate:
		synth = NewGoogleTranslate()
	case EngineAuto:
		if cfg.GoogleAPIKey != "" {
			synth = NewGoogleCloud(cfg.GoogleAPIKey, cfg.PreferredVoices...)
		} else if e, err := FindEspeak(); err == nil {
			synth = e
		} else {
			synth = NewGoogleTranslate()
		}
	case EngineOff:
		return nil, nil
	}

	if cfg.CacheDir == "" {
		return synth, nil
	}
	return NewCache(synth, filepath.Join(cfg.CacheDir, synth.Name()))
}

// New returns the Requester for cfg. Speech that cannot be set up is
// logged and replaced by Nop so the app keeps working silently.
func New(cfg Config) Requester {
	if cfg.Engine == EngineOff {
		return Nop{}
	}
	synth, err := NewSynthesizer(cfg)
	if err != nil {
		log.WithError(err).Warn("speech disabled")
		return Nop{}
	}
	sink, err := DetectSink()
	if err != nil {
		log.WithError(err).Warn("speech disabled")
		return Nop{}
	}
	log.WithFields(log.Fields{"engine": synth.Name(), "player": sink.Binary}).Info("speech ready")
	return NewPlayer(synth, sink, cfg.Timeout)
}
