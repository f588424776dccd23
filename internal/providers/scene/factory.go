package scene

import (
	"fmt"
	"strings"
)

// Backend names accepted by New.
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendRemote = "remote"
)

// Config selects and configures one analyzer backend.
type Config struct {
	Backend string
	OpenAI  OpenAIOptions
	Gemini  GeminiOptions
	Remote  RemoteOptions
}

// New returns the analyzer for cfg.Backend, defaulting to OpenAI.
func New(cfg Config) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendOpenAI:
		return NewModelAnalyzer(NewOpenAIClient(cfg.OpenAI)), nil
	case BackendGemini:
		return NewModelAnalyzer(NewGeminiClient(cfg.Gemini)), nil
	case BackendRemote:
		return NewRemoteAnalyzer(cfg.Remote), nil
	default:
		return nil, fmt.Errorf("scene: unknown analyzer backend %q", cfg.Backend)
	}
}
