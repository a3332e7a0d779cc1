package config

import (
	"strings"
	"time"
)

// SpeechConfig contains speech-to-text service configuration.
type SpeechConfig struct {
	// BaseURL is the root of an OpenAI-compatible API.
	BaseURL string `env:"SPEECH_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// APIKey authenticates against the transcription endpoint.
	APIKey string `env:"OPENAI_API_KEY"`

	// Model is the transcription model identifier.
	Model string `env:"SPEECH_MODEL" envDefault:"whisper-1"`

	// Timeout bounds a single transcription call.
	Timeout time.Duration `env:"SPEECH_TIMEOUT" envDefault:"60s"`
}

// Sanitize applies guardrails to speech configuration values.
func (s *SpeechConfig) Sanitize() {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.Model == "" {
		s.Model = "whisper-1"
	}
	if s.Timeout <= 0 {
		s.Timeout = 60 * time.Second
	}
}

// GenerationConfig contains generative text service configuration.
//
// SummaryInstruction and KeywordInstruction are deployment-time constants, not
// per-request values: every job runs the same two independently-instructed
// generation calls against its transcript.
type GenerationConfig struct {
	// BaseURL is the root of an OpenAI-compatible API.
	BaseURL string `env:"GENERATION_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// APIKey authenticates against the chat completions endpoint.
	APIKey string `env:"OPENAI_API_KEY"`

	// Model is the chat completion model identifier.
	Model string `env:"GENERATION_MODEL" envDefault:"gpt-3.5-turbo"`

	// SummaryInstruction is the system instruction for the narrative summary call.
	SummaryInstruction string `env:"GEN_SUMMARY_PROMPT" envDefault:"You are an assistant that writes a short, helpful reply summarizing the caller's voice message."`

	// KeywordInstruction is the system instruction for the keyword/tag extraction call.
	KeywordInstruction string `env:"GEN_KEYWORDS_PROMPT" envDefault:"Extract the main topics of the message as a short comma-separated list of keywords. Reply with the keywords only."`

	// ExemplarUser and ExemplarAssistant optionally seed one few-shot turn pair
	// ahead of the transcript on the summary call.
	ExemplarUser      string `env:"GEN_EXEMPLAR_USER"      envDefault:""`
	ExemplarAssistant string `env:"GEN_EXEMPLAR_ASSISTANT" envDefault:""`

	// Timeout bounds a single generation call.
	Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"45s"`
}

// Sanitize applies guardrails to generation configuration values.
func (g *GenerationConfig) Sanitize() {
	g.BaseURL = strings.TrimRight(strings.TrimSpace(g.BaseURL), "/")
	if g.Model == "" {
		g.Model = "gpt-3.5-turbo"
	}
	if g.Timeout <= 0 {
		g.Timeout = 45 * time.Second
	}
}

// TelephonyConfig contains telephony provider credentials. The recording fetch
// uses them as HTTP basic auth when both are set; recordings on providers that
// serve audio publicly work without them.
type TelephonyConfig struct {
	AccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	PhoneNumber string `env:"TWILIO_PHONE_NUMBER"`
}

// DeliveryConfig contains downstream delivery endpoint configuration.
type DeliveryConfig struct {
	// URL is the downstream endpoint that consumes processed voice-message
	// artifacts. Empty disables delivery.
	URL string `env:"DELIVERY_URL"`

	// Timeout bounds a single delivery POST.
	Timeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to delivery configuration values.
func (d *DeliveryConfig) Sanitize() {
	d.URL = strings.TrimSpace(d.URL)
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
}
