package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var synthesisFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "paathshala",
	Subsystem: "speech",
	Name:      "synthesis_failures_total",
	Help:      "Number of failed speech synthesis requests",
})

// Synthesizer converts text into spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AzureConfig holds the credentials for the Azure Cognitive Services speech
// endpoint.
type AzureConfig struct {
	SubscriptionKey string
	Region          string
	Logger          zerolog.Logger
}

// AzureSynthesizer calls the Azure text-to-speech REST API and returns mp3
// audio bytes.
type AzureSynthesizer struct {
	key      string
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// NewAzureSynthesizer builds a synthesizer from the provided configuration.
func NewAzureSynthesizer(cfg AzureConfig) (*AzureSynthesizer, error) {
	if cfg.SubscriptionKey == "" || cfg.Region == "" {
		return nil, fmt.Errorf("azure speech key and region are required")
	}

	return &AzureSynthesizer{
		key:      cfg.SubscriptionKey,
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region),
		http:     &http.Client{Timeout: 60 * time.Second},
		logger:   cfg.Logger.With().Str("component", "azure_speech").Logger(),
	}, nil
}

const outputFormat = "audio-16khz-32kbitrate-mono-mp3"

// Synthesize renders the text with the given neural voice and returns the
// encoded mp3.
func (s *AzureSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body := buildSSML(text, voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := s.http.Do(req)
	if err != nil {
		synthesisFailures.Inc()
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		synthesisFailures.Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("speech synthesis returned HTTP %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		synthesisFailures.Inc()
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}

	s.logger.Debug().Str("voice", voice).Int("bytes", len(audio)).Msg("speech synthesized")
	return audio, nil
}

func buildSSML(text, voice string) []byte {
	escaped := xmlEscape(text)
	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice name='%s'>%s</voice></speak>`,
		voice, escaped,
	)
	return []byte(ssml)
}

func xmlEscape(text string) string {
	var b bytes.Buffer
	for _, r := range text {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\'':
			b.WriteString("&apos;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
