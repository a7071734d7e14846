package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paathshala",
		Subsystem: "judge",
		Name:      "run_duration_seconds",
		Help:      "Duration of judge submissions including polling",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	runTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "paathshala",
		Subsystem: "judge",
		Name:      "run_timeouts_total",
		Help:      "Number of judge runs that exhausted the polling deadline",
	})

	runFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paathshala",
		Subsystem: "judge",
		Name:      "run_failures_total",
		Help:      "Number of judge runs that failed",
	}, []string{"stage"})
)

// Runner executes one piece of source code against the judge provider.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (Result, error)
}

// RunRequest describes one execution: source code, an identifier from the
// provider's language enumeration, and optional raw stdin.
type RunRequest struct {
	SourceCode string
	LanguageID int
	Stdin      string
}

// Result is the decoded outcome of one judge run. CompileError is derived
// locally: true iff the decoded compile output is non-empty.
type Result struct {
	Token         string
	Stdout        string
	Stderr        string
	CompileOutput string
	CompileError  bool
	Status        string
}

// ErrTimeout is returned when the judge does not finish a run within the
// configured polling deadline.
var ErrTimeout = errors.New("judge run timed out")

// SubmissionError carries the provider's raw error text for a rejected
// submission.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("judge rejected submission: status %d: %s", e.StatusCode, e.Body)
}

// Config groups the connection and polling settings for a Judge0-compatible
// execution service.
type Config struct {
	BaseURL      string
	AuthToken    string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	PollDeadline time.Duration
	Logger       zerolog.Logger
}

// Client talks to a Judge0-compatible REST API: it submits a batch job, polls
// for completion with bounded exponential backoff, and decodes the
// base64-encoded outputs.
type Client struct {
	baseURL      string
	authToken    string
	http         *http.Client
	pollInterval time.Duration
	pollDeadline time.Duration
	tracer       trace.Tracer
	logger       zerolog.Logger
}

// NewClient builds a judge client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("judge base url is required")
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 20 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		authToken:    cfg.AuthToken,
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		pollInterval: cfg.PollInterval,
		pollDeadline: cfg.PollDeadline,
		tracer:       otel.Tracer("github.com/sahayak-labs/paathshala-api/pkg/judge"),
		logger:       cfg.Logger.With().Str("component", "judge_client").Logger(),
	}, nil
}

type submitResponse struct {
	Token string `json:"token"`
}

type fetchResponse struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Judge0 status ids 1 (in queue) and 2 (processing) mean the run is still
// pending; anything higher is terminal.
const lastPendingStatus = 2

// Run submits the code, waits for the judge to finish, and returns the
// decoded result.
func (c *Client) Run(parent context.Context, req RunRequest) (Result, error) {
	ctx, span := c.tracer.Start(parent, "judge.run", trace.WithAttributes(
		attribute.Int("judge.language_id", req.LanguageID),
	))
	defer span.End()

	start := time.Now()
	token, err := c.submit(ctx, req)
	if err != nil {
		runFailures.WithLabelValues("submit").Inc()
		runDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.String("judge.token", token))

	result, err := c.await(ctx, token)
	if err != nil {
		stage := "fetch"
		if errors.Is(err, ErrTimeout) {
			stage = "timeout"
			runTimeouts.Inc()
		}
		runFailures.WithLabelValues(stage).Inc()
		runDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	runDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	result.Token = token
	return result, nil
}

func (c *Client) submit(ctx context.Context, req RunRequest) (string, error) {
	payload := map[string]interface{}{
		"source_code": req.SourceCode,
		"language_id": req.LanguageID,
	}
	if req.Stdin != "" {
		payload["stdin"] = req.Stdin
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal judge submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit to judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &SubmissionError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode judge submission response: %w", err)
	}
	if decoded.Token == "" {
		return "", fmt.Errorf("judge submission response missing token")
	}

	return decoded.Token, nil
}

func (c *Client) await(ctx context.Context, token string) (Result, error) {
	deadline := time.Now().Add(c.pollDeadline)
	interval := c.pollInterval

	for {
		fetched, pending, err := c.fetch(ctx, token)
		if err != nil {
			return Result{}, err
		}
		if !pending {
			return fetched, nil
		}

		if time.Now().Add(interval).After(deadline) {
			return Result{}, fmt.Errorf("token %s: %w", token, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > 4*time.Second {
			interval = 4 * time.Second
		}
	}
}

func (c *Client) fetch(ctx context.Context, token string) (Result, bool, error) {
	url := fmt.Sprintf("%s/submissions/%s?base64_encoded=true", c.baseURL, token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, false, fmt.Errorf("build judge fetch request: %w", err)
	}
	if c.authToken != "" {
		httpReq.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, false, fmt.Errorf("fetch judge result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Result{}, false, fmt.Errorf("judge fetch returned HTTP %d", resp.StatusCode)
	}

	var decoded fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, false, fmt.Errorf("decode judge fetch response: %w", err)
	}

	if decoded.Status.ID != 0 && decoded.Status.ID <= lastPendingStatus {
		return Result{}, true, nil
	}

	result := Result{
		Stdout:        c.decodeField(decoded.Stdout, "stdout"),
		Stderr:        c.decodeField(decoded.Stderr, "stderr"),
		CompileOutput: c.decodeField(decoded.CompileOutput, "compile_output"),
		Status:        decoded.Status.Description,
	}
	result.CompileError = len(result.CompileOutput) > 0

	return result, false, nil
}

// decodeField base64-decodes a provider field. Decode failures degrade to an
// empty string; the raw value is logged so the loss is visible.
func (c *Client) decodeField(value *string, field string) string {
	if value == nil {
		return ""
	}
	// Judge0 line-wraps long base64 payloads.
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, *value)
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		c.logger.Warn().Err(err).Str("field", field).Msg("judge payload not valid base64, dropping")
		return ""
	}
	return string(decoded)
}
