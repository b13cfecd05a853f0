package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"pdfocr/internal/models"
)

const (
	systemPrompt = "You are a professional OCR engine. Extract all visible text exactly as it appears. " +
		"Preserve line breaks, spacing, special characters and formatting. Do not interpret or correct the text."
	userPrompt = "Extract text verbatim from this image maintaining original layout including columns, tables, and mathematical notations."

	maxTokens   = 4096
	temperature = 0.1
)

// Magic byte prefixes for the supported page image encodings.
var (
	pngMagic    = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic   = []byte{0xff, 0xd8}
	tiffMagicLE = []byte{'I', 'I', 0x2a, 0x00}
	tiffMagicBE = []byte{'M', 'M', 0x00, 0x2a}
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	IncludeRaw     bool
	MaxAttempts    int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
	RequestsPerSec float64

	// HTTPClient overrides the transport, mainly for tests. When set, its
	// timeout is used as-is.
	HTTPClient *http.Client
}

// Client submits page images to an OpenAI-compatible multimodal completion
// endpoint and maps outcomes onto ExtractionResults. A Client is safe for
// concurrent use.
type Client struct {
	api         *openai.Client
	model       string
	includeRaw  bool
	maxAttempts int
	backoffBase time.Duration
	limiter     *rate.Limiter
}

// NewClient creates the extraction client. With MaxAttempts 1 (the default)
// no retries are performed.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1)
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		includeRaw:  opts.IncludeRaw,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		limiter:     limiter,
	}, nil
}

// ExtractPage performs the remote call for one page. Failures are carried
// inside the result, never as a returned error: the caller decides how to
// isolate them. Transient failures are retried up to the configured attempt
// count with exponential backoff; authentication and malformed-response
// failures are final on the first occurrence.
func (c *Client) ExtractPage(ctx context.Context, page models.Page) models.ExtractionResult {
	result := models.ExtractionResult{Index: page.Index}

	if err := validatePage(page); err != nil {
		result.Error = err.Error()
		return result
	}

	req := c.buildRequest(page)

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.backoff(ctx, attempt); err != nil {
				break
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}

		text, raw, xerr := c.complete(ctx, req)
		if xerr == nil {
			result.Success = true
			result.Text = text
			result.Raw = raw
			return result
		}

		lastErr = xerr
		if !xerr.Kind.Retryable() || ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = &Error{Kind: KindTransport, Msg: "request canceled", Err: ctx.Err()}
	}
	result.Error = lastErr.Error()
	return result
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, json.RawMessage, *Error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, &Error{Kind: KindMalformed, Msg: "response carried no choices"}
	}

	var raw json.RawMessage
	if c.includeRaw {
		if b, err := json.Marshal(resp); err == nil {
			raw = b
		}
	}
	return resp.Choices[0].Message.Content, raw, nil
}

func (c *Client) buildRequest(page models.Page) openai.ChatCompletionRequest {
	dataURI := fmt.Sprintf("data:%s;base64,%s", page.Format.MIME(), base64.StdEncoding.EncodeToString(page.Data))

	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: userPrompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// backoff sleeps before retry attempt n (n >= 2), doubling the base delay
// per attempt. Cancellation short-circuits the wait.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase << (attempt - 2)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validatePage(page models.Page) error {
	if len(page.Data) == 0 {
		return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf("page %d has no image bytes", page.Index)}
	}
	if !matchesFormat(page.Data, page.Format) {
		return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf("page %d image bytes do not match declared %s encoding", page.Index, page.Format)}
	}
	return nil
}

func matchesFormat(data []byte, format models.ImageFormat) bool {
	switch format {
	case models.FormatPNG:
		return bytes.HasPrefix(data, pngMagic)
	case models.FormatJPEG:
		return bytes.HasPrefix(data, jpegMagic)
	case models.FormatTIFF:
		return bytes.HasPrefix(data, tiffMagicLE) || bytes.HasPrefix(data, tiffMagicBE)
	}
	return false
}
