package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/AymenMB/autogen-backend/pkg/config"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/metrics"
)

const apiVersion = "v1beta"

// Client talks to the Gemini generateContent REST endpoint. A missing API key
// is tolerated at construction; each call fails with a config error instead so
// the rest of the app keeps working without credentials.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
	logg       *logger.Logger
	inference  *metrics.InferenceMetrics
}

func NewClient(cfg config.GeminiConfig, logg *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logg:       logg,
	}
}

// WithMetrics attaches inference metrics to every model call.
func (c *Client) WithMetrics(m *metrics.InferenceMetrics) *Client {
	c.inference = m
	return c
}

// Configured reports whether the client holds an API key.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// ExtractJSON sends the instruction plus inline images to the text model with
// a structured-output schema and returns the raw JSON the model produced.
func (c *Client) ExtractJSON(ctx context.Context, instruction string, images []ImageInput, schema *Schema) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "AI analysis is not configured")
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "instruction is required")
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(instruction, images)}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.text())
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeParse, "model returned no structured output")
	}
	return json.RawMessage(text), nil
}

// GenerateImage sends the prompt plus optional reference images to the image
// model and returns the produced image as a data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	if !c.Configured() {
		return "", pkgerrors.New(pkgerrors.CodeConfig, "AI generation is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "prompt is required")
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(prompt, images)}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return "", err
	}

	dataURLs := resp.images()
	if len(dataURLs) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "model returned no image")
	}
	return dataURLs[0], nil
}

func buildParts(text string, images []ImageInput) []part {
	parts := []part{{Text: text}}
	for _, img := range images {
		data := stripDataURLPrefix(img.DataBase64)
		if data == "" {
			continue
		}
		mime := img.MimeType
		if mime == "" {
			mime = mimeFromDataURL(img.DataBase64, "image/jpeg")
		}
		parts = append(parts, part{InlineData: &blob{Data: data, MimeType: mime}})
	}
	return parts
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (*generateContentResponse, error) {
	start := time.Now()
	resp, err := c.doGenerateContent(ctx, model, payload)
	c.inference.Observe(model, time.Since(start), err)
	return resp, err
}

func (c *Client) doGenerateContent(ctx context.Context, model string, payload generateContentRequest) (*generateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal generateContent request")
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, apiVersion, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build generateContent request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gemini request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gemini response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "AI model is busy, please wait a moment")
	}
	if resp.StatusCode >= 400 {
		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("gemini %s returned %s", model, resp.Status))
		}
		apiErr := fmt.Errorf("gemini API %s: %s", resp.Status, strings.TrimSpace(string(raw)))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, "AI request failed")
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gemini response")
	}
	return &decoded, nil
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r *generateContentResponse) text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (r *generateContentResponse) images() []string {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	var out []string
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			out = append(out, fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data))
		}
	}
	return out
}

var dataURLRegexp = regexp.MustCompile(`^data:([^;]+);base64,`)

// DecodeDataURL splits a data URL into its mime type and decoded bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	matches := dataURLRegexp.FindStringSubmatch(dataURL)
	if len(matches) != 2 {
		return "", nil, fmt.Errorf("not a base64 data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(stripDataURLPrefix(dataURL))
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL payload: %w", err)
	}
	return matches[1], raw, nil
}

func mimeFromDataURL(value, fallback string) string {
	if matches := dataURLRegexp.FindStringSubmatch(strings.TrimSpace(value)); len(matches) == 2 {
		return matches[1]
	}
	return fallback
}

func stripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
