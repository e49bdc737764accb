package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AymenMB/autogen-backend/pkg/config"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TextModel:  "text-model",
		ImageModel: "image-model",
	}, nil)
}

func TestExtractJSONSuccess(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateContentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"make\":\"Porsche\"}"}]}}]}`))
	})

	schema := &Schema{Type: "object", Properties: map[string]Schema{"make": {Type: "string"}}}
	raw, err := client.ExtractJSON(context.Background(), "identify the car", []ImageInput{{DataBase64: "aGVsbG8=", MimeType: "image/jpeg"}}, schema)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}

	if gotPath != "/v1beta/models/text-model:generateContent" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header %s", gotKey)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected structured output config, got %+v", gotReq.GenerationConfig)
	}
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("expected text part plus one inline image, got %+v", gotReq.Contents)
	}
	if gotReq.Contents[0].Parts[1].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("unexpected inline mime %s", gotReq.Contents[0].Parts[1].InlineData.MimeType)
	}

	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("model output not json: %v", err)
	}
	if parsed["make"] != "Porsche" {
		t.Fatalf("unexpected extraction %v", parsed)
	}
}

func TestExtractJSONStripsDataURLPrefix(t *testing.T) {
	var gotReq generateContentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	})

	payload := base64.StdEncoding.EncodeToString([]byte("img-bytes"))
	_, err := client.ExtractJSON(context.Background(), "analyze", []ImageInput{{DataBase64: "data:image/png;base64," + payload}}, nil)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}

	inline := gotReq.Contents[0].Parts[1].InlineData
	if inline.Data != payload {
		t.Fatalf("expected prefix stripped, got %s", inline.Data)
	}
	if inline.MimeType != "image/png" {
		t.Fatalf("expected mime sniffed from data URL, got %s", inline.MimeType)
	}
}

func TestGenerateImageReturnsDataURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "image-model") {
			t.Fatalf("expected image model, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"cG5n"}}]}}]}`))
	})

	dataURL, err := client.GenerateImage(context.Background(), "a car on salt flats", nil)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if dataURL != "data:image/png;base64,cG5n" {
		t.Fatalf("unexpected data URL %s", dataURL)
	}
}

func TestGenerateImageNoImageInResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"cannot comply"}]}}]}`))
	})

	_, err := client.GenerateImage(context.Background(), "a car", nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRateLimitMapsToRateLimitCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GenerateImage(context.Background(), "a car", nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestMissingKeyFailsWithConfigError(t *testing.T) {
	client := NewClient(config.GeminiConfig{}, nil)
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}

	_, err := client.ExtractJSON(context.Background(), "analyze", nil, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	mime, data, err := DecodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")))
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mime != "image/png" || string(data) != "png-bytes" {
		t.Fatalf("unexpected decode %s %q", mime, data)
	}

	if _, _, err := DecodeDataURL("https://example.com/image.png"); err == nil {
		t.Fatal("expected error for non data URL")
	}
}
