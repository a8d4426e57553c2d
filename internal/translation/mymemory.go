// Package translation translates receipt item names and caches the results by source phrase.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Translator translates a single phrase
type Translator interface {
	Translate(ctx context.Context, phrase string) (string, error)
}

// MyMemory implements Translator using the MyMemory public API
type MyMemory struct {
	baseURL  string
	langPair string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewMyMemory creates a MyMemory client. langPair uses the API's "nl|en" form.
func NewMyMemory(baseURL, langPair string, timeout time.Duration) *MyMemory {
	if baseURL == "" {
		baseURL = "https://api.mymemory.translated.net"
	}
	if langPair == "" {
		langPair = "nl|en"
	}
	return &MyMemory{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		langPair: langPair,
		client:   &http.Client{Timeout: timeout},
		// The anonymous quota is small; keep bursts of a single receipt polite
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus json.Number `json:"responseStatus"`
}

// Translate requests a translation of phrase
func (m *MyMemory) Translate(ctx context.Context, phrase string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	query := url.Values{"q": {phrase}, "langpair": {m.langPair}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/get?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling translation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("translation API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	// Quota and language pair errors arrive as HTTP 200 with the message as the translation
	if status := out.ResponseStatus.String(); status != "" && status != "200" {
		return "", fmt.Errorf("translation API error (responseStatus %s): %s", status, out.ResponseData.TranslatedText)
	}

	text := strings.TrimSpace(out.ResponseData.TranslatedText)
	if text == "" {
		return "", fmt.Errorf("empty translation for %q", phrase)
	}
	return text, nil
}
