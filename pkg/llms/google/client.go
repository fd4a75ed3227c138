package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

const (
	providerName       = "google"
	defaultBaseURL     = "https://translate.googleapis.com"
	translatePath      = "/translate_a/single"
	defaultHTTPTimeout = 30 * time.Second
	envGoogleBaseURL   = "GOOGLE_TRANSLATE_URL"
	maxErrorBodyBytes  = 512
)

type apiClient struct {
	httpClient *http.Client
	baseURL    string
}

// translation is the useful part of the endpoint's positional JSON array:
// index 0 holds [translated, original, ...] segments, index 2 the detected source.
type translation struct {
	Text           string
	SourceLanguage string
}

func newAPIClient(baseURL string, httpClient *http.Client) *apiClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(envGoogleBaseURL))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &apiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

func (c *apiClient) translate(ctx context.Context, text string, sourceLang string, targetLang string) (translation, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sourceLang)
	query.Set("tl", targetLang)
	query.Set("dt", "t")

	form := url.Values{}
	form.Set("q", text)

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+translatePath+"?"+query.Encode(),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return translation{}, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return translation{}, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	responseBits, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return translation{}, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		message := strings.TrimSpace(string(responseBits))
		if len(message) > maxErrorBodyBytes {
			message = message[:maxErrorBodyBytes]
		}
		if message == "" {
			message = http.StatusText(httpResponse.StatusCode)
		}
		return translation{}, utils.WrapIfNotNil(fmt.Errorf("google translate error (%d): %s", httpResponse.StatusCode, message))
	}

	return parseTranslation(responseBits)
}

func parseTranslation(body []byte) (translation, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return translation{}, utils.WrapIfNotNil(err)
	}
	if len(payload) == 0 {
		return translation{}, errors.New("google translate returned an empty payload")
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return translation{}, utils.WrapIfNotNil(err)
	}

	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		if part, ok := segment[0].(string); ok {
			b.WriteString(part)
		}
	}
	if b.Len() == 0 {
		return translation{}, errors.New("google translate returned no translated segments")
	}

	out := translation{Text: b.String()}
	if len(payload) > 2 {
		var source string
		if err := json.Unmarshal(payload[2], &source); err == nil {
			out.SourceLanguage = source
		}
	}
	return out, nil
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}
