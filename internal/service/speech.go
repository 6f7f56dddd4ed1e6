package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

// speechTimeout bounds the recognize call; the speech API is the only
// downstream with an explicit deadline.
const speechTimeout = 10 * time.Second

// AudioConfig describes the encoding of the uploaded audio content.
type AudioConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
}

// SpeechService transcribes inline audio through the Google Speech REST API.
type SpeechService struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewSpeechService returns a speech client. An empty apiURL selects the
// public Google endpoint.
func NewSpeechService(apiKey, apiURL string) *SpeechService {
	if apiURL == "" {
		apiURL = defaultSpeechURL
	}
	return &SpeechService{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: speechTimeout},
	}
}

// Recognize sends the base64 audio content with its encoding config and
// returns the transcript, concatenating the best alternative of every result
// segment in order. No segments yields an empty string.
func (s *SpeechService) Recognize(ctx context.Context, content string, cfg AudioConfig) (string, error) {
	reqBody := struct {
		Config AudioConfig `json:"config"`
		Audio  struct {
			Content string `json:"content"`
		} `json:"audio"`
	}{Config: cfg}
	reqBody.Audio.Content = content

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("speech request failed with status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("speech request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode speech response: %w", err)
	}

	var transcript strings.Builder
	for _, segment := range result.Results {
		if len(segment.Alternatives) > 0 {
			transcript.WriteString(segment.Alternatives[0].Transcript)
		}
	}
	return transcript.String(), nil
}
