package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

// NoAnswer is the fallback answer sentence when the model reply carries no
// usable "Answer:" line or the model call fails outright.
const NoAnswer = "No answer provided."

const (
	interpretMaxTokens   = 200
	interpretTemperature = 0.5
)

// Interpretation is the structured intent recovered from a free-text
// transcript: a query-friendly search sentence, ingredients the user wants
// absent, and a human-readable answer sentence.
type Interpretation struct {
	Sentence   string
	Exclusions []string
	Answer     string
}

// InterpreterService asks a Gemini model to restructure a transcript into
// labeled lines and parses them back out.
type InterpreterService struct {
	client *genai.Client
	model  string
}

func NewInterpreterService(client *genai.Client, model string) *InterpreterService {
	return &InterpreterService{client: client, model: model}
}

// Interpret sends the transcript through the instruction prompt and parses
// the reply. The model output format is not contractually guaranteed, so all
// parsing is best-effort with defaults; only transport-level failures
// surface as errors.
func (s *InterpreterService) Interpret(ctx context.Context, transcript string) (*Interpretation, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(interpretPrompt(transcript)), &genai.GenerateContentConfig{
		MaxOutputTokens: interpretMaxTokens,
		Temperature:     genai.Ptr[float32](interpretTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("interpretation request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("interpretation returned no content")
	}

	parsed := ParseReply(resp.Candidates[0].Content.Parts[0].Text)
	return &parsed, nil
}

func interpretPrompt(input string) string {
	return "Extract the important parts and exclusions from the following text. " +
		"Important parts include the main context (e.g., meal type like 'breakfast', 'lunch'), ingredients, or key items to include. " +
		"Exclusions are things explicitly mentioned to avoid (e.g., 'I am allergic to milk' or 'without vegetables'). " +
		"Please make sure exclusions are clearly listed as items that should not appear in recipes. " +
		"Generate a short, clear, and focused sentence that highlights the key ingredients and context, while avoiding unnecessary details. " +
		"The important sentence should be query-friendly, suitable for searching recipes or ingredients in a database.\n\n" +
		"Format:\n" +
		"Important sentence: [Concise and query-friendly sentence summarizing the key context and ingredients]\n" +
		"Exclusions: [exclusion1, exclusion2, ...]\n" +
		"Answer: [One concise sentence to query the database, starting with 'Here are some recipes for ...']\n\n" +
		"Text: " + input
}

var (
	sentencePattern   = regexp.MustCompile(`(?i)Important sentence:[ \t]*([^\n]*)`)
	exclusionsPattern = regexp.MustCompile(`(?i)Exclusions:[ \t]*([^\n]*)`)
	answerPattern     = regexp.MustCompile(`(?i)Answer:[ \t]*(Here are some recipes for [^\n]*)`)
)

// ParseReply extracts the three labeled lines from a model reply. Labels are
// matched case-insensitively; a missing or empty sentence yields "", missing
// or "none" exclusions yield an empty list, and the answer falls back to
// NoAnswer unless the reply offers one in the expected opening form.
func ParseReply(text string) Interpretation {
	out := Interpretation{Exclusions: []string{}, Answer: NoAnswer}

	if m := sentencePattern.FindStringSubmatch(text); m != nil {
		out.Sentence = strings.TrimSpace(m[1])
	}

	if m := exclusionsPattern.FindStringSubmatch(text); m != nil {
		raw := strings.TrimSpace(m[1])
		if raw != "" && !strings.EqualFold(raw, "none") {
			items := []string{raw}
			if strings.Contains(raw, ",") {
				items = strings.Split(raw, ",")
			}
			for _, item := range items {
				item = strings.Trim(strings.TrimSpace(item), `"'`)
				if item != "" {
					out.Exclusions = append(out.Exclusions, item)
				}
			}
		}
	}

	if m := answerPattern.FindStringSubmatch(text); m != nil {
		out.Answer = strings.TrimSpace(m[1])
	}

	return out
}

// ExpandExclusions returns the lowercase and first-letter-capitalized forms
// of every term, so content filtering tolerates either case variant of an
// ingredient mention. Mixed- and upper-case mentions remain uncovered.
func ExpandExclusions(exclusions []string) []string {
	if len(exclusions) == 0 {
		return nil
	}

	combined := make([]string, 0, 2*len(exclusions))
	for _, term := range exclusions {
		combined = append(combined, strings.ToLower(term))
	}
	for _, term := range exclusions {
		combined = append(combined, capitalize(strings.ToLower(term)))
	}
	return combined
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return string(unicode.ToUpper(runes[0])) + string(runes[1:])
}
