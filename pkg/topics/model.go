// Package topics summarizes topic-model output: keyword lists, topic
// prevalence split by a binary stratifier, and sample documents per topic.
// Models are trained elsewhere and loaded from a JSON export.
package topics

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrInvalidModel is returned when a model export fails validation.
	ErrInvalidModel = errors.New("topics: invalid model")

	// ErrUnknownFormatting is returned for an unknown topic list formatting.
	ErrUnknownFormatting = errors.New("topics: unknown formatting")

	// ErrUnknownTopic is returned when a topic id is out of range.
	ErrUnknownTopic = errors.New("topics: unknown topic")
)

// Topic list formattings.
const (
	FormattingSummary  = "summary"
	FormattingKeywords = "keywords"
)

// TermsPerTopic is the number of terms listed per topic.
const TermsPerTopic = 20

//go:embed model.schema.json
var modelSchema []byte

var nonWord = regexp.MustCompile(`(?:\p{Nd}|[^\p{L}\p{M}\p{N}_])+`)

// TermWeight is one term of a topic and its weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Model exposes the topics of a trained topic model.
type Model interface {
	NumTopics() int
	// TopicTerms returns up to n terms of topic, strongest first. A negative
	// n returns every term.
	TopicTerms(topic, n int) []TermWeight
}

type modelFile struct {
	Name   string `json:"name,omitempty"`
	Topics []struct {
		ID    int          `json:"id"`
		Terms []TermWeight `json:"terms"`
	} `json:"topics"`
}

// FileModel is a Model read from a JSON export.
type FileModel struct {
	name   string
	topics [][]TermWeight
}

// ReadModel reads and validates a JSON model export. Topic ids must be
// exactly 0..n-1.
func ReadModel(r io.Reader) (*FileModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(modelSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.Field()+": "+verr.Description())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(msgs, "; "))
	}

	var file modelFile

	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	m := &FileModel{name: file.Name, topics: make([][]TermWeight, len(file.Topics))}
	seen := make([]bool, len(file.Topics))

	for _, t := range file.Topics {
		if t.ID >= len(file.Topics) || seen[t.ID] {
			return nil, fmt.Errorf("%w: topic ids must be unique and below %d, got %d",
				ErrInvalidModel, len(file.Topics), t.ID)
		}

		seen[t.ID] = true
		m.topics[t.ID] = slices.Clone(t.Terms)
	}

	return m, nil
}

// LoadModel reads the model export at path.
func LoadModel(path string) (*FileModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadModel(f)
}

// Name returns the model name from the export, if any.
func (m *FileModel) Name() string { return m.name }

// NumTopics returns the number of topics.
func (m *FileModel) NumTopics() int { return len(m.topics) }

// TopicTerms returns up to n terms of topic in export order.
func (m *FileModel) TopicTerms(topic, n int) []TermWeight {
	if topic < 0 || topic >= len(m.topics) {
		return nil
	}

	terms := m.topics[topic]
	if n >= 0 && n < len(terms) {
		terms = terms[:n]
	}

	return slices.Clone(terms)
}

// FormattedTopicList renders the first n topics of model (all when n is
// negative) as "Topic i: a, b" (summary) or "Top keywords are: a, b"
// (keywords). Digits and punctuation are stripped from terms.
func FormattedTopicList(model Model, formatting string, n int) ([]string, error) {
	var prefix func(topic int) string

	switch formatting {
	case FormattingSummary:
		prefix = func(topic int) string { return "Topic " + strconv.Itoa(topic) + ": " }
	case FormattingKeywords:
		prefix = func(int) string { return "Top keywords are: " }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatting, formatting)
	}

	count := model.NumTopics()
	if n >= 0 && n < count {
		count = n
	}

	out := make([]string, count)
	for topic := range count {
		out[topic] = prefix(topic) + strings.Join(termWords(model.TopicTerms(topic, TermsPerTopic)), ", ")
	}

	return out, nil
}

// Keywords returns the first n cleaned term words of every topic, joined by
// ", " and indexed by topic id.
func Keywords(model Model, n int) []string {
	out := make([]string, model.NumTopics())
	for topic := range out {
		words := termWords(model.TopicTerms(topic, TermsPerTopic))
		if n >= 0 && n < len(words) {
			words = words[:n]
		}

		out[topic] = strings.Join(words, ", ")
	}

	return out
}

func termWords(terms []TermWeight) []string {
	var words []string

	for _, t := range terms {
		words = append(words, strings.Fields(nonWord.ReplaceAllString(t.Term, " "))...)
	}

	return words
}
