package topics

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/stats"
	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

var (
	// ErrUnknownMethod is returned for an unknown aggregation method.
	ErrUnknownMethod = errors.New("topics: unknown aggregation method")

	// ErrUnknownAggregate is returned for an unknown summary column name.
	ErrUnknownAggregate = errors.New("topics: unknown aggregate")
)

// Method aggregates binarized topic weights.
type Method string

// Aggregation methods.
const (
	MethodMean Method = "mean"
	MethodSum  Method = "sum"
)

// DefaultThreshold is the topic weight below which a topic counts as absent.
const DefaultThreshold = 0.01

// Aggregate names a summary column.
type Aggregate string

// Summary columns.
const (
	AggregateAll        Aggregate = "all"
	AggregateHigh       Aggregate = "high"
	AggregateLow        Aggregate = "low"
	AggregateDifference Aggregate = "difference"
	AggregateProportion Aggregate = "proportion"
)

// ParseMethod resolves a method name.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case MethodMean, MethodSum:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// ParseAggregate resolves a summary column name.
func ParseAggregate(name string) (Aggregate, error) {
	switch a := Aggregate(strings.ToLower(strings.TrimSpace(name))); a {
	case AggregateAll, AggregateHigh, AggregateLow, AggregateDifference, AggregateProportion:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAggregate, name)
	}
}

func (m Method) aggregate(values []float64) float64 {
	if m == MethodSum {
		return stats.Sum(values)
	}

	return stats.Mean(values)
}

// TopicSummary is the prevalence of one topic overall and within each
// stratum. Proportion is High/Low and may be infinite or NaN.
type TopicSummary struct {
	Topic      int     `json:"topic"       yaml:"topic"`
	Column     string  `json:"column"      yaml:"column"`
	All        float64 `json:"all"         yaml:"all"`
	High       float64 `json:"high"        yaml:"high"`
	Low        float64 `json:"low"         yaml:"low"`
	Difference float64 `json:"difference"  yaml:"difference"`
	Proportion float64 `json:"proportion"  yaml:"proportion"`
}

// Value returns the summary column named by a.
func (t TopicSummary) Value(a Aggregate) float64 {
	switch a {
	case AggregateHigh:
		return t.High
	case AggregateLow:
		return t.Low
	case AggregateDifference:
		return t.Difference
	case AggregateProportion:
		return t.Proportion
	default:
		return t.All
	}
}

// Summary compares topic prevalence across a binary stratifier.
type Summary struct {
	Stratifier string         `json:"stratifier" yaml:"stratifier"`
	Method     Method         `json:"method"     yaml:"method"`
	Threshold  float64        `json:"threshold"  yaml:"threshold"`
	Documents  int            `json:"documents"  yaml:"documents"`
	Topics     []TopicSummary `json:"topics"     yaml:"topics"`
}

// TopicColumns returns the default topic column names "0".."n-1".
func TopicColumns(nTopics int) []string {
	cols := make([]string, nTopics)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}

	return cols
}

// Binarize maps a topic weight to 0 below thresh and to its sign otherwise.
// NaN stays NaN.
func Binarize(v, thresh float64) float64 {
	switch {
	case math.IsNaN(v):
		return v
	case v < thresh, v == 0:
		return 0
	case v > 0:
		return 1
	default:
		return -1
	}
}

// SummarizeOnStratifier binarizes the topic columns of ds at thresh and
// aggregates each over all rows, rows where strat is 1 and rows where it
// is 0. A nil topicCols uses TopicColumns(nTopics).
func SummarizeOnStratifier(
	ds *dataset.Dataset, nTopics int, strat string, topicCols []string, thresh float64, method Method,
) (*Summary, error) {
	if method == "" {
		method = MethodMean
	}

	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	if topicCols == nil {
		topicCols = TopicColumns(nTopics)
	}

	stratName, err := ds.ResolveColumn(strat)
	if err != nil {
		return nil, err
	}

	stratVals, err := ds.Floats(stratName)
	if err != nil {
		return nil, err
	}

	for i, v := range stratVals {
		stratVals[i] = Binarize(v, thresh)
	}

	summary := &Summary{
		Stratifier: stratName,
		Method:     method,
		Threshold:  thresh,
		Documents:  ds.Len(),
		Topics:     make([]TopicSummary, 0, len(topicCols)),
	}

	for topic, col := range topicCols {
		name, err := ds.ResolveColumn(col)
		if err != nil {
			return nil, err
		}

		weights, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}

		var high, low []float64

		for i, w := range weights {
			w = Binarize(w, thresh)
			weights[i] = w

			switch stratVals[i] {
			case 1:
				high = append(high, w)
			case 0:
				low = append(low, w)
			}
		}

		ts := TopicSummary{
			Topic:  topic,
			Column: name,
			All:    method.aggregate(weights),
			High:   method.aggregate(high),
			Low:    method.aggregate(low),
		}
		ts.Difference = math.Abs(ts.High - ts.Low)
		ts.Proportion = ts.High / ts.Low

		summary.Topics = append(summary.Topics, ts)
	}

	return summary, nil
}

// RankedTopic is a topic and its value under one aggregate.
type RankedTopic struct {
	Topic  int     `json:"topic"  yaml:"topic"`
	Column string  `json:"column" yaml:"column"`
	Value  float64 `json:"value"  yaml:"value"`
}

// Ranked returns the topics ordered by aggregate a descending, NaN last,
// ties by topic id.
func (s *Summary) Ranked(a Aggregate) []RankedTopic {
	out := make([]RankedTopic, len(s.Topics))
	for i, t := range s.Topics {
		out[i] = RankedTopic{Topic: t.Topic, Column: t.Column, Value: t.Value(a)}
	}

	slices.SortStableFunc(out, func(x, y RankedTopic) int {
		xNaN, yNaN := math.IsNaN(x.Value), math.IsNaN(y.Value)

		switch {
		case xNaN && yNaN:
			return 0
		case xNaN:
			return 1
		case yNaN:
			return -1
		default:
			return cmp.Compare(y.Value, x.Value)
		}
	})

	return out
}

// Comparison lists topic ids ranked by each stratum aggregate.
type Comparison struct {
	ByAll  []int `json:"by_all"  yaml:"by_all"`
	ByHigh []int `json:"by_high" yaml:"by_high"`
	ByLow  []int `json:"by_low"  yaml:"by_low"`
}

// Compare ranks the topics by the all, high and low aggregates.
func (s *Summary) Compare() Comparison {
	ids := func(a Aggregate) []int {
		ranked := s.Ranked(a)

		out := make([]int, len(ranked))
		for i, r := range ranked {
			out[i] = r.Topic
		}

		return out
	}

	return Comparison{
		ByAll:  ids(AggregateAll),
		ByHigh: ids(AggregateHigh),
		ByLow:  ids(AggregateLow),
	}
}

// CompareTopicsDistribution summarizes ds and ranks the topics.
func CompareTopicsDistribution(
	ds *dataset.Dataset, nTopics int, strat string, topicCols []string, thresh float64, method Method,
) (Comparison, error) {
	summary, err := SummarizeOnStratifier(ds, nTopics, strat, topicCols, thresh, method)
	if err != nil {
		return Comparison{}, err
	}

	return summary.Compare(), nil
}
