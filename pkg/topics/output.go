package topics

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

// Sample sizes for TextOutput.
const (
	DefaultSampleTopics = 10
	DefaultSampleTexts  = 5
)

// TextOutput writes each ranked topic with its value and keyword line, then
// the top sampleTexts documents of the ranked topics at positions 1 to
// sampleTopics-1. The first ranked topic is listed but not sampled.
// topics is indexed by topic id.
func TextOutput(
	w io.Writer, ds *dataset.Dataset, sorted []RankedTopic, topics []string,
	sampleTopics, sampleTexts int, textCol string,
) error {
	texts, err := ds.Column(textCol)
	if err != nil {
		return err
	}

	for _, r := range sorted {
		if r.Topic < 0 || r.Topic >= len(topics) {
			return fmt.Errorf("%w: %d of %d", ErrUnknownTopic, r.Topic, len(topics))
		}
	}

	bw := bufio.NewWriter(w)

	for _, r := range sorted {
		fmt.Fprintf(bw, "Topic #%d occurred in\n%.2f\n%s\n", r.Topic, r.Value, topics[r.Topic])
	}

	fmt.Fprint(bw, "\n------- Sample Documents -------\n\n")

	for _, r := range sampled(sorted, sampleTopics) {
		weights, err := ds.Floats(r.Column)
		if err != nil {
			return err
		}

		fmt.Fprintf(bw, "Topic #%d occurred in\n%.2f\n%s\n", r.Topic, r.Value, topics[r.Topic])
		fmt.Fprintf(bw, "\nTop %d documents fitting topic %d are:\n\n", min(max(sampleTexts, 0), len(texts)), r.Topic)

		for rank, pos := range topPositions(weights, sampleTexts) {
			fmt.Fprintf(bw, "Topic %d Rank %d\nWas %.2f percent topic %d:\n%s\n\n",
				r.Topic, rank+1, weights[pos]*100, r.Topic, texts[pos])
		}
	}

	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write topic output: %w", err)
	}

	return nil
}

func sampled(sorted []RankedTopic, sampleTopics int) []RankedTopic {
	end := min(sampleTopics, len(sorted))
	if end <= 1 {
		return nil
	}

	return sorted[1:end]
}

// topPositions returns the positions of the n largest weights, NaN last,
// ties in row order.
func topPositions(weights []float64, n int) []int {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		x, y := weights[a], weights[b]

		switch {
		case math.IsNaN(x) && math.IsNaN(y):
			return 0
		case math.IsNaN(x):
			return 1
		case math.IsNaN(y):
			return -1
		default:
			return cmp.Compare(y, x)
		}
	})

	return order[:min(max(n, 0), len(order))]
}
