// Package textclean prepares scraped listing text for topic modelling:
// boilerplate and URL removal, punctuation encoding and neighborhood
// masking.
package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Boilerplate is the footer craigslist appends to every post body.
const Boilerplate = "QR Code Link to This Post"

// Tokens substituted into cleaned text.
const (
	URLToken  = "#URL"
	HoodToken = "#HOOD"
)

var (
	lineBreaks = regexp.MustCompile(`[\n\r\t]`)
	domainURL  = regexp.MustCompile(`\S*(\.com|\.net|\.gov|\.be|\.org)\S*`)
	httpURL    = regexp.MustCompile(`http\S*`)
	digits     = regexp.MustCompile(`\p{Nd}+`)
	leadCommas = regexp.MustCompile(`^,+`)
	commaRuns  = regexp.MustCompile(`,,+`)
	punctRuns  = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]+`)
	bangOrCash = regexp.MustCompile(`!+|\$+`)
	spaceRuns  = regexp.MustCompile(`\s+`)
	bodySpaces = regexp.MustCompile(` +`)
)

// Options selects the cleaning passes.
type Options struct {
	// CleanPunct strips punctuation, keeping runs of ! and $ as tokens.
	CleanPunct bool

	// BodyMode only removes boilerplate, joins lines and collapses commas
	// and spaces.
	BodyMode bool
}

// DefaultOptions cleans punctuation in full mode.
func DefaultOptions() Options {
	return Options{CleanPunct: true}
}

// CleanText applies the cleaning passes selected by opts to text.
func CleanText(text string, opts Options) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, Boilerplate, "")

	if opts.BodyMode {
		text = lineBreaks.ReplaceAllString(text, " ")
		text = commaRuns.ReplaceAllString(text, ",")
		text = leadCommas.ReplaceAllString(text, "")
		text = bodySpaces.ReplaceAllString(text, " ")

		return strings.TrimSpace(text)
	}

	text = lineBreaks.ReplaceAllString(text, " ")
	text = domainURL.ReplaceAllString(text, " "+URLToken+" ")
	text = httpURL.ReplaceAllString(text, " "+URLToken+" ")
	text = digits.ReplaceAllString(text, " ")
	text = leadCommas.ReplaceAllString(text, "")
	text = commaRuns.ReplaceAllString(text, "")

	if opts.CleanPunct {
		text = encodePunct(text)
	}

	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// CleanAll cleans every text with opts.
func CleanAll(texts []string, opts Options) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = CleanText(t, opts)
	}

	return out
}

// encodePunct drops punctuation except runs of ! and $, which become
// tokens of four or more characters so they survive the short-token filter. URL tokens
// are left intact.
func encodePunct(text string) string {
	parts := strings.Split(text, URLToken)
	for i, part := range parts {
		parts[i] = punctRuns.ReplaceAllStringFunc(part, encodeRun)
	}

	return strings.Join(parts, URLToken)
}

func encodeRun(run string) string {
	var b strings.Builder

	for _, m := range bangOrCash.FindAllString(run, -1) {
		b.WriteByte(' ')
		b.WriteString(PunctToken(m))
		b.WriteByte(' ')
	}

	return b.String()
}

// PunctToken returns the token for a run of ! or $ characters.
func PunctToken(run string) string {
	switch {
	case run == "":
		return ""
	case run[0] == '$' && len(run) > 1:
		return "$$__"
	case run[0] == '$':
		return "$___"
	case len(run) >= 4:
		return "!!!!_"
	case len(run) == 3:
		return "!!!_"
	case len(run) == 2:
		return "!!__"
	default:
		return "!___"
	}
}
