package filereader

import (
	"fmt"
	"iter"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ordinal matches a leading list marker such as "12. ".
var ordinal = regexp.MustCompile(`^\d+\. `)

// Links yields, in document order, every line of text that names a URL under prefix.
// The sequence is recomputed on each range, so it can be iterated more than once.
func Links(text, prefix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		// No line length limit.
		rest := text
		for len(rest) > 0 {
			line := rest
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				line, rest = rest[:i], rest[i+1:]
			} else {
				rest = ""
			}

			link, ok := parseLine(line, prefix)
			if !ok {
				continue
			}
			if !yield(link) {
				return
			}
		}
	}
}

func parseLine(line, prefix string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, prefix) {
		return "", false
	}

	if loc := ordinal.FindStringIndex(line); loc != nil {
		line = strings.TrimSpace(line[loc[1]:])
	}

	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return line, true
}

// ReadLinks loads the document at path and collects its links.
func ReadLinks(path, prefix string, logger *zap.Logger) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read link document: %w", err)
	}

	links := []string{}
	for link := range Links(string(data), prefix) {
		logger.Debug("read URL", zap.String("url", link))
		links = append(links, link)
	}

	logger.Info("finished reading URLs", zap.String("path", path), zap.Int("total_urls", len(links)))
	return links, nil
}
