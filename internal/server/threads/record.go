package threads

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// messagePattern matches a numbered message line, as opposed to the owner
// header or an upload audit line.
var messagePattern = regexp.MustCompile(`^\d+ .+?: `)

func isMessageLine(line string) bool {
	return messagePattern.MatchString(line)
}

func renderMessage(index int, author, body string) string {
	return fmt.Sprintf("%d %s: %s", index, author, body)
}

// readRecord returns the record's lines, without a trailing empty element.
func readRecord(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}

// writeRecord rewrites the record in full, one line per element.
func writeRecord(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o660); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// findMessage returns the position in lines of the message whose rendered
// index is wanted, or -1. Only lines matching the message pattern count;
// audit lines are skipped.
func findMessage(lines []string, wanted int) int {
	count := 0
	for i := 1; i < len(lines); i++ {
		if !isMessageLine(lines[i]) {
			continue
		}
		count++
		if count == wanted {
			return i
		}
	}
	return -1
}

// renumber rewrites the leading index of every message line to its 1-based
// rank, restoring the dense 1..count invariant after a deletion. Audit
// lines keep their place untouched.
func renumber(lines []string) {
	count := 0
	for i := 1; i < len(lines); i++ {
		if !isMessageLine(lines[i]) {
			continue
		}
		count++
		_, rest, _ := strings.Cut(lines[i], " ")
		lines[i] = fmt.Sprintf("%d %s", count, rest)
	}
}
