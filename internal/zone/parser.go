package zone

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jroosing/triedns/internal/dns"
)

// LoadFile reads a zone description from path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ParseText parses a zone description held in a string.
func ParseText(text string) ([]Entry, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads a zone description: one record per line as
//
//	<name> <TYPE> <data>
//
// Blank lines and lines starting with '#' are skipped. TYPE is A, CNAME or
// TXT. TXT data runs to the end of the line, so it may contain spaces.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	owner, rest, ok := cutField(line)
	if !ok {
		return Entry{}, fmt.Errorf("expected <name> <TYPE> <data>, got %q", line)
	}
	typ, data, ok := cutField(rest)
	if !ok || data == "" {
		return Entry{}, fmt.Errorf("missing record data in %q", line)
	}
	name, err := dns.ParseName(owner)
	if err != nil {
		return Entry{}, err
	}
	rec, err := ParseRecord(typ, data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: name, Record: rec}, nil
}

// cutField splits off the first whitespace-separated field.
func cutField(s string) (field, rest string, ok bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", false
	}
	return s[:i], strings.TrimSpace(s[i:]), true
}
