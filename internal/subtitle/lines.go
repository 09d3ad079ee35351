package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ordered lines of an extracted subtitle track; index order is time order
type Lines []string

// reads a subtitle artifact line by line
func ReadLines(path string) (Lines, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer file.Close()

	lines, err := ParseLines(file)
	if err != nil {
		return nil, fmt.Errorf("error reading subtitle file %s: %w", path, err)
	}
	return lines, nil
}

// splits r into lines, dropping a leading BOM and CRLF endings
func ParseLines(r io.Reader) (Lines, error) {
	var lines Lines
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// returns the line at i, or "" when i is out of range
func (l Lines) At(i int) string {
	if i < 0 || i >= len(l) {
		return ""
	}
	return l[i]
}
