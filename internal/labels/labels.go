// Package labels loads class names, one per line.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Load reads one label per line from path, stripping line terminators.
// Lines have no length limit. A missing file yields an empty slice and no
// error; lookups then fall back to synthetic names. A read error part way
// returns the labels read so far together with the error.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return []string{}, fmt.Errorf("failed to open labels %s: %w", path, err)
	}
	defer f.Close()

	labels := []string{}
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			labels = append(labels, strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return labels, nil
		}
		if err != nil {
			return labels, fmt.Errorf("failed to read labels %s: %w", path, err)
		}
	}
}

// Lookup returns labels[idx], or "class_<idx>" when idx is out of range.
func Lookup(labels []string, idx int) string {
	if idx >= 0 && idx < len(labels) {
		return labels[idx]
	}
	return "class_" + strconv.Itoa(idx)
}

// Names maps every index to its label.
func Names(labels []string, indices []int) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = Lookup(labels, idx)
	}
	return names
}

// Join renders names as "a | b | " the way the CLI prints them.
func Join(names []string) string {
	var sb strings.Builder
	for _, n := range names {
		fmt.Fprintf(&sb, "%s | ", n)
	}
	return sb.String()
}
