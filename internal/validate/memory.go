// internal/validate/memory.go
package validate

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultMaxMemorySizeKB bounds memory note files unless overridden.
const DefaultMaxMemorySizeKB = 100

// corruptionMarkers are byte sequences that never belong in a healthy
// note file: merge-conflict delimiters, a null byte, and the Unicode
// replacement character left behind by broken re-encoding.
var corruptionMarkers = []struct {
	seq  string
	desc string
}{
	{"<<<<<<<", "merge conflict marker"},
	{">>>>>>>", "merge conflict marker"},
	{"=======", "merge conflict marker"},
	{"\x00", "null byte"},
	{"�", "unicode replacement character"},
}

var headingLine = regexp.MustCompile(`(?m)^#{1,6} `)

// MemoryOptions configures the memory-artifact check.
type MemoryOptions struct {
	// MaxSizeKB caps the file size; 0 means DefaultMaxMemorySizeKB.
	MaxSizeKB int
	// RequireHeadings demands at least one markdown heading line.
	RequireHeadings bool
}

// Memory checks a free-text note file for corruption. It stops at the
// first corruption marker found. An empty file is a legitimate,
// contentless note and passes.
func Memory(path string, opts MemoryOptions) Result {
	maxKB := opts.MaxSizeKB
	if maxKB <= 0 {
		maxKB = DefaultMaxMemorySizeKB
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return invalid(fmt.Sprintf("memory file does not exist: %s", path))
		}
		return invalid(fmt.Sprintf("memory file is not readable: %v", err))
	}
	if info.Size() > int64(maxKB)*1024 {
		return invalid(fmt.Sprintf("memory file exceeds %dKB (size: %d bytes)", maxKB, info.Size()))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return invalid(fmt.Sprintf("memory file is not readable: %v", err))
	}
	content := string(raw)

	for _, marker := range corruptionMarkers {
		if strings.Contains(content, marker.seq) {
			return invalid(fmt.Sprintf("corruption detected: %s (%q)", marker.desc, marker.seq))
		}
	}

	if opts.RequireHeadings && !headingLine.MatchString(content) {
		return invalid("no markdown headings found")
	}
	return valid()
}
