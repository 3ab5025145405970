// internal/validate/path.go
package validate

import (
	stdpath "path"
	"regexp"
	"strings"
)

// driveAbs matches Windows drive-letter prefixes like "C:".
var driveAbs = regexp.MustCompile(`^[a-zA-Z]:`)

// Path checks that a path stays inside baseDir. The check is purely
// lexical: separators are normalized, relative paths are resolved against
// baseDir, and "."/".." segments are collapsed before the containment
// comparison. No disk access happens, so the check is safe to run on
// untrusted manifest contents before any file is opened. Traversal
// attempts using either forward or backslash separators are rejected
// regardless of host OS.
func Path(p, baseDir string) PathResult {
	if p == "" {
		return PathResult{Valid: false, Reason: "path is empty"}
	}
	if strings.ContainsRune(p, 0) {
		return PathResult{Valid: false, Reason: "path contains a null byte"}
	}
	// Three or more consecutive dots never appear in legitimate paths
	// and show up in traversal probes like "....//".
	if strings.Contains(p, "...") {
		return PathResult{Valid: false, Reason: "path contains a suspicious dot sequence"}
	}
	if baseDir == "" {
		return PathResult{Valid: false, Reason: "base directory is empty"}
	}

	base := stdpath.Clean(normalize(baseDir))
	norm := normalize(p)

	var resolved string
	switch {
	case strings.HasPrefix(norm, "/"):
		resolved = stdpath.Clean(norm)
	case driveAbs.MatchString(norm):
		// Drive-absolute Windows paths can never resolve inside a
		// POSIX-style base directory.
		resolved = stdpath.Clean(norm)
	default:
		resolved = stdpath.Join(base, norm)
	}

	if resolved != base && !strings.HasPrefix(resolved, base+"/") {
		return PathResult{Valid: false, Reason: "path escapes the base directory"}
	}
	return PathResult{Valid: true}
}

// normalize folds backslash separators so Windows-style traversal
// attempts are analyzed the same way as POSIX ones.
func normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
