// internal/validate/path_test.go
package validate

import "testing"

func TestPathContainment(t *testing.T) {
	base := "/project"

	valid := []string{
		"file.txt",
		"src/main.go",
		"./notes/today.md",
		"/project/inner/deep.txt",
		"src/../docs/readme.md",
		".",
	}
	for _, p := range valid {
		if r := Path(p, base); !r.Valid {
			t.Errorf("Path(%q) = invalid (%s), want valid", p, r.Reason)
		}
	}

	escaping := []string{
		"../outside.txt",
		"../../etc/passwd",
		"src/../../other/file",
		"/etc/passwd",
		"/projectx/file.txt",
		"..\\..\\windows\\system32",
		"src\\..\\..\\escape.txt",
		"C:\\Windows\\System32\\config",
	}
	for _, p := range escaping {
		if r := Path(p, base); r.Valid {
			t.Errorf("Path(%q) = valid, want invalid", p)
		}
	}
}

func TestPathRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"null byte", "file\x00.txt"},
		{"dot sequence", "....//etc/passwd"},
		{"many dots", "a/..../b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Path(tc.path, "/project")
			if r.Valid {
				t.Errorf("Path(%q) = valid, want invalid", tc.path)
			}
			if r.Reason == "" {
				t.Error("expected a reason for rejection")
			}
		})
	}
}

func TestPathEmptyBase(t *testing.T) {
	if r := Path("file.txt", ""); r.Valid {
		t.Error("expected empty base directory to be rejected")
	}
}

func TestPathBackslashInsideBase(t *testing.T) {
	// Backslash separators that stay inside the base are still contained.
	if r := Path("src\\main.go", "/project"); !r.Valid {
		t.Errorf("expected contained backslash path to be valid, got %s", r.Reason)
	}
}
