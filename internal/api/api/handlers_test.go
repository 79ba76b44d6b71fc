package api

import (
	"path/filepath"
	"testing"
)

func TestResolveResourcePath(t *testing.T) {
	t.Parallel()
	root := filepath.Join("/srv", "resources")

	tests := []struct {
		name string
		file string
		want string
		ok   bool
	}{
		{"plain file", "slides.pdf", filepath.Join(root, "slides.pdf"), true},
		{"nested file", "summit/day1/slides.pdf", filepath.Join(root, "summit", "day1", "slides.pdf"), true},
		{"dot segments resolving inside", "summit/../slides.pdf", filepath.Join(root, "slides.pdf"), true},
		{"rooted path stays inside", "/summit/slides.pdf", filepath.Join(root, "summit", "slides.pdf"), true},
		{"parent escape", "../secrets.env", "", false},
		{"deep escape", "a/../../../etc/passwd", "", false},
		{"bare dot", ".", "", false},
		{"bare parent", "..", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := resolveResourcePath(root, tc.file)
			if ok != tc.ok {
				t.Fatalf("resolveResourcePath(%q) ok = %v, want %v", tc.file, ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("resolveResourcePath(%q) = %q, want %q", tc.file, got, tc.want)
			}
		})
	}
}
