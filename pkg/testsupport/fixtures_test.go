package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

func TestLoadFixture(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	writeFile(t, testFile, "test fixture content")

	result := LoadFixture(t, testFile)
	if string(result) != "test fixture content" {
		t.Errorf("expected %q, got %q", "test fixture content", result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "bowler.json")
	writeFile(t, testFile, `{"id":"b-1","name":"Ada","average":212}`)

	var result struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Average int    `json:"average"`
	}
	LoadFixtureJSON(t, testFile, &result)

	if result.ID != "b-1" || result.Name != "Ada" || result.Average != 212 {
		t.Errorf("unexpected fixture contents: %+v", result)
	}
}

func TestLoadFixtureYAML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "awards.yaml")
	writeFile(t, testFile, "season: 2024\nawards:\n  - perfect game\n  - league champion\nttl: 90s\n")

	var result struct {
		Season int           `yaml:"season"`
		Awards []string      `yaml:"awards"`
		TTL    time.Duration `yaml:"ttl"`
	}
	LoadFixtureYAML(t, testFile, &result)

	if result.Season != 2024 || len(result.Awards) != 2 || result.TTL != 90*time.Second {
		t.Errorf("unexpected fixture contents: %+v", result)
	}
}

func TestWriteGolden(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "subdir", "test.golden")
	WriteGolden(t, goldenFile, []byte("test golden content"))

	result, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("failed to read written golden file: %v", err)
	}
	if string(result) != "test golden content" {
		t.Errorf("expected %q, got %q", "test golden content", result)
	}
}

func TestCompareWithGolden(t *testing.T) {
	goldenFile := filepath.Join(t.TempDir(), "test.golden")

	// first run creates the file
	CompareWithGolden(t, goldenFile, []byte("test content"))

	result, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("failed to read created golden file: %v", err)
	}
	if string(result) != "test content" {
		t.Errorf("expected %q, got %q", "test content", result)
	}

	CompareWithGolden(t, goldenFile, []byte("test content"))
}

func TestFixturePath(t *testing.T) {
	result := FixturePath("test.json")
	expected := filepath.Join("testdata", "test.json")

	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestGoldenPath(t *testing.T) {
	result := GoldenPath("output.txt")
	expected := filepath.Join("testdata", "golden", "output.txt")

	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}
