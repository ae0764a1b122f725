package sha256

import (
	"os"
	"path/filepath"
	"testing"
)

const helloWorld = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	if got := Hash([]byte("hello world")); got != helloWorld {
		t.Fatalf("expected %s, got %s", helloWorld, got)
	}
	if Hash([]byte("hello world")) != Hash([]byte("hello world")) {
		t.Fatal("expected deterministic hash")
	}
}

func TestHashFileMatchesHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ofertas.csv")
	if err := os.WriteFile(path, []byte("hello world"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if got != helloWorld {
		t.Fatalf("expected %s, got %s", helloWorld, got)
	}
}

func TestHashFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := HashFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
