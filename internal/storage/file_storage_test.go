package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileFetcher_FetchNet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meris", "rw_iop", "a.net"), netBody)

	f := NewFileFetcher(root)
	rc, err := f.FetchNet(context.Background(), "meris/rw_iop/a.net")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != netBody {
		t.Errorf("Unexpected body %q", body)
	}

	if _, err := f.FetchNet(context.Background(), "meris/missing.net"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFileFetcher_StaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "nets")
	writeFile(t, filepath.Join(parent, "secret.net"), "x")
	writeFile(t, filepath.Join(root, "secret.net"), netBody)

	rc, err := NewFileFetcher(root).FetchNet(context.Background(), "../secret.net")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != netBody {
		t.Error("Expected name to resolve inside the root")
	}
}

func TestFileFetcher_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alt", "rtosa_aann", "a.net"), netBody)
	writeFile(t, filepath.Join(root, "alt", "RW_IOP", "b.net"), netBody)
	writeFile(t, filepath.Join(root, "other", "c.net"), netBody)

	names, err := NewFileFetcher(root).List(context.Background(), "alt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	sort.Strings(names)
	want := []string{"alt/RW_IOP/b.net", "alt/rtosa_aann/a.net"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected %q, got %q", want[i], names[i])
		}
	}
}
