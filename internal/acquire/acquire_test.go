package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gnurante/internal/logging"
	"gnurante/internal/services"
)

func TestFetchLocalFileBypassesDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := NewDownloader("", "", logging.NewNop()).WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("downloader must not run for local files")
		return nil, nil
	})
	media, err := d.Fetch(context.Background(), path, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if media.Path != path || media.Downloaded {
		t.Fatalf("unexpected media %+v", media)
	}
}

func TestFetchDownloads(t *testing.T) {
	dest := t.TempDir()
	var gotName string
	var gotArgs []string
	d := NewDownloader("/bin/yt", "", logging.NewNop()).WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, os.WriteFile(filepath.Join(dest, "video.mp4"), []byte("mp4"), 0o644)
	})
	media, err := d.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !media.Downloaded || media.Path != filepath.Join(dest, "video.mp4") {
		t.Fatalf("unexpected media %+v", media)
	}
	if gotName != "/bin/yt" {
		t.Fatalf("binary = %q", gotName)
	}
	idx := slices.Index(gotArgs, "-f")
	if idx < 0 || gotArgs[idx+1] != DefaultFormat {
		t.Fatalf("format not passed: %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("url must be last: %v", gotArgs)
	}
}

func TestFetchErrors(t *testing.T) {
	failing := NewDownloader("", "", logging.NewNop()).WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("ERROR: Video unavailable"), errors.New("exit status 1")
	})
	silent := NewDownloader("", "", logging.NewNop()).WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	})
	tests := []struct {
		name   string
		d      *Downloader
		source string
		want   error
	}{
		{"empty", failing, " ", services.ErrValidation},
		{"missing local", failing, "/definitely/not/here.mp4", services.ErrNotFound},
		{"tool failure", failing, "https://example.com/v", services.ErrExternalTool},
		{"no output", silent, "https://example.com/v", services.ErrExternalTool},
		{"directory", failing, t.TempDir(), services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.d.Fetch(context.Background(), tt.source, t.TempDir())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	for input, want := range map[string]bool{
		"https://youtu.be/x": true,
		"http://host/v.mp4":  true,
		"ftp://host/v.mp4":   false,
		"video.mp4":          false,
		"https://":           false,
	} {
		if got := IsRemote(input); got != want {
			t.Errorf("IsRemote(%q) = %v", input, got)
		}
	}
}
