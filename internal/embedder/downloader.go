package embedder

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jardhel/seu-claude/internal/errs"
)

const (
	// modelFilesVersion pins the CDN layout; bump when the embedding model
	// is upgraded.
	modelFilesVersion = "1.0.0"
	defaultBaseURL     = "https://models.seu-claude.dev"
	maxRetries         = 3
	initialBackoff     = 1 * time.Second
)

// requiredModelFiles must all exist in a model directory before it is
// considered usable by New.
var requiredModelFiles = []string{"model.onnx", "tokenizer.json"}

// ModelExists reports whether modelDir already holds a usable model.
func ModelExists(modelDir string) bool {
	for _, f := range requiredModelFiles {
		if _, err := os.Stat(filepath.Join(modelDir, f)); err != nil {
			return false
		}
	}
	return true
}

// Downloader fetches and extracts a model archive from a CDN when it is
// not already present locally. This mirrors the teacher's model-fetch
// pattern but targets the embedding model artifacts directly rather than a
// separate embedding-server binary.
type Downloader struct {
	baseURL string
	client  *http.Client
}

// NewDownloader returns a Downloader pointed at the default model CDN.
func NewDownloader() *Downloader {
	return &Downloader{baseURL: defaultBaseURL, client: http.DefaultClient}
}

// EnsureModel downloads modelName's archive into modelDir if the required
// files are not already present. progress, if non-nil, receives 0-100.
func (d *Downloader) EnsureModel(ctx context.Context, modelName, modelDir string, progress func(percent int)) error {
	if ModelExists(modelDir) {
		return nil
	}

	url := fmt.Sprintf("%s/%s-v%s.tar.gz", d.baseURL, modelName, modelFilesVersion)

	tmp, err := os.CreateTemp("", "seu-claude-model-*.tar.gz")
	if err != nil {
		return errs.Embedding("create temp file for model download", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := downloadWithRetry(ctx, d.client, url, tmp, progress); err != nil {
		return errs.Embedding(fmt.Sprintf("download model %q", modelName), err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Embedding("close downloaded archive", err)
	}

	if err := extractTarGz(tmp.Name(), modelDir); err != nil {
		return errs.Embedding("extract model archive", err)
	}
	if !ModelExists(modelDir) {
		return errs.Embedding(fmt.Sprintf("model files missing in %s after extraction", modelDir), nil)
	}
	return nil
}

func downloadWithRetry(ctx context.Context, client *http.Client, url string, dest *os.File, progress func(percent int)) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * initialBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := downloadOnce(ctx, client, url, dest, progress); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := dest.Seek(0, 0); err != nil {
			return fmt.Errorf("reset file position: %w", err)
		}
		if err := dest.Truncate(0); err != nil {
			return fmt.Errorf("truncate file: %w", err)
		}
	}
	return fmt.Errorf("download failed after %d attempts: %w", maxRetries, lastErr)
}

func downloadOnce(ctx context.Context, client *http.Client, url string, dest *os.File, progress func(percent int)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := dest.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			written += int64(n)
			if progress != nil && total > 0 {
				progress(int(written * 100 / total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if hdr.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		out.Close()
	}
}
