package fileutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ImageDownloadOptions holds options for downloading card images.
type ImageDownloadOptions struct {
	// URL is the source URL of the image
	URL string
	// OutputDir is the directory where the image will be saved
	OutputDir string
	// Filename is the name of the image file (e.g., "DSK_0086_Floodfarm_Verge.jpg")
	Filename string
	// Update forces re-downloading even if the image exists
	Update bool
	// Client is the HTTP client to use; nil falls back to a default with a 30s timeout
	Client *http.Client
}

// ImageDownloadResult holds the result of an image download operation.
type ImageDownloadResult struct {
	// Downloaded indicates if a new file was downloaded
	Downloaded bool
	// LocalPath is the full path to the image on disk
	LocalPath string
	// Filename is just the filename
	Filename string
}

// DownloadImage downloads an image into the output directory.
// It skips downloading if the file already exists and Update is false.
// The bytes are written atomically, so an interrupted download never leaves
// a truncated image at LocalPath.
func DownloadImage(ctx context.Context, opts ImageDownloadOptions) (*ImageDownloadResult, error) {
	if opts.URL == "" {
		return nil, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	localPath := filepath.Join(opts.OutputDir, opts.Filename)

	result := &ImageDownloadResult{
		LocalPath: localPath,
		Filename:  opts.Filename,
	}

	// Check if file already exists
	if FileExists(localPath) && !opts.Update {
		slog.Debug("Image already exists, skipping download", "path", localPath)
		return result, nil
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading image from %s", resp.StatusCode, opts.URL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	if err := WriteFileAtomic(localPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	slog.Debug("Downloaded image", "path", localPath)
	result.Downloaded = true

	return result, nil
}
