package scryfall

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/cardshed/pickwick/internal/fileutil"
)

// thumbWidth is the pixel width of HTML report grid thumbnails.
const thumbWidth = 146

// CardImage points at the downloaded files for one printing.
// ThumbPath is empty when the thumbnail could not be rendered.
type CardImage struct {
	Path      string
	ThumbPath string
}

// ImageFilename builds the deterministic filename for a printing image:
// SET_number_Card_Name.jpg. Colons and slashes (split cards, "Protection:"
// names) are sanitized and spaces become underscores.
func ImageFilename(name, set, number string) string {
	base := fileutil.SanitizeFilename(fmt.Sprintf("%s_%s_%s", strings.ToUpper(set), number, name))
	return strings.ReplaceAll(base, " ", "_") + ".jpg"
}

// ThumbnailFilename is the grid-sized variant stored next to the full image.
func ThumbnailFilename(name, set, number string) string {
	return strings.TrimSuffix(ImageFilename(name, set, number), ".jpg") + "_thumb.jpg"
}

// EnsureImage downloads the card's image into dir once per printing and
// renders the thumbnail used by the HTML report grid. Existing files are
// reused unless the client was built with WithImageRefresh(true). Cards
// without imagery return (nil, nil).
func (c *Client) EnsureImage(ctx context.Context, card *Card, dir string) (*CardImage, error) {
	if card == nil {
		return nil, nil
	}

	uri := card.ImageURI()
	if uri == "" {
		slog.Debug("Card has no image", "name", card.Name, "set", card.Set)
		return nil, nil
	}

	result, err := fileutil.DownloadImage(ctx, fileutil.ImageDownloadOptions{
		URL:       uri,
		OutputDir: dir,
		Filename:  ImageFilename(card.Name, card.Set, card.CollectorNumber),
		Update:    c.updateImages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download image for %s: %w", card.Name, err)
	}

	thumbPath := filepath.Join(dir, ThumbnailFilename(card.Name, card.Set, card.CollectorNumber))
	if result.Downloaded || c.updateImages || !fileutil.FileExists(thumbPath) {
		if err := writeThumbnail(result.LocalPath, thumbPath); err != nil {
			// A missing thumbnail only degrades the report grid; the full
			// image is still usable.
			slog.Warn("Failed to render thumbnail", "image", result.LocalPath, "error", err)
			thumbPath = ""
		}
	}

	return &CardImage{Path: result.LocalPath, ThumbPath: thumbPath}, nil
}

// writeThumbnail renders a thumbWidth-wide JPEG next to the source image.
func writeThumbnail(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(dstPath, buf.Bytes(), 0644)
}
