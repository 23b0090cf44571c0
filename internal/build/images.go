package build

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageSize    = 1200
	thumbnailWidth  = 400
	thumbnailHeight = 300

	optimizedQuality = 85
	thumbnailQuality = 80
)

// processImage downscales a referenced image in place and writes a thumbnail
// next to it under images/thumbnails. The path is relative to the public
// directory; a missing or undecodable image yields nil.
func (b *Builder) processImage(imagePath string) *ImageInfo {
	if imagePath == "" {
		return nil
	}
	fullPath := filepath.Join(b.publicDir, strings.TrimPrefix(imagePath, "/"))

	src, err := decodeImage(fullPath)
	if err != nil {
		b.logger.Warn("image unusable", "path", fullPath, "error", err)
		return nil
	}

	optimized := fitWithin(src, maxImageSize, maxImageSize)
	if err := writeJPEG(fullPath, optimized, optimizedQuality); err != nil {
		b.logger.Error("image optimize failed", "path", fullPath, "error", err)
		return nil
	}

	thumbName := "thumb_" + filepath.Base(fullPath)
	thumbPath := filepath.Join(b.publicDir, "images", "thumbnails", thumbName)
	thumbnail := fitWithin(optimized, thumbnailWidth, thumbnailHeight)
	if err := writeJPEG(thumbPath, thumbnail, thumbnailQuality); err != nil {
		b.logger.Error("thumbnail write failed", "path", thumbPath, "error", err)
		return nil
	}

	return &ImageInfo{
		Original:  relativeTo(b.publicDir, fullPath),
		Thumbnail: relativeTo(b.publicDir, thumbPath),
	}
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// fitWithin downscales src to fit inside maxW×maxH, preserving aspect ratio.
// Images already inside the box pass through unchanged.
func fitWithin(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func writeJPEG(path string, img image.Image, quality int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
