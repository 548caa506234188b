package common

import (
	"path"
	"strings"
)

// ImageExtension returns the lower-cased extension of fileName when it names
// a supported image type, and ".jpg" otherwise.
func ImageExtension(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return ext
	default:
		return ".jpg"
	}
}

// ContentTypeFor guesses an image content type from a file name. Presigned
// PUTs are signed with this value, so uploaders must send the same one.
func ContentTypeFor(fileName string) string {
	switch ImageExtension(fileName) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

// IsImageFile reports whether fileName carries one of the supported image
// extensions.
func IsImageFile(fileName string) bool {
	return ImageExtension(fileName) == strings.ToLower(path.Ext(fileName))
}
