package services

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var photoMimes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// DetectPhoto decodes only the image header and returns the photo's MIME
// type, or ErrUnsupportedPhoto.
func DetectPhoto(b []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", ErrUnsupportedPhoto
	}
	mime, ok := photoMimes[format]
	if !ok {
		return "", ErrUnsupportedPhoto
	}
	return mime, nil
}
