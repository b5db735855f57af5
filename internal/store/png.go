package store

import (
	"bytes"
	goimage "image"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
)

const DefaultName = "generated_image"

// SanitizeName keeps letters, digits, underscores and hyphens.
func SanitizeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(name))
	if clean == "" {
		return DefaultName
	}
	return clean
}

func EncodePNG(img goimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
