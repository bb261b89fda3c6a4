package transfer

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aretw0/nook/pkg/core"
)

const dataURLPrefix = "data:"

// EncodeDataURL returns data as a base64 data URL with a sniffed MIME type.
func EncodeDataURL(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return dataURLPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the payload of a base64 data URL.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, dataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URL has no payload separator")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL payload: %w", err)
	}
	return data, nil
}

// encodeContent renders leaf content for the document.
func encodeContent(t core.EntryType, data []byte) string {
	if t.IsText() {
		return string(data)
	}
	return EncodeDataURL(data)
}

func decodeContent(t core.EntryType, s string) ([]byte, error) {
	if t.IsText() {
		return []byte(s), nil
	}
	return DecodeDataURL(s)
}

// DetectType maps sniffed content to a leaf type. Content that is neither
// text nor a known image, video or audio format is rejected.
func DetectType(data []byte) (core.EntryType, error) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		mediaType, _, _ := strings.Cut(m.String(), ";")
		switch {
		case strings.HasPrefix(mediaType, "image/"):
			return core.TypeImage, nil
		case strings.HasPrefix(mediaType, "video/"):
			return core.TypeVideo, nil
		case strings.HasPrefix(mediaType, "audio/"):
			return core.TypeAudio, nil
		case mediaType == "text/plain":
			return core.TypeNote, nil
		}
	}
	return 0, fmt.Errorf("%w: content type %s", core.ErrUnknownEntryType, detected.String())
}
