package media

import "fmt"

// Origin describes where a media item came from.
type Origin string

const (
	OriginWeb    Origin = "web"    // scraped from the product page
	OriginCustom Origin = "custom" // configured local file
)

// Kind describes the media type of an item.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// ParseKind converts a callback payload token into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case string(KindPhoto):
		return KindPhoto, nil
	case string(KindVideo):
		return KindVideo, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// Item is one photo or video reference. Items are immutable once created;
// identity is positional (the index inside a selected list), not by value.
type Item struct {
	Ref    string // URL for web items, filesystem path for custom items
	Origin Origin
	Kind   Kind
}

// WebPhoto creates a photo item scraped from the product page.
func WebPhoto(url string) Item {
	return Item{Ref: url, Origin: OriginWeb, Kind: KindPhoto}
}

// CustomPhoto creates a photo item backed by a local file.
func CustomPhoto(path string) Item {
	return Item{Ref: path, Origin: OriginCustom, Kind: KindPhoto}
}

// CustomVideo creates a video item backed by a local file.
func CustomVideo(path string) Item {
	return Item{Ref: path, Origin: OriginCustom, Kind: KindVideo}
}

// IsLocalFile reports whether the item must be uploaded from disk
// rather than passed to Telegram as a URL.
func (i Item) IsLocalFile() bool {
	return i.Origin == OriginCustom
}

// DisplayName is the short origin label shown on keyboard buttons.
func (i Item) DisplayName() string {
	if i.Origin == OriginCustom {
		return "Local"
	}
	return "WEB"
}
