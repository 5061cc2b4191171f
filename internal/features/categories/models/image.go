package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// PlaceholderPrefix marks symbolic sample images that have no file behind them
	PlaceholderPrefix = "/api/placeholder/"
	// UploadURLPrefix is the public path uploaded images are served under
	UploadURLPrefix = "/uploads"
)

// ErrInvalidImageURL is returned for image URLs outside the managed locations
var ErrInvalidImageURL = errors.New("invalid image url")

// ImageKind distinguishes the three shapes a category image can take
type ImageKind int

const (
	ImageNone ImageKind = iota
	ImagePlaceholder
	ImageStored
)

func (k ImageKind) String() string {
	switch k {
	case ImagePlaceholder:
		return "placeholder"
	case ImageStored:
		return "stored"
	default:
		return "none"
	}
}

// ImageRef is the image attached to a category: nothing, a placeholder
// name, or a file in the upload directory.
type ImageRef struct {
	kind ImageKind
	name string
}

// NoImage returns an empty image reference
func NoImage() ImageRef {
	return ImageRef{}
}

// PlaceholderImage returns a symbolic image reference
func PlaceholderImage(name string) ImageRef {
	return ImageRef{kind: ImagePlaceholder, name: name}
}

// StoredImage returns a reference to a file in the upload directory
func StoredImage(filename string) ImageRef {
	return ImageRef{kind: ImageStored, name: filename}
}

// Kind reports which variant the reference holds
func (r ImageRef) Kind() ImageKind {
	return r.kind
}

// Name returns the placeholder name or stored filename
func (r ImageRef) Name() string {
	return r.name
}

// IsNone reports whether the category has no image
func (r ImageRef) IsNone() bool {
	return r.kind == ImageNone
}

// IsStored reports whether a file on disk backs the reference
func (r ImageRef) IsStored() bool {
	return r.kind == ImageStored
}

// URL renders the public path, or "" when there is no image
func (r ImageRef) URL() string {
	switch r.kind {
	case ImagePlaceholder:
		return PlaceholderPrefix + r.name
	case ImageStored:
		return UploadURLPrefix + "/" + r.name
	default:
		return ""
	}
}

func (r ImageRef) String() string {
	if r.kind == ImageNone {
		return "<none>"
	}
	return r.URL()
}

// ParseImageURL converts a public image path back into a reference.
// Anything that is not a placeholder or a plain file under the upload
// prefix is rejected.
func ParseImageURL(raw string) (ImageRef, error) {
	switch {
	case raw == "":
		return NoImage(), nil
	case strings.HasPrefix(raw, PlaceholderPrefix):
		name := strings.TrimPrefix(raw, PlaceholderPrefix)
		if !ValidFilename(name) {
			return ImageRef{}, fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
		}
		return PlaceholderImage(name), nil
	case strings.HasPrefix(raw, UploadURLPrefix+"/"):
		name := strings.TrimPrefix(raw, UploadURLPrefix+"/")
		if !ValidFilename(name) {
			return ImageRef{}, fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
		}
		return StoredImage(name), nil
	default:
		return ImageRef{}, fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
	}
}

// ValidFilename reports whether name is a single path element that
// cannot escape its directory
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// MarshalJSON encodes a missing image as null
func (r ImageRef) MarshalJSON() ([]byte, error) {
	if r.kind == ImageNone {
		return []byte("null"), nil
	}
	return json.Marshal(r.URL())
}

// UnmarshalJSON accepts null or a public image path
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*r = NoImage()
		return nil
	}

	ref, err := ParseImageURL(*raw)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// Scan implements sql.Scanner for the image_url column
func (r *ImageRef) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = NoImage()
		return nil
	case string:
		ref, err := ParseImageURL(v)
		if err != nil {
			return err
		}
		*r = ref
		return nil
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ImageRef", value)
	}
}

// Value implements driver.Valuer, storing a missing image as NULL
func (r ImageRef) Value() (driver.Value, error) {
	if r.kind == ImageNone {
		return nil, nil
	}
	return r.URL(), nil
}
