package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind ImageKind
		wantName string
		wantErr  bool
	}{
		{"empty", "", ImageNone, "", false},
		{"placeholder", "/api/placeholder/hats.jpg", ImagePlaceholder, "hats.jpg", false},
		{"stored", "/uploads/category-1-abc.png", ImageStored, "category-1-abc.png", false},
		{"traversal", "/uploads/../backoffice.db", ImageNone, "", true},
		{"nested", "/uploads/a/b.png", ImageNone, "", true},
		{"empty stored name", "/uploads/", ImageNone, "", true},
		{"external", "https://example.com/hats.jpg", ImageNone, "", true},
		{"absolute path", "/etc/passwd", ImageNone, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseImageURL(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidImageURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ref.Kind())
			assert.Equal(t, tt.wantName, ref.Name())
			assert.Equal(t, tt.raw, ref.URL())
		})
	}
}

func TestImageRefJSON(t *testing.T) {
	category := Category{
		ID:        1,
		Name:      "Hats",
		ItemCount: 26,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(category)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image_url":null`)

	category.ImageURL = StoredImage("category-1-abc.png")
	data, err = json.Marshal(category)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image_url":"/uploads/category-1-abc.png"`)

	var decoded Category
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, category.ImageURL, decoded.ImageURL)

	require.Error(t, json.Unmarshal([]byte(`{"image_url":"/tmp/x.png"}`), &decoded))
}

func TestImageRefSQL(t *testing.T) {
	value, err := NoImage().Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = PlaceholderImage("hats.jpg").Value()
	require.NoError(t, err)
	assert.Equal(t, "/api/placeholder/hats.jpg", value)

	var ref ImageRef
	require.NoError(t, ref.Scan([]byte("/uploads/category-2-def.webp")))
	assert.True(t, ref.IsStored())

	require.NoError(t, ref.Scan(nil))
	assert.True(t, ref.IsNone())

	assert.Error(t, ref.Scan(12))
}

func TestSampleCategoriesArePlaceholders(t *testing.T) {
	require.Len(t, SampleCategories, 9)
	for _, sample := range SampleCategories {
		assert.Equal(t, ImagePlaceholder, sample.Image.Kind(), sample.Name)
		assert.False(t, sample.Image.IsStored())
	}
}
