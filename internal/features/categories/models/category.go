package models

import (
	"io"
	"time"
)

// Category represents a product category in the back office
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"item_count"`
	ImageURL  ImageRef  `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryCreate represents the data needed to create a new category
type CategoryCreate struct {
	Name      string       `json:"name" validate:"required"`
	ItemCount int          `json:"item_count" validate:"min=0"`
	Image     *ImageUpload `json:"-" validate:"-"`
}

// CategoryUpdate represents the data needed to update a category.
// A nil Image leaves the stored image untouched.
type CategoryUpdate struct {
	Name      string       `json:"name" validate:"required"`
	ItemCount int          `json:"item_count" validate:"min=0"`
	Image     *ImageUpload `json:"-" validate:"-"`
}

// ImageUpload is an image file received with a category form
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// DeleteResponse is returned after a category is removed
type DeleteResponse struct {
	Message string `json:"message"`
}

// SampleCategory is a row seeded into an empty categories table
type SampleCategory struct {
	Name      string
	ItemCount int
	Image     ImageRef
}

// SampleCategories use placeholder images with no file on disk
var SampleCategories = []SampleCategory{
	{Name: "Men Clothes", ItemCount: 24, Image: PlaceholderImage("men-clothes.jpg")},
	{Name: "Women Clothes", ItemCount: 12, Image: PlaceholderImage("women-clothes.jpg")},
	{Name: "Accessories", ItemCount: 43, Image: PlaceholderImage("accessories.jpg")},
	{Name: "Cotton Clothes", ItemCount: 31, Image: PlaceholderImage("cotton-clothes.jpg")},
	{Name: "Summer Clothes", ItemCount: 26, Image: PlaceholderImage("summer-clothes.jpg")},
	{Name: "Wedding Clothes", ItemCount: 52, Image: PlaceholderImage("wedding-clothes.jpg")},
	{Name: "Spring Collection", ItemCount: 24, Image: PlaceholderImage("spring-collection.jpg")},
	{Name: "Casual Clothes", ItemCount: 52, Image: PlaceholderImage("casual-clothes.jpg")},
	{Name: "Hats", ItemCount: 26, Image: PlaceholderImage("hats.jpg")},
}
