package models

import "time"

// Ref is the embedded {id, name} shape the API returns for foreign records.
type Ref struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

type Major struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug,omitempty"`
	Description string     `json:"description"`
	IsHidden    Flag       `json:"is_hidden"`
	Categories  []Category `json:"categories,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MajorKey addresses a major on the slug-style endpoints. Older API builds
// return no slug for majors and route them by name.
func MajorKey(m Major) string {
	if m.Slug != "" {
		return m.Slug
	}
	return m.Name
}

type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	MajorID     int       `json:"major_id"`
	Description string    `json:"description"`
	IsHidden    Flag      `json:"is_hidden"`
	Major       *Ref      `json:"major"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Price       float64    `json:"price"`
	SellerID    int        `json:"seller_id"`
	CategoryID  int        `json:"category_id"`
	Stock       int        `json:"stock"`
	IsHidden    Flag       `json:"is_hidden"`
	Description string     `json:"description"`
	Images      StringList `json:"images"`
	Category    *Ref       `json:"category"`
	Seller      *Ref       `json:"seller"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CategoryPayload struct {
	Name        string `json:"name" validate:"min=4"`
	MajorID     int    `json:"major_id" validate:"gte=1"`
	Description string `json:"description" validate:"min=10"`
}

type MajorPayload struct {
	Name        string `json:"name" validate:"min=4"`
	Description string `json:"description,omitempty"`
}

// ProductPayload is the admin product form. The API stores a single image,
// so only the first URL is sent.
type ProductPayload struct {
	Name        string   `json:"name" validate:"min=4"`
	Price       float64  `json:"price" validate:"gte=0"`
	SellerID    int      `json:"seller_id" validate:"gte=1"`
	CategoryID  int      `json:"category_id" validate:"gte=1"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Description string   `json:"description" validate:"min=10"`
	Images      []string `json:"images" validate:"min=1,dive,url"`
}

func (p ProductPayload) Body() any {
	return struct {
		ProductPayload
		Image string `json:"images"`
	}{p, firstOrEmpty(p.Images)}
}

type SellerProductPayload struct {
	Name        string  `json:"name" validate:"min=4"`
	Price       float64 `json:"price" validate:"gte=0"`
	CategoryID  int     `json:"category_id" validate:"gte=1"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Description string  `json:"description" validate:"min=10"`
	Images      string  `json:"images" validate:"url"`
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
