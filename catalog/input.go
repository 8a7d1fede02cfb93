package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts either a JSON string or a JSON number, so `"pages": 320` and
// `"pages": "320"` both decode.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// NullableFloat tells an absent key apart from an explicit null. Set is true whenever the key
// was present in the document.
type NullableFloat struct {
	Set   bool
	Value *float64
}

func (n *NullableFloat) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// Form clients send numbers as strings.
		var s string
		if json.Unmarshal(b, &s) != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			n.Value = nil
			return nil
		}
		if v, err = strconv.ParseFloat(s, 64); err != nil {
			return err
		}
	}
	n.Value = &v
	return nil
}

// CreateInput is the body of a product creation request. Title, author, price and stock are
// required; everything else gets a default.
type CreateInput struct {
	Title         *string       `json:"title"`
	Author        *string       `json:"author"`
	Price         *float64      `json:"price" validate:"omitnil,gte=0"`
	Stock         *int          `json:"stock" validate:"omitnil,gte=0"`
	ISBN          string        `json:"isbn"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	ImageURL      string        `json:"imageUrl"`
	DiscountPrice NullableFloat `json:"discountPrice"`
	Rating        NullableFloat `json:"rating"`
	ReviewCount   int           `json:"reviewCount" validate:"gte=0"`
	Tags          []string      `json:"tags"`
	Featured      bool          `json:"featured"`
	Publisher     string        `json:"publisher"`
	Pages         FlexString    `json:"pages"`
	Year          FlexString    `json:"year"`
}

func (in CreateInput) missingFields() []string {
	var missing []string
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		missing = append(missing, "title")
	}
	if in.Author == nil || strings.TrimSpace(*in.Author) == "" {
		missing = append(missing, "author")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.Stock == nil {
		missing = append(missing, "stock")
	}
	return missing
}

type SpecificationsUpdate struct {
	Pages     *FlexString `json:"pages"`
	Language  *string     `json:"language"`
	Publisher *string     `json:"publisher"`
	Year      *FlexString `json:"year"`
	Format    *string     `json:"format"`
}

// ProductUpdate lists every field an admin may change. Absent keys leave the stored value
// alone. Decoding rejects keys outside this list.
type ProductUpdate struct {
	Title          *string               `json:"title" validate:"omitnil,min=1"`
	Author         *string               `json:"author" validate:"omitnil,min=1"`
	ISBN           *string               `json:"isbn"`
	Category       *string               `json:"category"`
	Description    *string               `json:"description"`
	ImageURL       *string               `json:"imageUrl"`
	Price          *float64              `json:"price" validate:"omitnil,gte=0"`
	DiscountPrice  NullableFloat         `json:"discountPrice"`
	Stock          *int                  `json:"stock" validate:"omitnil,gte=0"`
	IsActive       *bool                 `json:"isActive"`
	Featured       *bool                 `json:"featured"`
	Rating         NullableFloat         `json:"rating"`
	ReviewCount    *int                  `json:"reviewCount" validate:"omitnil,gte=0"`
	Tags           *[]string             `json:"tags"`
	Specifications *SpecificationsUpdate `json:"specifications"`
}

// DecodeUpdate reads a ProductUpdate and refuses unknown fields.
func DecodeUpdate(body []byte) (ProductUpdate, error) {
	var u ProductUpdate
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return ProductUpdate{}, err
	}
	return u, nil
}
