package domain

import (
	"errors"
	"fmt"
)

// AllCategories is the category id that matches every product.
const AllCategories = "all"

var ErrInvalidProduct = errors.New("invalid product")

type Review struct {
	User    string  `json:"user,omitempty"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

type Product struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	Discount     float64  `json:"discount"`
	Stock        int      `json:"stock"`
	Image        string   `json:"image,omitempty"`
	Ratings      float64  `json:"ratings,omitempty"`
	NumOfReviews int      `json:"numOfReviews,omitempty"`
	Reviews      []Review `json:"reviews,omitempty"`
}

// Validate checks the numeric invariants of a product.
func (p Product) Validate() error {
	if p.Price < 0 {
		return fmt.Errorf("%w: price %v is negative", ErrInvalidProduct, p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock %d is negative", ErrInvalidProduct, p.Stock)
	}
	if p.Discount < 0 || p.Discount > 100 {
		return fmt.Errorf("%w: discount %v outside [0,100]", ErrInvalidProduct, p.Discount)
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
