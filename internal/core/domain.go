package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Electronics Category = "ELEC"
	Food        Category = "FOOD"
	Books       Category = "BOOK"
	Clothing    Category = "CLOT"
)

// MaxDescriptionLength bounds Sale.Description, in characters.
const MaxDescriptionLength = 100

type (
	// Category is the product category code of a sale.
	Category string

	// Date is a calendar date. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	// Sale is a single point-of-sale record.
	Sale struct {
		ID          string
		Category    Category
		Amount      decimal.Decimal
		Date        Date
		Description string
	}
)

// Categories lists every valid category code in display order.
var Categories = []Category{Electronics, Food, Books, Clothing}

var categoryLabels = map[Category]string{
	Electronics: "Electronics",
	Food:        "Food",
	Books:       "Books",
	Clothing:    "Clothing",
}

var (
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrDescriptionTooLong = errors.New("description too long (max 100 characters)")
)

// Valid reports whether c is one of the known category codes.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable name, or the raw code when unknown.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory normalises s and checks it against the known codes.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (s Sale) Validate() error {
	if !s.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := ValidateAmount(s.Amount); err != nil {
		return err
	}
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(s.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
