package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesboard/internal/core"
	"salesboard/internal/services"
)

// maxBodyBytes caps the size of a sale submission.
const maxBodyBytes = 16 << 10

// errBadRequest marks bodies that could not be decoded at all.
var errBadRequest = errors.New("malformed request body")

// saleRequest is the JSON body of POST /api/sales/. Amount accepts a
// number or a string.
type saleRequest struct {
	Category    string           `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}

// decodeSale reads and validates the shape of a sale submission. Field
// level problems come back as the core validation sentinels.
func decodeSale(r *http.Request) (core.Sale, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return core.Sale{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return core.Sale{}, fmt.Errorf("%w: body too large", errBadRequest)
	}

	var req saleRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.Sale{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Sale{}, err
	}
	if req.Amount == nil {
		return core.Sale{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Sale{}, err
	}

	return core.Sale{
		Category:    category,
		Amount:      *req.Amount,
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

// parseLimit reads ?limit=, returning 0 (service default) when absent or
// not a number.
func parseLimit(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusFor maps service and validation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrDescriptionTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal details of server-side failures.
func publicMessage(status int, err error) string {
	switch {
	case status < 500:
		return err.Error()
	case errors.Is(err, services.ErrStorageUnavailable):
		return "sales data is temporarily unavailable"
	default:
		return http.StatusText(status)
	}
}
