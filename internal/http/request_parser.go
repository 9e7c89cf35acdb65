// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// catalog filters from query strings and purchase forms from either
// form-encoded or JSON bodies.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"shop/internal/core"
)

const maxBodyBytes = 64 << 10

// PurchaseForm is the input of the price, buy and cancel actions.
// Filter carries the listing the page was showing so it can be re-rendered.
type PurchaseForm struct {
	ProductName string
	Weight      string
	Filter      core.Filter
}

// ParseFilter extracts the catalog filter from category and search values.
// An empty category selects every product.
func ParseFilter(values url.Values) core.Filter {
	return core.NormalizeFilter(core.Filter{
		Category: sanitizeInput(values.Get("category")),
		Search:   sanitizeInput(values.Get("search")),
	})
}

// ParsePurchaseForm reads a form-encoded submission. Query parameters are
// used as a fallback for the filter fields.
func ParsePurchaseForm(w http.ResponseWriter, r *http.Request) (PurchaseForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return PurchaseForm{}, err
	}
	return PurchaseForm{
		ProductName: sanitizeInput(r.Form.Get("product_name")),
		Weight:      sanitizeInput(r.Form.Get("weight")),
		Filter:      ParseFilter(r.Form),
	}, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// PurchaseForm returns the purchase fields of the body.
func (p *RequestBodyParser) PurchaseForm() PurchaseForm {
	return PurchaseForm{
		ProductName: p.Get("product_name"),
		Weight:      p.Get("weight"),
		Filter: core.NormalizeFilter(core.Filter{
			Category: p.Get("category"),
			Search:   p.Get("search"),
		}),
	}
}

// stringValue converts a decoded JSON value to string. Numbers keep their
// shortest representation so 2.5 stays "2.5".
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
