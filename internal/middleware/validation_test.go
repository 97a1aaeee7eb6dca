package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type createCategoryBody struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type upsertProductBody struct {
	Price *float64 `json:"price" validate:"required,gte=0"`
}

func TestDecodeAndValidate_ValidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(`{"name":"Ores"}`))

	var body createCategoryBody
	if err := DecodeAndValidate(req, &body); err != nil {
		t.Fatalf("Expected valid body to pass, got %v", err)
	}
	if body.Name != "Ores" {
		t.Errorf("Expected name Ores, got %q", body.Name)
	}
}

func TestDecodeAndValidate_MissingRequiredField(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(`{}`))

	var body createCategoryBody
	err := DecodeAndValidate(req, &body)
	if err == nil {
		t.Fatal("Expected validation error for missing name")
	}

	errs := FormatValidationErrors(err)
	if len(errs) != 1 || errs[0].Field != "Name" {
		t.Errorf("Expected single error on Name, got %+v", errs)
	}
	if errs[0].Message != "This field is required" {
		t.Errorf("Unexpected message: %q", errs[0].Message)
	}
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(`{"name":`))

	var body createCategoryBody
	if err := DecodeAndValidate(req, &body); err == nil {
		t.Fatal("Expected decode error for malformed JSON")
	}
}

func TestDecodeAndValidate_NegativePriceRejected(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/categories/Ores/products/iron", strings.NewReader(`{"price":-1}`))

	var body upsertProductBody
	err := DecodeAndValidate(req, &body)
	if err == nil {
		t.Fatal("Expected validation error for negative price")
	}

	errs := FormatValidationErrors(err)
	if len(errs) != 1 || errs[0].Field != "Price" {
		t.Errorf("Expected single error on Price, got %+v", errs)
	}
	if !strings.Contains(errs[0].Message, "greater than or equal to") {
		t.Errorf("Unexpected message: %q", errs[0].Message)
	}
}

func TestDecodeAndValidate_ZeroPriceAllowed(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/categories/Ores/products/dirt", strings.NewReader(`{"price":0}`))

	var body upsertProductBody
	if err := DecodeAndValidate(req, &body); err != nil {
		t.Fatalf("Expected zero price to pass, got %v", err)
	}
}
