//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "aims-api"
	ConsumerName = "aims-storefront"

	StateCatalogBaseline = "catalog baseline"
	StateProductExists   = "product with id 101 exists"
	StateProductMissing  = "no product with id 404"
	StateCartsBaseline   = "carts baseline"
)

const (
	ExistingProductID int64 = 101
	MissingProductID  int64 = 404
)

const (
	exampleBarcode  = "8935235226272"
	exampleTitle    = "Clean Code"
	exampleImageURL = "https://img.example.pact/products/clean-code.png"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleBookPayload provides stable product data for pact interactions.
func ExampleBookPayload() map[string]any {
	return map[string]any{
		"productType":        "BOOK",
		"title":              exampleTitle,
		"category":           "software",
		"value":              200000,
		"currentPrice":       180000,
		"barcode":            exampleBarcode,
		"weight":             0.7,
		"productDimensions":  "24x18x3",
		"imageURL":           exampleImageURL,
		"rushOrderEligible":  true,
		"quantity":           12,
		"warehouseEntryDate": "2024-05-10",
		"author":             "Robert C. Martin",
		"coverType":          "paperback",
		"publisher":          "Prentice Hall",
		"numberOfPage":       464,
		"publicationDate":    "2008-08-01",
		"language":           "English",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
