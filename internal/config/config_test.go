package config

import (
	"encoding/json"
	"strings"
	"testing"
)

const sampleJSON = `{
  "job": "olist_monthly",
  "sources": {
    "orders": "data/orders.csv",
    "customers": "data/customers.csv",
    "order_items": "data/order_items.csv",
    "payments": "data/payments.csv",
    "reviews": "data/reviews.csv",
    "products": "data/products.csv",
    "sellers": "data/sellers.csv",
    "geolocation": "data/geolocation.csv",
    "category_translation": "data/translation.csv"
  },
  "parser": { "options": { "has_header": true, "trim_space": true, "comma": ";" } },
  "export": { "kind": "sqlite", "db": { "dsn": "out/insights.db", "table_prefix": "olist_" } }
}`

func TestDecodePipeline(t *testing.T) {
	var p Pipeline
	if err := json.Unmarshal([]byte(sampleJSON), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Job != "olist_monthly" {
		t.Fatalf("job = %q", p.Job)
	}
	if p.Sources.CategoryTranslation != "data/translation.csv" {
		t.Fatalf("category_translation = %q", p.Sources.CategoryTranslation)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q", got)
	}
	if !p.Parser.Options.Bool("has_header", false) {
		t.Fatalf("has_header should decode true")
	}
	if p.Export.DB.TablePrefix != "olist_" {
		t.Fatalf("table_prefix = %q", p.Export.DB.TablePrefix)
	}
}

func TestOptionsMissingDecodesEmpty(t *testing.T) {
	var p Pipeline
	if err := json.Unmarshal([]byte(`{"job":"x","parser":{}}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Parser.Options == nil {
		t.Fatalf("Options should decode non-nil when absent")
	}
	if !p.Parser.Options.Bool("has_header", true) {
		t.Fatalf("Bool default should apply to an absent key")
	}
}

func TestRequiredOrderMatchesJoinOrder(t *testing.T) {
	s := Sources{
		Orders: "o", Customers: "c", OrderItems: "i", Payments: "p",
		Reviews: "r", Products: "pr", Sellers: "s", CategoryTranslation: "t",
	}
	want := []string{
		"orders", "customers", "order_items", "payments",
		"reviews", "products", "sellers", "category_translation",
	}
	got := s.Required()
	if len(got) != len(want) {
		t.Fatalf("Required returned %d entries", len(got))
	}
	for i, np := range got {
		if np.Name != want[i] {
			t.Fatalf("Required[%d] = %q; want %q", i, np.Name, want[i])
		}
	}
}

func TestValidatePipeline(t *testing.T) {
	var p Pipeline
	if err := json.Unmarshal([]byte(sampleJSON), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, iss := range ValidatePipeline(p) {
		if iss.Severity == SeverityError {
			t.Fatalf("unexpected error issue: %v", iss)
		}
	}

	p.Sources.Reviews = ""
	p.Export.Kind = "csv"
	p.Export.Dir = ""
	issues := ValidatePipeline(p)

	var paths []string
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			paths = append(paths, iss.Path)
		}
	}
	joined := strings.Join(paths, ",")
	if !strings.Contains(joined, "sources.reviews") {
		t.Fatalf("missing reviews path not flagged: %v", issues)
	}
	if !strings.Contains(joined, "export.dir") {
		t.Fatalf("missing csv dir not flagged: %v", issues)
	}
}

func TestValidateUnknownExportKindIsWarning(t *testing.T) {
	p := Pipeline{Job: "j", Export: Export{Kind: "parquet"}}
	for _, iss := range ValidatePipeline(p) {
		if iss.Path == "export.kind" && iss.Severity != SeverityWarning {
			t.Fatalf("unknown kind should warn, got %v", iss)
		}
	}
}
