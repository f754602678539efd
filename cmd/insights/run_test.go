package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"insights/internal/config"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// fixtureSources writes a minimal but complete snapshot: one order flowing
// through every join step.
func fixtureSources(t *testing.T, dir string) config.Sources {
	t.Helper()
	return config.Sources{
		Orders: writeFixture(t, dir, "orders.csv",
			"order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"+
				"o1,c1,delivered,2018-08-01 10:00:00,2018-08-01 11:00:00,2018-08-02 08:00:00,2018-08-11 10:00:00,2018-08-20 00:00:00\n"),
		Customers: writeFixture(t, dir, "customers.csv",
			"customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n"+
				"c1,u1,01000,sao paulo,SP\n"),
		OrderItems: writeFixture(t, dir, "order_items.csv",
			"order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value\n"+
				"o1,1,p1,s1,2018-08-05 00:00:00,100.00,10.00\n"),
		Payments: writeFixture(t, dir, "payments.csv",
			"order_id,payment_sequential,payment_type,payment_installments,payment_value\n"+
				"o1,1,credit_card,1,110.00\n"),
		Reviews: writeFixture(t, dir, "reviews.csv",
			"review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp\n"+
				"r1,o1,5,,great,2018-08-12 00:00:00,2018-08-13 00:00:00\n"),
		Products: writeFixture(t, dir, "products.csv",
			"product_id,product_category_name,product_weight_g,product_length_cm,product_height_cm,product_width_cm\n"+
				"p1,brinquedos,500,20,10,15\n"),
		Sellers: writeFixture(t, dir, "sellers.csv",
			"seller_id,seller_zip_code_prefix,seller_city,seller_state\n"+
				"s1,02000,campinas,SP\n"),
		CategoryTranslation: writeFixture(t, dir, "category_translation.csv",
			"product_category_name,product_category_name_english\n"+
				"brinquedos,toys\n"),
	}
}

func TestRunEndToEndCSV(t *testing.T) {
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	p := config.Pipeline{
		Job:     "e2e_test",
		Sources: fixtureSources(t, srcDir),
		Export:  config.Export{Kind: "csv", Dir: outDir},
	}

	if err := run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Every output table must exist with at least a header.
	for _, name := range []string{
		"fact", "rfm",
		"sales_monthly", "sales_by_category", "sales_by_state",
		"order_status", "payment_methods", "delivery_by_state",
		"rfm_segment_counts",
	} {
		path := filepath.Join(outDir, name+".csv")
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing export %s: %v", name, err)
		}
	}

	b, err := os.ReadFile(filepath.Join(outDir, "rfm.csv"))
	if err != nil {
		t.Fatalf("read rfm: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("rfm lines = %d; want header + 1 customer", len(lines))
	}
	if !strings.HasPrefix(lines[1], "u1,") {
		t.Fatalf("rfm row = %q; want customer u1", lines[1])
	}
	if !strings.Contains(lines[1], ",110,") {
		t.Fatalf("rfm row = %q; want monetary 110", lines[1])
	}

	b, err = os.ReadFile(filepath.Join(outDir, "delivery_by_state.csv"))
	if err != nil {
		t.Fatalf("read delivery_by_state: %v", err)
	}
	if got := strings.TrimSpace(string(b)); !strings.Contains(got, "SP,10") {
		t.Fatalf("delivery_by_state = %q; want SP at 10 days", got)
	}
}

func TestRunFailsOnMissingSource(t *testing.T) {
	srcDir := t.TempDir()
	src := fixtureSources(t, srcDir)
	src.Payments = filepath.Join(srcDir, "does-not-exist.csv")

	p := config.Pipeline{
		Job:     "e2e_test",
		Sources: src,
		Export:  config.Export{Kind: "csv", Dir: t.TempDir()},
	}
	if err := run(context.Background(), p); err == nil {
		t.Fatalf("run should fail when a required source is missing")
	}
}

func TestWriteTablesRejectsUnknownKind(t *testing.T) {
	_, err := writeTables(context.Background(), config.Export{Kind: "parquet"}, nil)
	if err == nil || !strings.Contains(err.Error(), "parquet") {
		t.Fatalf("err = %v; want unsupported kind", err)
	}
}
