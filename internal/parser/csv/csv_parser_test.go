package csv

import (
	"strings"
	"testing"
)

func TestParseHeaderNormalization(t *testing.T) {
	in := "\uFEFFOrder ID,Payment Value\no1,12.5\n"
	p := NewParser(Options{HasHeader: true})
	recs, cols, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	if len(cols) != 2 || cols[0] != "order_id" || cols[1] != "payment_value" {
		t.Fatalf("cols = %v", cols)
	}
	if len(recs) != 1 || recs[0]["order_id"] != "o1" {
		t.Fatalf("recs = %v", recs)
	}
}

func TestParseHeaderMapWins(t *testing.T) {
	in := "ID do Pedido,valor\no1,10\n"
	p := NewParser(Options{
		HasHeader: true,
		HeaderMap: map[string]string{"ID do Pedido": "order_id"},
	})
	_, cols, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cols[0] != "order_id" || cols[1] != "valor" {
		t.Fatalf("cols = %v", cols)
	}
}

func TestParseEmptyCellBecomesNil(t *testing.T) {
	in := "a,b\nx,\n"
	p := NewParser(Options{HasHeader: true, TrimSpace: true})
	recs, _, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if recs[0]["b"] != nil {
		t.Fatalf(`empty cell = %#v; want nil`, recs[0]["b"])
	}
}

func TestParseSkipsBadWidthRows(t *testing.T) {
	in := "a,b\n1,2\n3\n4,5\n"
	p := NewParser(Options{HasHeader: true})
	recs, _, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 || skipped != 1 {
		t.Fatalf("rows = %d skipped = %d; want 2, 1", len(recs), skipped)
	}
}

func TestParseHeaderlessSynthesizesColumns(t *testing.T) {
	in := "x,y\n1,2\n"
	p := NewParser(Options{})
	recs, cols, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("rows = %d; want 2 (first row is data)", len(recs))
	}
	if cols[0] != "col_0" || cols[1] != "col_1" {
		t.Fatalf("cols = %v", cols)
	}
}

func TestParseCustomDelimiter(t *testing.T) {
	in := "a;b\n1;2\n"
	p := NewParser(Options{HasHeader: true, Comma: ';'})
	recs, _, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if recs[0]["a"] != "1" || recs[0]["b"] != "2" {
		t.Fatalf("recs = %v", recs)
	}
}
