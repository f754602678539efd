// Package config defines the JSON-serializable configuration model for the
// insights pipeline. It is intentionally small, explicit, and dependency-
// free so that run definitions can be loaded from disk and passed through
// the program without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "olist_monthly",
//	  "sources": {
//	    "orders":    "data/olist_orders_dataset.csv",
//	    "customers": "data/olist_customers_dataset.csv"
//	  },
//	  "parser": { "options": { "has_header": true, "trim_space": true } },
//	  "export": { "kind": "csv", "dir": "out" }
//	}
package config

import "encoding/json"

// Pipeline describes one full consolidation-and-scoring run. It is the
// top-level object decoded from a run file (configs/*.json).
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log context.
	Job string `json:"job"`

	// Sources holds the file paths of the nine input tables.
	Sources Sources `json:"sources"`

	// Parser configures how the CSV sources are turned into records.
	Parser Parser `json:"parser"`

	// Export describes where the fact table, RFM table, and summaries are
	// written.
	Export Export `json:"export"`
}

// Sources maps each logical input table to its CSV path. Geolocation is
// optional: it is not part of the join and only feeds reporting consumers.
type Sources struct {
	Orders              string `json:"orders"`
	Customers           string `json:"customers"`
	OrderItems          string `json:"order_items"`
	Payments            string `json:"payments"`
	Reviews             string `json:"reviews"`
	Products            string `json:"products"`
	Sellers             string `json:"sellers"`
	Geolocation         string `json:"geolocation,omitempty"`
	CategoryTranslation string `json:"category_translation"`
}

// Required returns the table-name/path pairs that must be present for the
// join to run, in join order.
func (s Sources) Required() []NamedPath {
	return []NamedPath{
		{"orders", s.Orders},
		{"customers", s.Customers},
		{"order_items", s.OrderItems},
		{"payments", s.Payments},
		{"reviews", s.Reviews},
		{"products", s.Products},
		{"sellers", s.Sellers},
		{"category_translation", s.CategoryTranslation},
	}
}

// NamedPath pairs a logical table name with its source path.
type NamedPath struct {
	Name string
	Path string
}

// Parser selects CSV parsing behavior for all sources.
type Parser struct {
	// Options is a free-form map interpreted by the CSV parser. Typical keys:
	//   has_header (bool), comma (string), trim_space (bool),
	//   header_map (object)
	Options Options `json:"options"`
}

// Export selects the sink used to persist pipeline outputs.
type Export struct {
	// Kind selects the sink: "csv", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// Dir is the output directory for the "csv" kind.
	Dir string `json:"dir,omitempty"`

	// DB carries options for the SQL sinks.
	DB DBConfig `json:"db,omitempty"`
}

// DBConfig configures a SQL export sink.
type DBConfig struct {
	// DSN is the connection string (file path or URL depending on kind).
	DSN string `json:"dsn"`

	// TablePrefix is prepended to every exported table name, e.g. "olist_".
	TablePrefix string `json:"table_prefix,omitempty"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent
// or of an unexpected type.
type Options map[string]any

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. Useful for
// single-character parser settings such as the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object decodes to a non-nil, empty Options map, removing the
// need for nil checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
