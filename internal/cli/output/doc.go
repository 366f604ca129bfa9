// Package output renders CLI results as a table, JSON or YAML.
//
// Tables are derived from struct fields. The column header comes from the
// `table` tag, falling back to the json name; a ",wide" option hides the
// column unless --wide is given and "-" hides it always:
//
//	type row struct {
//		ID      int64     `json:"id" table:"ID"`
//		Updated time.Time `json:"updated_at" table:"UPDATED,wide"`
//	}
//
// JSON and YAML output keep the json field names so that both formats
// describe the same document.
package output
