package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonIndent matches the server's pretty-printed envelope.
const jsonIndent = "  "

// JSONFormatter writes data as indented JSON. HTML characters in todo
// titles are written as is so output can be piped to jq unchanged.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
