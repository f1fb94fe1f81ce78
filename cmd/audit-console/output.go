package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goliatone/go-print"
)

func writeJSON(w io.Writer, v any) error {
	if _, err := json.Marshal(v); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, print.MaybeHighlightJSON(v))
	return err
}
