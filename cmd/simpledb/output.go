package main

import (
	"encoding/json"
	"io"
	"strconv"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// bindArgs turns command-line arguments into statement arguments.
// Integers that survive a round trip ("42", not "042") are bound as
// int64 so numeric comparisons behave on every driver; everything else
// stays a string. raw keeps every argument a string.
func bindArgs(args []string, raw bool) []any {
	out := make([]any, len(args))
	for i, s := range args {
		out[i] = s
		if raw {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
			out[i] = n
		}
	}
	return out
}
