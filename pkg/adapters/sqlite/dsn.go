package sqlite

import (
	"net/url"
	"sort"
	"strings"
)

// dsn appends options to path as _pragma query parameters, sorted by name.
func dsn(path string, options map[string]string) string {
	if len(options) == 0 {
		return path
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Add("_pragma", k+"("+options[k]+")")
	}
	if path == MemoryPath {
		return "file::memory:?" + q.Encode()
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
