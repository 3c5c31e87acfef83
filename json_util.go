// json_util.go - small JSON field-editing helper shared by setpages.go

package main

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// jsonIntField reads one integer field, defaulting to 0 when absent.
func jsonIntField(doc, key string) int64 {
	return gjson.Get(doc, key).Int()
}

// setJSONIntField in-place-edits one integer field of a JSON document,
// preserving every other field verbatim (spec §4.10 step 7 requires this
// for the firmware settings file, which the core must not otherwise
// rewrite).
func setJSONIntField(doc, key string, value int) (string, error) {
	return sjson.Set(doc, key, value)
}
