// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "strings"

// CString null terminates s for the native API, once.
func CString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// CStrings null terminates every string in sgs.
func CStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, CString(s))
	}
	return safe
}

// GoString strips the terminator added by CString.
func GoString(s string) string {
	return strings.TrimRight(s, "\x00")
}
