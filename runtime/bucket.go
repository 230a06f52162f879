// Package runtime re-inserts independently shipped sheet strings into a live
// style document so that cascade order stays correct regardless of the order
// in which sheets arrive.
package runtime

import (
	"strings"

	"acss/common"
	"acss/css"
)

// ClassifySheet maps an arbitrary sheet string to its cascade bucket. A
// sheet starting with '@' belongs to the at-rule bucket; otherwise the
// selector is re-parsed and its first pseudo-class looked up in the fixed
// link/visited/focus/hover/active table. Anything unrecognized degrades to
// the catch-all bucket - a missing style is a worse outcome than a
// mis-ordered one.
func ClassifySheet(sheet string) common.Bucket {
	s := strings.TrimLeft(sheet, " \t\r\n")
	if strings.HasPrefix(s, "@") {
		return common.BucketAtRule
	}
	return common.PseudoBucket(css.FirstPseudoClass(selectorOf(s)))
}

// selectorOf returns the sheet text up to the first '{' outside quotes.
func selectorOf(sheet string) string {
	var quote byte
	for i := 0; i < len(sheet); i++ {
		c := sheet[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			return sheet[:i]
		}
	}
	return sheet
}
