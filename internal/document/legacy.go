package document

import "errors"

var errLegacyFormat = errors.New("legacy binary format is not supported natively")

// extractLegacy yields one empty unit for .doc and .xls files, marked failed
func extractLegacy(doc *Document) *Extraction {
	x := &Extraction{Kind: doc.Kind, Pages: []PageText{{Number: 1}}}
	x.addError("document", errLegacyFormat)
	return x
}
