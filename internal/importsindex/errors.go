package importsindex

import "fmt"

// NoSuchImportError is §7's NoSuchImport kind: a direct edge was requested
// for metadata or removal that does not exist.
type NoSuchImportError struct {
	From any
	To   any
}

func (e *NoSuchImportError) Error() string {
	return fmt.Sprintf("no such import: %v -> %v", e.From, e.To)
}

// NoSuchItemError is §7's NoSuchItem kind: a token was not produced by the
// current package model.
type NoSuchItemError struct {
	Token any
}

func (e *NoSuchItemError) Error() string {
	return fmt.Sprintf("no such item: %v", e.Token)
}
