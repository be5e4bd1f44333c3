package frameio

import "fmt"

// RecordError locates a malformed record. Parsed counts the fields of the
// record that did parse.
type RecordError struct {
	Record int
	Parsed int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: parsed %d of %d fields: %v", e.Record, e.Parsed, FieldsPerRecord, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
