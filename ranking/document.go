package ranking

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"tictactoe/game"

	"github.com/pkg/errors"
)

// ErrInvalidDocument reports an import document that does not have the
// [{state, moveIndex, q}] shape.
var ErrInvalidDocument = errors.New("invalid rankings document")

// record mirrors Entry with pointer fields so missing properties are detected.
type record struct {
	State     *string  `json:"state"`
	MoveIndex *int     `json:"moveIndex"`
	Q         *float64 `json:"q"`
}

// Validate checks every entry without modifying anything.
func Validate(entries []Entry) error {
	for i, e := range entries {
		if !e.State.Valid() {
			return errors.Wrapf(ErrInvalidDocument, "entry %d: state %q is not a 9-character E/X/O key", i, e.State)
		}
		if e.MoveIndex < 0 || e.MoveIndex >= game.Cells {
			return errors.Wrapf(ErrInvalidDocument, "entry %d: moveIndex %d out of range", i, e.MoveIndex)
		}
		if math.IsNaN(e.Q) || math.IsInf(e.Q, 0) {
			return errors.Wrapf(ErrInvalidDocument, "entry %d: q is not finite", i)
		}
	}
	return nil
}

// DecodeDocument parses an export document strictly: unknown or missing
// properties and trailing data are errors.
func DecodeDocument(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "decode: %v", err)
	}
	if dec.More() {
		return nil, errors.Wrap(ErrInvalidDocument, "trailing data after document")
	}
	if records == nil {
		return nil, errors.Wrap(ErrInvalidDocument, "document must be an array")
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		if rec.State == nil || rec.MoveIndex == nil || rec.Q == nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "entry %d: state, moveIndex and q are required", i)
		}
		entries[i] = Entry{State: game.StateKey(*rec.State), MoveIndex: *rec.MoveIndex, Q: *rec.Q}
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EncodeDocument writes entries as a JSON array.
func EncodeDocument(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(entries), "failed to encode rankings document")
}

// LoadFile replaces the store's table with the document at path. A missing file
// leaves the store untouched and is not an error.
func LoadFile(store Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read rankings file %s", path)
	}
	entries, err := DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return 0, errors.WithMessagef(err, "rankings file %s", path)
	}
	if err := store.ImportReplace(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// SaveFile writes the store's export document to path via a temporary file.
func SaveFile(store Store, path string) (int, error) {
	entries := store.Export()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errors.Wrap(err, "failed to create directory")
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create rankings file %s", tmp)
	}
	if err := EncodeDocument(f, entries); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, errors.Wrapf(err, "failed to close rankings file %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, errors.Wrapf(err, "failed to move rankings file into %s", path)
	}
	return len(entries), nil
}
