package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentID is a Git-style SHA-1 content hash (20 bytes) identifying the
// inputs of one compilation: a style sheet together with everything it imports.
type ContentID [20]byte

// ComputeContentID hashes each part as a Git blob ("blob {len}\0{content}")
// into one digest. A single part yields the same ID git hash-object would.
func ComputeContentID(parts ...[]byte) ContentID {
	h := sha1.New()
	for _, part := range parts {
		fmt.Fprintf(h, "blob %d\x00", len(part))
		h.Write(part)
	}

	var id ContentID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns 40-character hex string.
func (id ContentID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements Stringer (returns Hex()).
func (id ContentID) String() string {
	return id.Hex()
}

// IsZero reports whether the ID was never computed.
func (id ContentID) IsZero() bool {
	return id == ContentID{}
}

// ParseContentID parses 40-char hex string to ContentID.
func ParseContentID(hexStr string) (ContentID, error) {
	if len(hexStr) != 40 {
		return ContentID{}, fmt.Errorf("invalid content ID length: expected 40, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var id ContentID
	copy(id[:], decoded)
	return id, nil
}

// MarshalJSON implements json.Marshaler.
func (id ContentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ContentID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseContentID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (id ContentID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (id *ContentID) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot scan nil into ContentID")
	}

	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into ContentID", value)
	}

	parsed, err := ParseContentID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}
