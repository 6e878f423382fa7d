package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
)

// itemStack mirrors the slice of the item metadata blob we care about. The
// blob wraps a one-element item list under the "i" tag.
type itemStack struct {
	Items []struct {
		Count int8 `nbt:"Count"`
	} `nbt:"i"`
}

// DecodeStackCount extracts the stack quantity from an item metadata blob.
// The blob is base64 over gzip over NBT. Any decode failure yields a count of
// 1: a wrong quantity only makes a flip look less attractive, never invalid.
func DecodeStackCount(itemBytes string) int {
	n, err := decodeStackCount(itemBytes)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func decodeStackCount(itemBytes string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(itemBytes)
	if err != nil {
		return 0, fmt.Errorf("base64: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	var stack itemStack
	if _, err := nbt.NewDecoder(zr).Decode(&stack); err != nil {
		return 0, fmt.Errorf("nbt: %w", err)
	}

	if len(stack.Items) == 0 {
		return 0, fmt.Errorf("no item entry in blob")
	}

	return int(stack.Items[0].Count), nil
}
