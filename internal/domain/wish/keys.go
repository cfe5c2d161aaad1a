package wish

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Object keys live under KeyRoot, one prefix per wish:
// wishes/{wishId}/{envelope|0-3}.{ext}
const (
	KeyRoot      = "wishes/"
	SlotEnvelope = "envelope"
)

var uploadKeyPattern = regexp.MustCompile(`^wishes/([0-9a-fA-F-]{36})/(envelope|[0-3])\.([A-Za-z0-9]+)$`)

var imageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"heic": "image/heic",
	"heif": "image/heif",
	"avif": "image/avif",
}

// UploadKey is a parsed object key.
type UploadKey struct {
	Raw         string
	WishID      uuid.UUID
	Slot        string
	Ext         string
	ContentType string
}

func (k UploadKey) IsEnvelope() bool { return k.Slot == SlotEnvelope }

// KeyPrefix is the object prefix holding every upload of one wish.
func KeyPrefix(id uuid.UUID) string {
	return KeyRoot + id.String() + "/"
}

// ParseUploadKey validates the object key layout and derives the content
// type from its extension.
func ParseUploadKey(raw string) (UploadKey, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return UploadKey{}, fmt.Errorf("key is required")
	}
	m := uploadKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return UploadKey{}, fmt.Errorf("key %q must look like wishes/{wishId}/{envelope|0-3}.{ext}", key)
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return UploadKey{}, fmt.Errorf("key %q has an invalid wish id", key)
	}
	ext := strings.ToLower(m[3])
	ct, ok := imageContentTypes[ext]
	if !ok {
		return UploadKey{}, fmt.Errorf("key %q has unsupported image extension %q", key, ext)
	}
	return UploadKey{Raw: key, WishID: id, Slot: m[2], Ext: ext, ContentType: ct}, nil
}

// ParseOwnedKey parses raw and checks that it belongs to wish id. When
// envelope is true the key must use the envelope slot, otherwise a memory
// slot.
func ParseOwnedKey(raw string, id uuid.UUID, envelope bool) (UploadKey, error) {
	k, err := ParseUploadKey(raw)
	if err != nil {
		return k, err
	}
	if k.WishID != id {
		return k, fmt.Errorf("key %q belongs to another wish", k.Raw)
	}
	if k.IsEnvelope() != envelope {
		if envelope {
			return k, fmt.Errorf("key %q is not an envelope key", k.Raw)
		}
		return k, fmt.Errorf("key %q is not a memory key", k.Raw)
	}
	return k, nil
}
