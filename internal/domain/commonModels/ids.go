package commonModels

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var ErrInvalidDocumentID = errors.New("invalid document id")

// DocumentID is the canonical string form of a document identifier.
// Construct it with ParseDocumentID or NewDocumentID only.
type DocumentID string

func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// ParseDocumentID accepts UUIDs and 24-hex legacy object ids and returns the
// canonical lower-case form.
func ParseDocumentID(raw string) (DocumentID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidDocumentID
	}
	if u, err := uuid.Parse(s); err == nil {
		return DocumentID(u.String()), nil
	}
	if len(s) == 24 && isHex(s) {
		return DocumentID(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDocumentID, s)
}

func (id DocumentID) String() string { return string(id) }

func isHex(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return true
}

// DocumentVectorID builds doc_<documentId>_<unixMs>_<chunkIndex>. Chunks
// without a document id (legacy uploads) fall back to the sanitized file name.
func DocumentVectorID(documentId string, fileName string, chunkIndex int, at time.Time) string {
	owner := documentId
	if owner == "" {
		owner = safeName(fileName)
	}
	return "doc_" + owner + "_" + strconv.FormatInt(at.UnixMilli(), 10) + "_" + strconv.Itoa(chunkIndex)
}

// ChatVectorID builds <sessionId>-<unixNano>. Nanoseconds keep the two
// messages of one exchange apart.
func ChatVectorID(sessionId string, at time.Time) string {
	return sessionId + "-" + strconv.FormatInt(at.UnixNano(), 10)
}

func ChunkID(fileName string, chunkIndex int, at time.Time) string {
	return fileName + "-" + strconv.Itoa(chunkIndex) + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}

func safeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if b.Len() >= 50 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
