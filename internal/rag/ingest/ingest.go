package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/chunking"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

// Extracted is the raw text of one uploaded file plus what the chunker needs
// to know about it.
type Extracted struct {
	Text string
	File chunking.FileInfo
}

var logger = logger_i.NewLogger("ingest")

// Extract reads the file at path. fileName is the name the user uploaded it
// under, which decides the parser.
func Extract(ctx context.Context, path string, fileName string) (Extracted, error) {
	log := logger.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return Extracted{}, fmt.Errorf("stat upload: %w", err)
	}
	if err := ValidateUpload(fileName, info.Size()); err != nil {
		return Extracted{}, err
	}

	docType := getDocType(fileName)
	log.Debug("extracting document", "fileName", fileName, "type", docType, "size", info.Size())

	var text string
	pageCount := 0
	switch docType {
	case commonModels.PDF:
		text, pageCount, err = extractPDF(ctx, path)
	case commonModels.DOCX, commonModels.TXT:
		text, err = extractWithCat(path)
		pageCount = 1
	default:
		return Extracted{}, ErrUnsupportedType
	}
	if err != nil {
		return Extracted{}, err
	}

	text = CleanText(text)
	if text == "" {
		return Extracted{}, ErrNoText
	}

	return Extracted{
		Text: text,
		File: chunking.FileInfo{
			Name:      fileName,
			Type:      strings.ToLower(string(docType)),
			Size:      info.Size(),
			PageCount: pageCount,
		},
	}, nil
}
