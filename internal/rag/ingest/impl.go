package ingest

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

var (
	ErrMissingFilename = errors.New("Missing filename")
	ErrEmptyFile       = errors.New("File is empty")
	ErrFileTooLarge    = errors.New("File size exceeds 10MB limit")
	ErrUnsupportedType = errors.New("Unsupported file type. Upload PDF, DOCX, or TXT")
	ErrNoText          = errors.New("No text could be extracted from the file")
)

// ValidateUpload checks what can be known before the file is read.
func ValidateUpload(fileName string, size int64) error {
	if strings.TrimSpace(fileName) == "" {
		return ErrMissingFilename
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > config.MaxUploadSize {
		return ErrFileTooLarge
	}
	if getDocType(fileName) == commonModels.ERR {
		return ErrUnsupportedType
	}
	return nil
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".doc", ".rtf", ".odt":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// CleanText flattens line breaks and tabs to spaces.
func CleanText(text string) string {
	return strings.TrimSpace(cleaner.Replace(text))
}

var cleaner = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
