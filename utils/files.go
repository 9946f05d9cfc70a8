package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// UploadBasePath returns the root upload directory from UPLOAD_PATH,
// defaulting to ./uploads.
func UploadBasePath() string {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return uploadPath
}

// EvidenceFolder creates (if needed) and returns the date-partitioned
// evidence directory, e.g. uploads/evidence/2026/09/01.
func EvidenceFolder(now time.Time) (string, error) {
	folder := filepath.Join(UploadBasePath(), "evidence", now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}
	return folder, nil
}

// GenerateUniqueFilename returns filename if it is free inside dir,
// otherwise appends _1, _2, ... before the extension until it is.
func GenerateUniqueFilename(dir, filename string) string {
	candidate := SanitizeFilename(filename)
	ext := filepath.Ext(candidate)
	base := strings.TrimSuffix(candidate, ext)

	for i := 0; ; i++ {
		name := candidate
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
	}
}

// SanitizeFilename strips path components and characters that are unsafe in
// stored filenames. The display name keeps the original; only the on-disk
// name goes through this.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	name = strings.ReplaceAll(name, "\x00", "")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || b.String() == "." || b.String() == ".." {
		return "file"
	}
	return b.String()
}
