package config

import (
	"os"
	"strings"
)

// ArchiveMirrorBucket returns the GCS bucket that receives a best-effort copy
// of every uploaded archive, or "" when mirroring is disabled. SharePoint
// stays the source of truth; the mirror exists for in-house reporting jobs
// that already read from GCS.
//
// Set via env:
// - ARCHIVE_MIRROR_GCS_BUCKET=<bucket name>
func ArchiveMirrorBucket() string {
	return strings.TrimSpace(os.Getenv("ARCHIVE_MIRROR_GCS_BUCKET"))
}
