package upload

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/docforge/uploader/internal/utils/validator"
)

// assumedThroughput is the transfer-rate assumption behind the upload time
// estimate, in bytes per second. Informational only.
const assumedThroughput = 1 << 20

// IsSupportedType reports whether the filename's extension is in the
// default supported set.
func IsSupportedType(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return validator.New(nil).IsAllowedExtension(ext)
}

// FormatSize renders a byte count for humans, e.g. "2.0 KiB".
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

// EstimateUploadTime is a rough transfer-time guess from the size and the
// assumed throughput. At least one second for any non-empty file.
func EstimateUploadTime(size int64) time.Duration {
	if size <= 0 {
		return 0
	}
	est := time.Duration(size/assumedThroughput) * time.Second
	if est < time.Second {
		return time.Second
	}
	return est
}
