package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		filename string
		want     Category
	}{
		{"report.txt", CategoryText},
		{"notes.md", CategoryText},
		{"bundle.pdf", CategoryPDF},
		{"REPORT.PDF", CategoryPDF},
		{"contract.doc", CategoryDoc},
		{"contract.docx", CategoryDoc},
		{"index.html", CategoryWebsite},
		{"index.htm", CategoryWebsite},
		{"archive.zip", CategoryText},
		{"noextension", CategoryText},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.filename))
		})
	}
}

func TestNewFileDescriptor(t *testing.T) {
	src := FileSource{
		Name:     "report.md",
		Size:     2048,
		MimeType: "text/markdown",
		Content:  strings.NewReader("# report"),
	}

	d := NewFileDescriptor(src)
	require.NotEmpty(t, d.ID)
	assert.Equal(t, "report.md", d.Name)
	assert.Equal(t, int64(2048), d.Size)
	assert.Equal(t, CategoryText, d.Category)

	// every attempt gets its own identifier
	assert.NotEqual(t, d.ID, NewFileDescriptor(src).ID)
}

func TestNewUploadStartsIdle(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})
	assert.Equal(t, StatusIdle, u.Progress.Status)
	assert.Equal(t, 0, u.Progress.Percent)
	assert.False(t, u.IsUploading())
	assert.False(t, u.IsCompleted())
	assert.True(t, u.CanSubmit(true))
	assert.False(t, u.CanSubmit(false))
}

func TestWithStatusLegalPath(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})

	u = u.WithStatus(StatusValidating, "validating")
	assert.Equal(t, StatusValidating, u.Progress.Status)
	assert.True(t, u.IsUploading())

	u = u.WithStatus(StatusUploading, "uploading")
	assert.Equal(t, StatusUploading, u.Progress.Status)

	u = u.WithStatus(StatusProcessing, "processing")
	assert.Equal(t, StatusProcessing, u.Progress.Status)

	u = u.WithStatus(StatusSuccess, "done")
	assert.Equal(t, StatusSuccess, u.Progress.Status)
	assert.Equal(t, 100, u.Progress.Percent)
	assert.True(t, u.IsCompleted())
}

func TestWithStatusNeverSkipsValidating(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})

	// idle can only move to validating
	same := u.WithStatus(StatusUploading, "skip ahead")
	assert.Equal(t, StatusIdle, same.Progress.Status)

	same = u.WithStatus(StatusSuccess, "skip ahead")
	assert.Equal(t, StatusIdle, same.Progress.Status)
}

func TestTerminalStatusIsSticky(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})
	u = u.WithStatus(StatusValidating, "").WithStatus(StatusError, "validation failed")
	require.Equal(t, StatusError, u.Progress.Status)

	// further updates are ignored, never a fault
	same := u.WithStatus(StatusUploading, "retry")
	assert.Equal(t, StatusError, same.Progress.Status)
	same = u.WithProgress(50, "halfway")
	assert.Equal(t, 0, same.Progress.Percent)
	assert.Equal(t, "validation failed", same.Progress.Message)
}

func TestErrorResetsPercent(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})
	u = u.WithStatus(StatusValidating, "").WithStatus(StatusUploading, "")
	u = u.WithProgress(60, "transferring")
	require.Equal(t, 60, u.Progress.Percent)

	u = u.WithStatus(StatusError, "connection reset")
	assert.Equal(t, 0, u.Progress.Percent)
	assert.Equal(t, "connection reset", u.Progress.Message)
}

func TestProgressIsMonotonic(t *testing.T) {
	u := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{})
	u = u.WithStatus(StatusValidating, "").WithStatus(StatusUploading, "")

	u = u.WithProgress(40, "")
	u = u.WithProgress(20, "stale update")
	assert.Equal(t, 40, u.Progress.Percent)

	u = u.WithProgress(250, "overshoot")
	assert.Equal(t, 100, u.Progress.Percent)
}

func TestFunctionalUpdatesLeaveOldValueIntact(t *testing.T) {
	original := NewUpload(NewFileDescriptor(FileSource{Name: "a.txt"}), UploadMetadata{Description: "first"})

	updated := original.WithStatus(StatusValidating, "validating")
	updated = updated.WithMetadata(UploadMetadata{Description: "second"})

	assert.Equal(t, StatusIdle, original.Progress.Status)
	assert.Equal(t, "first", original.Metadata.Description)
	assert.Equal(t, StatusValidating, updated.Progress.Status)
	assert.Equal(t, "second", updated.Metadata.Description)
}
