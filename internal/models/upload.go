package models

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Category classifies a document by what kind of content it carries.
type Category string

const (
	CategoryText    Category = "text"
	CategoryPDF     Category = "pdf"
	CategoryDoc     Category = "doc"
	CategoryWebsite Category = "website"
)

var categoryByExt = map[string]Category{
	".txt":  CategoryText,
	".md":   CategoryText,
	".pdf":  CategoryPDF,
	".doc":  CategoryDoc,
	".docx": CategoryDoc,
	".html": CategoryWebsite,
	".htm":  CategoryWebsite,
}

// InferCategory maps a filename to its document category by extension.
// The match is case-insensitive; unknown extensions fall back to text.
func InferCategory(filename string) Category {
	ext := strings.ToLower(filepath.Ext(filename))
	if c, ok := categoryByExt[ext]; ok {
		return c
	}
	return CategoryText
}

// FileSource is the caller-supplied raw input for one submission attempt.
type FileSource struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.Reader
}

// FileDescriptor identifies one file for one submission attempt. It is
// created once per attempt and never mutated afterwards.
type FileDescriptor struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mimeType"`
	Category Category  `json:"category"`
	Content  io.Reader `json:"-"`
}

// NewFileDescriptor builds a descriptor with a fresh identifier and an
// inferred category.
func NewFileDescriptor(src FileSource) FileDescriptor {
	return FileDescriptor{
		ID:       uuid.New().String(),
		Name:     src.Name,
		Size:     src.Size,
		MimeType: src.MimeType,
		Category: InferCategory(src.Name),
		Content:  src.Content,
	}
}

// UploadMetadata carries caller-supplied context for an upload attempt.
type UploadMetadata struct {
	CollectionID string            `json:"collectionId,omitempty"`
	Tags         []string          `json:"tags"`
	Description  string            `json:"description"`
	Custom       map[string]string `json:"custom,omitempty"`
}

// UploadStatus is the entity's lifecycle status.
type UploadStatus string

const (
	StatusIdle       UploadStatus = "idle"
	StatusValidating UploadStatus = "validating"
	StatusUploading  UploadStatus = "uploading"
	StatusProcessing UploadStatus = "processing"
	StatusSuccess    UploadStatus = "success"
	StatusError      UploadStatus = "error"
)

var statusTransitions = map[UploadStatus][]UploadStatus{
	StatusIdle:       {StatusValidating},
	StatusValidating: {StatusUploading, StatusError},
	StatusUploading:  {StatusProcessing, StatusSuccess, StatusError},
	StatusProcessing: {StatusSuccess, StatusError},
}

// IsTerminal reports whether no further transition is permitted.
func (s UploadStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// UploadProgress is the observable progress of one attempt.
type UploadProgress struct {
	Percent int          `json:"percent"`
	Message string       `json:"message"`
	Status  UploadStatus `json:"status"`
}

// UploadResult is the terminal outcome of one attempt. Exactly one of the
// success and failure shapes is populated.
type UploadResult struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId,omitempty"`
	JobID      string `json:"jobId,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SuccessResult builds a successful outcome.
func SuccessResult(documentID, jobID, filename, message string) *UploadResult {
	return &UploadResult{
		Success:    true,
		DocumentID: documentID,
		JobID:      jobID,
		Filename:   filename,
		Message:    message,
	}
}

// FailureResult builds a failed outcome with a human-readable cause.
func FailureResult(errMsg string) *UploadResult {
	return &UploadResult{
		Success: false,
		Error:   errMsg,
	}
}

// EventKind names the observable upload events.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// UploadEvent is emitted to an optional observer as an attempt advances.
type UploadEvent struct {
	Kind       EventKind              `json:"kind"`
	DocumentID string                 `json:"documentId"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Upload is the immutable aggregate of a descriptor, its metadata and its
// current progress. State changes return a new value; the receiver is never
// modified, so references held by the caller stay valid.
type Upload struct {
	File     FileDescriptor `json:"file"`
	Metadata UploadMetadata `json:"metadata"`
	Progress UploadProgress `json:"progress"`
}

// NewUpload creates an entity in the idle state.
func NewUpload(file FileDescriptor, metadata UploadMetadata) Upload {
	return Upload{
		File:     file,
		Metadata: metadata,
		Progress: UploadProgress{
			Percent: 0,
			Message: "Waiting to upload",
			Status:  StatusIdle,
		},
	}
}

// WithStatus returns a copy moved to the given status. Illegal transitions,
// including any change on a terminal entity, leave the value unchanged.
// Entering error resets the percentage to zero; entering success pins it
// to one hundred.
func (u Upload) WithStatus(status UploadStatus, message string) Upload {
	if u.Progress.Status.IsTerminal() || !u.Progress.Status.CanTransitionTo(status) {
		return u
	}

	next := u
	switch status {
	case StatusError:
		next.Progress = UploadProgress{Percent: 0, Message: message, Status: status}
	case StatusSuccess:
		next.Progress = UploadProgress{Percent: 100, Message: message, Status: status}
	default:
		next.Progress = UploadProgress{Percent: u.Progress.Percent, Message: message, Status: status}
	}
	return next
}

// WithProgress returns a copy with an updated percentage and message. The
// percentage never decreases within an attempt and is clamped to 100.
// Terminal entities are left unchanged.
func (u Upload) WithProgress(percent int, message string) Upload {
	if u.Progress.Status.IsTerminal() {
		return u
	}
	if percent < u.Progress.Percent {
		percent = u.Progress.Percent
	}
	if percent > 100 {
		percent = 100
	}

	next := u
	next.Progress = UploadProgress{Percent: percent, Message: message, Status: u.Progress.Status}
	return next
}

// WithMetadata returns a copy carrying the given metadata.
func (u Upload) WithMetadata(metadata UploadMetadata) Upload {
	next := u
	next.Metadata = metadata
	return next
}

// IsUploading reports whether the attempt is in flight.
func (u Upload) IsUploading() bool {
	switch u.Progress.Status {
	case StatusValidating, StatusUploading, StatusProcessing:
		return true
	}
	return false
}

// IsCompleted reports whether the attempt reached a terminal status.
func (u Upload) IsCompleted() bool {
	return u.Progress.Status.IsTerminal()
}

// CanSubmit reports whether the entity may be handed to a transport:
// validation must have passed and the entity must still be idle.
func (u Upload) CanSubmit(valid bool) bool {
	return valid && u.Progress.Status == StatusIdle
}
