package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"

	"github.com/docforge/uploader/pkg/converters"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/queue"
	"github.com/docforge/uploader/pkg/storage"
)

// IngestWorker consumes document:ingest tasks: it fetches the stored
// content, extracts text (page by page for PDFs), and writes the result
// document back into the object store.
type IngestWorker struct {
	BaseWorker
	store     storage.Storage
	queue     queue.Queue
	converter converters.DocumentConverter
}

func NewIngestWorker(wc *Config, store storage.Storage, q queue.Queue, log logger.Logger) (*IngestWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: wc.RedisAddr, Password: wc.RedisPassword, DB: wc.RedisDB},
		asynq.Config{
			Concurrency: wc.Concurrency,
			Queues:      wc.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &IngestWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		store:     store,
		queue:     q,
		converter: converters.NewJSONConverter(),
	}

	w.mux.HandleFunc(queue.TaskTypeDocumentIngest, w.handleIngest)
	return w, nil
}

func (w *IngestWorker) handleIngest(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal ingest task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	if task.ID == "" || task.Payload == nil {
		return fmt.Errorf("invalid ingest task: missing required fields")
	}

	w.logger.Info("Ingesting document",
		logger.String("jobId", task.ID),
		logger.String("filename", task.Metadata["filename"]),
	)

	if err := w.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    "processing",
		Progress:  0.5,
		StartedAt: task.CreatedAt,
	}); err != nil {
		w.logger.Warn("Failed to save processing status", logger.Error(err))
	}

	if err := w.ingest(ctx, &task); err != nil {
		if saveErr := w.queue.SaveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     "failed",
			Error:      err.Error(),
			StartedAt:  task.CreatedAt,
			FinishedAt: time.Now(),
		}); saveErr != nil {
			w.logger.Error("Failed to save failed status", logger.Error(saveErr))
		}
		return err
	}

	if err := w.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     "completed",
		Progress:   1.0,
		StartedAt:  task.CreatedAt,
		FinishedAt: time.Now(),
	}); err != nil {
		w.logger.Error("Failed to save completed status", logger.Error(err))
	}

	return nil
}

func (w *IngestWorker) ingest(ctx context.Context, task *queue.Task) error {
	objectKey, _ := task.Payload["objectKey"].(string)
	if objectKey == "" {
		return fmt.Errorf("ingest task %s has no object key", task.ID)
	}
	category, _ := task.Payload["category"].(string)
	documentID, _ := task.Payload["documentId"].(string)

	reader, err := w.store.Get(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("failed to get content: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	var pages []string
	if category == "pdf" {
		pages, err = extractPDFPages(content)
		if err != nil {
			return fmt.Errorf("failed to extract pdf text: %w", err)
		}
	} else {
		pages = []string{string(content)}
	}

	meta := converters.DocumentMetadata{
		FileName: task.Metadata["filename"],
		Category: category,
		FileSize: int64(len(content)),
	}

	doc, err := w.converter.Convert(pages, meta)
	if err != nil {
		return fmt.Errorf("failed to convert document: %w", err)
	}
	doc.JobID = task.ID
	doc.DocumentID = documentID

	resultData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if _, err := w.store.Store(ctx, bytes.NewReader(resultData), "result/"+task.ID); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	w.logger.Info("Document ingested",
		logger.String("jobId", task.ID),
		logger.Int("pageCount", len(pages)),
	)

	return nil
}

// extractPDFPages pulls plain text out of every page. Pages that fail to
// decode contribute an empty string rather than failing the whole document.
func extractPDFPages(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return pages, nil
}

func (w *IngestWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
