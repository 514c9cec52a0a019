package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	rsync "github.com/rolodex-dev/rolodex/internal/sync"
	"github.com/rolodex-dev/rolodex/internal/tagger"
)

// RunCompleteData summarises a finished run.
type RunCompleteData struct {
	RunID          int64         `json:"run_id,omitempty"`
	Skipped        bool          `json:"skipped"`
	Scanned        int           `json:"scanned"`
	NewContacts    int           `json:"new_contacts"`
	EditedContacts int           `json:"edited_contacts"`
	Batches        int           `json:"batches"`
	BatchesFailed  int           `json:"batches_failed"`
	TagsCreated    int           `json:"tags_created"`
	LinksCreated   int           `json:"links_created"`
	NewTags        []string      `json:"new_tags,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// BatchFailedData identifies a discarded batch.
type BatchFailedData struct {
	Index      int      `json:"index"`
	ContactIDs []string `json:"contact_ids"`
	Error      string   `json:"error"`
}

// Handler turns workflow notifications into dashboard messages. It
// implements sync.Observer.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnBatch broadcasts failed batches; successful ones are reported in the
// run summary.
func (h *Handler) OnBatch(result tagger.BatchResult) {
	if !result.Failed() {
		return
	}
	h.send(MessageTypeBatchFailed, BatchFailedData{
		Index:      result.Index,
		ContactIDs: result.ContactIDs,
		Error:      result.Err.Error(),
	})
}

// OnRunComplete broadcasts the run summary followed by fresh stats.
func (h *Handler) OnRunComplete(result *rsync.Result) {
	h.send(MessageTypeRunComplete, RunCompleteData{
		RunID:          result.RunID,
		Skipped:        result.Skipped,
		Scanned:        result.Detect.Scanned,
		NewContacts:    result.Detect.New,
		EditedContacts: result.Detect.Edited,
		Batches:        result.Batches,
		BatchesFailed:  result.BatchesFailed,
		TagsCreated:    result.Write.TagsCreated,
		LinksCreated:   result.Write.LinksCreated,
		NewTags:        result.NewTags,
		Duration:       result.Duration,
	})
	h.BroadcastStats(context.Background())
}

// BroadcastStats sends current row counts to all clients.
func (h *Handler) BroadcastStats(ctx context.Context) {
	msg, err := h.server.statsMessage(ctx)
	if err != nil {
		h.logger.Printf("Failed to load stats: %v", err)
		return
	}
	h.server.Broadcast(msg)
}

func (h *Handler) send(typ MessageType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	})
}

var _ rsync.Observer = (*Handler)(nil)
