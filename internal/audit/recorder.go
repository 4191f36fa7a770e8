package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder writes audit entries. Call it with the context of the enclosing
// transaction; a failed write fails that transaction.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record appends an entry whose action is taken from meta
func (r *Recorder) Record(ctx context.Context, actorUserID, entityType, entityID string, meta Metadata) error {
	if meta == nil {
		return fmt.Errorf("audit metadata is required")
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}

	entry := &Entry{
		ID:          uuid.NewString(),
		ActorUserID: actorUserID,
		Action:      meta.Action(),
		EntityType:  entityType,
		EntityID:    entityID,
		Meta:        string(payload),
		CreatedAt:   r.now(),
	}
	return r.repo.Append(ctx, entry)
}
