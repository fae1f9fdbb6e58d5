// Package syncclient is the client half of the agenda/timer sync
// protocol: optimistic local edits with shadow originals, a processing
// stack for advance/rewind, debounced batch persistence, and a
// skew-corrected countdown. A Go client embedding this package behaves
// like the browser client the server was built against.
package syncclient

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"

	"github.com/google/uuid"
)

// ErrNotFound mirrors a 404 from the CRUD surface. Updates and deletes
// hitting it are treated as soft successes: the item is already gone.
var ErrNotFound = errors.New("not found")

// AgendaAPI is the CRUD surface Save persists through.
type AgendaAPI interface {
	ListItems(ctx context.Context) ([]*models.AgendaItem, error)
	CreateItem(ctx context.Context, text string, timerValue int) (*models.AgendaItem, error)
	UpdateItem(ctx context.Context, id, text string, timerValue int) error
	DeleteItem(ctx context.Context, id string) error
}

// Item is an agenda item plus the shadow fields that track divergence
// from the last-confirmed server state.
type Item struct {
	ID          string
	Text        string
	TimerValue  int
	OrderIndex  int
	IsProcessed bool
	ProcessedAt *time.Time

	OriginalText       string
	OriginalTimerValue int
	IsNew              bool
	IsEdited           bool
	IsEditedTimer      bool
	IsDeleted          bool
}

func (it *Item) dirty() bool {
	return it.IsEdited || it.IsEditedTimer
}

// Editor holds the local working copy of one meeting's agenda.
type Editor struct {
	items []*Item
}

func NewEditor() *Editor {
	return &Editor{}
}

// Reset replaces the working copy with the authoritative server list and
// clears every shadow flag.
func (e *Editor) Reset(items []*models.AgendaItem) {
	e.items = e.items[:0]
	for _, item := range items {
		e.items = append(e.items, fromServer(item))
	}
}

func fromServer(item *models.AgendaItem) *Item {
	return &Item{
		ID:                 item.ID,
		Text:               item.Text,
		TimerValue:         item.TimerValue,
		OrderIndex:         item.OrderIndex,
		IsProcessed:        item.IsProcessed,
		ProcessedAt:        item.ProcessedAt,
		OriginalText:       item.Text,
		OriginalTimerValue: item.TimerValue,
	}
}

// Add creates a client-only item with a locally generated id. It stays
// IsNew until a save persists it.
func (e *Editor) Add(text string, timerValue int) *Item {
	item := &Item{
		ID:                 uuid.New().String(),
		Text:               text,
		TimerValue:         timerValue,
		OrderIndex:         e.nextOrderIndex(),
		OriginalText:       text,
		OriginalTimerValue: timerValue,
		IsNew:              true,
	}
	e.items = append(e.items, item)
	return item
}

func (e *Editor) nextOrderIndex() int {
	next := 0
	for _, item := range e.items {
		if item.OrderIndex >= next {
			next = item.OrderIndex + 1
		}
	}
	return next
}

// SetText updates an item's text and recomputes its dirty flag against
// the shadow original.
func (e *Editor) SetText(id, text string) bool {
	item := e.find(id)
	if item == nil {
		return false
	}
	item.Text = text
	item.IsEdited = text != item.OriginalText
	return true
}

// SetTimerValue updates an item's allotted duration.
func (e *Editor) SetTimerValue(id string, timerValue int) bool {
	item := e.find(id)
	if item == nil {
		return false
	}
	item.TimerValue = timerValue
	item.IsEditedTimer = timerValue != item.OriginalTimerValue
	return true
}

// Delete soft-deletes: the item disappears from visible views but stays
// in the working copy until save. A never-persisted item is discarded
// outright and will never reach the server.
func (e *Editor) Delete(id string) bool {
	item := e.find(id)
	if item == nil {
		return false
	}
	item.IsDeleted = true
	return true
}

func (e *Editor) find(id string) *Item {
	for _, item := range e.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Visible returns the items a user sees: soft-deleted ones filtered out,
// agenda order preserved.
func (e *Editor) Visible() []*Item {
	out := make([]*Item, 0, len(e.items))
	for _, item := range e.items {
		if !item.IsDeleted {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

// Current returns the first unprocessed visible item, or nil.
func (e *Editor) Current() *Item {
	for _, item := range e.Visible() {
		if !item.IsProcessed {
			return item
		}
	}
	return nil
}

// Partition splits the working copy into the three save batches. Deleted
// items that were never persisted appear in none of them.
func (e *Editor) Partition() (creates, updates, deletes []*Item) {
	for _, item := range e.items {
		switch {
		case item.IsDeleted && item.IsNew:
			// discarded locally
		case item.IsDeleted:
			deletes = append(deletes, item)
		case item.IsNew:
			creates = append(creates, item)
		case item.dirty():
			updates = append(updates, item)
		}
	}
	return creates, updates, deletes
}

// Save persists the three batches independently: one item's failure does
// not block the others, and a 404 on update/delete means the item is
// already gone, which is fine. On completion it re-fetches the
// authoritative list and resets all shadow state.
func (e *Editor) Save(ctx context.Context, api AgendaAPI) error {
	creates, updates, deletes := e.Partition()

	for _, item := range creates {
		if _, err := api.CreateItem(ctx, item.Text, item.TimerValue); err != nil {
			logger.Error("Save: create %q failed: %v", item.Text, err)
		}
	}
	for _, item := range updates {
		err := api.UpdateItem(ctx, item.ID, item.Text, item.TimerValue)
		if err != nil && !errors.Is(err, ErrNotFound) {
			logger.Error("Save: update %s failed: %v", item.ID, err)
		}
	}
	for _, item := range deletes {
		err := api.DeleteItem(ctx, item.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			logger.Error("Save: delete %s failed: %v", item.ID, err)
		}
	}

	items, err := api.ListItems(ctx)
	if err != nil {
		return err
	}
	e.Reset(items)
	return nil
}

// ApplySnapshot reconciles a server patch into the working copy. Server
// membership, ordering, and processed flags always win; locally dirty
// text/timer values survive with their originals rebased onto the server
// values. Unsaved local creations are kept at the end.
func (e *Editor) ApplySnapshot(snap *models.AgendaSnapshot) {
	merged := make([]*Item, 0, len(snap.Agenda))
	for _, server := range snap.Agenda {
		local := e.find(server.ID)
		if local == nil {
			merged = append(merged, fromServer(server))
			continue
		}

		next := fromServer(server)
		next.IsDeleted = local.IsDeleted
		if local.IsEdited {
			next.Text = local.Text
			next.IsEdited = next.Text != next.OriginalText
		}
		if local.IsEditedTimer {
			next.TimerValue = local.TimerValue
			next.IsEditedTimer = next.TimerValue != next.OriginalTimerValue
		}
		merged = append(merged, next)
	}

	for _, item := range e.items {
		if item.IsNew && !item.IsDeleted {
			merged = append(merged, item)
		}
	}

	e.items = merged
}

// MarkProcessed flips an item's processed flag locally (optimistic).
func (e *Editor) MarkProcessed(id string, processed bool, at time.Time) bool {
	item := e.find(id)
	if item == nil {
		return false
	}
	item.IsProcessed = processed
	if processed {
		item.ProcessedAt = &at
	} else {
		item.ProcessedAt = nil
	}
	return true
}
