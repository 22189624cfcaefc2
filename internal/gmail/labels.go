package gmail

import (
	"context"
	"fmt"
	"sync"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmcli/internal/instrumentation"
	"github.com/teemow/gmcli/internal/logging"
)

// LabelStarred is the system label coupled to every superstar.
const LabelStarred = "STARRED"

// Superstars maps superstar names, as used in search queries, to the label
// IDs accepted by modify calls.
var Superstars = map[string]string{
	"yellow-star":      "^ss_sy",
	"orange-star":      "^ss_so",
	"red-star":         "^ss_sr",
	"purple-star":      "^ss_sp",
	"blue-star":        "^ss_sb",
	"green-star":       "^ss_sg",
	"red-bang":         "^ss_cr",
	"orange-guillemet": "^ss_co",
	"yellow-bang":      "^ss_cy",
	"green-check":      "^ss_cg",
	"blue-info":        "^ss_cb",
	"purple-question":  "^ss_cp",
}

type labelLister interface {
	ListLabels(ctx context.Context) ([]*gmail.Label, error)
}

// LabelResolver caches the mailbox labels and resolves names to IDs.
type LabelResolver struct {
	src labelLister

	mu     sync.Mutex
	labels []*gmail.Label
}

// NewLabelResolver creates a resolver backed by src.
func NewLabelResolver(src labelLister) *LabelResolver {
	return &LabelResolver{src: src}
}

// Labels returns the cached labels, fetching them when the cache is empty
// or forceRefresh is set. A fetch replaces the cache wholesale.
func (r *LabelResolver) Labels(ctx context.Context, forceRefresh bool) ([]*gmail.Label, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.labels) > 0 && !forceRefresh {
		return r.labels, nil
	}
	labels, err := r.src.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	r.labels = labels
	return labels, nil
}

// LabelID returns the ID of the first label whose name equals name exactly.
func (r *LabelResolver) LabelID(ctx context.Context, name string) (string, error) {
	labels, err := r.Labels(ctx, false)
	if err != nil {
		return "", err
	}
	for _, l := range labels {
		if l.Name == name {
			return l.Id, nil
		}
	}
	known := make([]string, 0, len(labels))
	for _, l := range labels {
		known = append(known, l.Name)
	}
	return "", &LabelNotFoundError{Name: name, Known: known}
}

// ResolveIDs maps names to label IDs for a modify call. Superstar names map
// to their mutation IDs, then label names are tried, then raw label IDs.
// The result keeps the input order without duplicates.
func (r *LabelResolver) ResolveIDs(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, name := range names {
		if id, ok := Superstars[name]; ok {
			add(id)
			continue
		}
		id, err := r.LabelID(ctx, name)
		if err == nil {
			add(id)
			continue
		}
		if r.hasID(name) {
			add(name)
			continue
		}
		return nil, err
	}
	return ids, nil
}

func (r *LabelResolver) hasID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.labels {
		if l.Id == id {
			return true
		}
	}
	return false
}

// isSuperstarID reports whether id is a superstar mutation ID.
func isSuperstarID(id string) bool {
	for _, v := range Superstars {
		if v == id {
			return true
		}
	}
	return false
}

// ModifyLabels adds and removes labels, given by name, on one or more
// messages. Adding a superstar also adds STARRED.
func (c *Client) ModifyLabels(ctx context.Context, messageIDs, add, remove []string) error {
	if len(messageIDs) == 0 {
		return fmt.Errorf("at least one message ID is required")
	}
	if len(add) == 0 && len(remove) == 0 {
		return fmt.Errorf("no labels to add or remove")
	}

	addIDs, err := c.labels.ResolveIDs(ctx, add)
	if err != nil {
		return err
	}
	removeIDs, err := c.labels.ResolveIDs(ctx, remove)
	if err != nil {
		return err
	}
	for _, id := range addIDs {
		if isSuperstarID(id) {
			addIDs = appendUnique(addIDs, LabelStarred)
			break
		}
	}

	logger := logging.WithOperation(c.logger, "labels.modify")
	logger.Debug("modifying labels", "messages", len(messageIDs), "add", addIDs, "remove", removeIDs)

	if len(messageIDs) == 1 {
		return c.observe(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
			_, err := c.svc.Messages.Modify(userID, messageIDs[0], &gmail.ModifyMessageRequest{
				AddLabelIds:    addIDs,
				RemoveLabelIds: removeIDs,
			}).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to modify labels of message %s: %w", messageIDs[0], err)
			}
			return nil
		})
	}

	return c.observe(ctx, instrumentation.OperationBatchModify, func(ctx context.Context) error {
		err := c.svc.Messages.BatchModify(userID, &gmail.BatchModifyMessagesRequest{
			Ids:            messageIDs,
			AddLabelIds:    addIDs,
			RemoveLabelIds: removeIDs,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to modify labels of %d messages: %w", len(messageIDs), err)
		}
		return nil
	})
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
