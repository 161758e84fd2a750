package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/menuvision/backend/internal/models"
	"github.com/menuvision/backend/internal/store"
	"github.com/menuvision/backend/internal/types"
)

// ErrNoItems means parsing completed but produced zero usable dishes.
// It is a user-facing condition, distinct from a capability failure.
var ErrNoItems = errors.New("no valid food items found in the menu")

// MenuProcessor runs the extraction pipeline: parse, then resolve an
// image and persist each candidate in order, reporting progress as it
// goes. Items are processed strictly sequentially so emitted progress
// matches the order the user sees and upstream rate limits are
// respected.
type MenuProcessor struct {
	parser   MenuParser
	resolver ImageResolver
	store    store.Store
}

// NewMenuProcessor wires the pipeline. All collaborators are injected;
// the processor holds no global state.
func NewMenuProcessor(parser MenuParser, resolver ImageResolver, st store.Store) *MenuProcessor {
	return &MenuProcessor{
		parser:   parser,
		resolver: resolver,
		store:    st,
	}
}

// Process runs the pipeline to completion and returns once. It is the
// streaming mode with intermediate events suppressed.
func (p *MenuProcessor) Process(ctx context.Context, input types.MenuInput) (*types.ProcessResult, error) {
	return p.run(ctx, input, func(types.ProgressEvent) bool { return true })
}

// ProcessStream runs the pipeline and emits progress events on the
// returned channel. The channel carries exactly one terminal event
// (complete or error) and is closed afterwards, unless ctx is cancelled
// first, in which case the channel closes without a terminal event and
// no further work is done.
func (p *MenuProcessor) ProcessStream(ctx context.Context, input types.MenuInput) <-chan types.ProgressEvent {
	events := make(chan types.ProgressEvent)

	emit := func(ev types.ProgressEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(events)

		result, err := p.run(ctx, input, emit)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			emit(types.ProgressEvent{Type: types.EventError, Payload: types.ErrorPayload{
				Message: err.Error(),
			}})
			return
		}

		emit(types.ProgressEvent{Type: types.EventComplete, Payload: types.CompletePayload{
			SessionID: result.SessionID,
			MenuItems: result.MenuItems,
			Success:   true,
			Message:   fmt.Sprintf("Successfully processed %d menu items!", len(result.MenuItems)),
		}})
	}()

	return events
}

// run is the shared pipeline. emit reports a non-terminal event and
// returns false when the receiver is gone; run then stops early.
func (p *MenuProcessor) run(ctx context.Context, input types.MenuInput, emit func(types.ProgressEvent) bool) (*types.ProcessResult, error) {
	if !emit(statusEvent("Starting menu processing...")) {
		return nil, ctx.Err()
	}

	candidates, originalText, err := p.parse(ctx, input, emit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoItems
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	if !emit(types.ProgressEvent{Type: types.EventParsed, Payload: types.ParsedPayload{
		Count:   len(candidates),
		Items:   names,
		Message: fmt.Sprintf("Found %d menu items", len(candidates)),
	}}) {
		return nil, ctx.Err()
	}

	session, err := p.store.CreateSession(ctx, originalText)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	result := &types.ProcessResult{
		SessionID: session.ID,
		MenuItems: make([]*models.MenuItem, 0, len(candidates)),
		Success:   true,
	}

	total := len(candidates)
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !emit(types.ProgressEvent{Type: types.EventProcessing, Payload: types.ProcessingPayload{
			Current: i + 1,
			Total:   total,
			Item:    candidate.Name,
			Message: fmt.Sprintf("Creating image for %s...", candidate.Name),
		}}) {
			return nil, ctx.Err()
		}

		item, err := p.processItem(ctx, session.ID, candidate)
		if err != nil {
			// One bad item must not sink the whole menu.
			log.Printf("[MenuProcessor] item %d/%d %q failed: %v", i+1, total, candidate.Name, err)
			result.FailedItems = append(result.FailedItems, candidate.Name)
			if !emit(types.ProgressEvent{Type: types.EventItemError, Payload: types.ItemErrorPayload{
				Item:    candidate.Name,
				Current: i + 1,
				Total:   total,
				Message: fmt.Sprintf("Failed to create image for %s", candidate.Name),
			}}) {
				return nil, ctx.Err()
			}
			continue
		}

		result.MenuItems = append(result.MenuItems, item)
		if !emit(types.ProgressEvent{Type: types.EventItemComplete, Payload: types.ItemCompletePayload{
			Item:    item,
			Current: i + 1,
			Total:   total,
			Message: fmt.Sprintf("%s is ready!", item.Name),
		}}) {
			return nil, ctx.Err()
		}
	}

	return result, nil
}

func (p *MenuProcessor) parse(ctx context.Context, input types.MenuInput, emit func(types.ProgressEvent) bool) ([]types.MenuCandidate, string, error) {
	if input.IsImage() {
		if !emit(statusEvent("Analyzing menu image...")) {
			return nil, "", ctx.Err()
		}
		candidates, err := p.parser.Parse(ctx, input)
		if err != nil {
			return nil, "", err
		}
		return candidates, fmt.Sprintf("Uploaded image: %s", input.Filename), nil
	}

	if strings.TrimSpace(input.Text) == "" {
		return nil, "", ErrNoItems
	}
	if !emit(statusEvent("Parsing menu text...")) {
		return nil, "", ctx.Err()
	}
	candidates, err := p.parser.Parse(ctx, input)
	if err != nil {
		return nil, "", err
	}
	return candidates, input.Text, nil
}

func (p *MenuProcessor) processItem(ctx context.Context, sessionID int, candidate types.MenuCandidate) (*models.MenuItem, error) {
	imageURL, err := p.resolver.Resolve(ctx, candidate.Name, candidate.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image: %w", err)
	}

	item, err := p.store.CreateItem(ctx, sessionID, candidate.Name, candidate.Description, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to persist item: %w", err)
	}
	return item, nil
}

func statusEvent(message string) types.ProgressEvent {
	return types.ProgressEvent{Type: types.EventStatus, Payload: types.StatusPayload{Message: message}}
}
