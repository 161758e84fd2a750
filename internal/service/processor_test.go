package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/menuvision/backend/internal/store"
	"github.com/menuvision/backend/internal/types"
)

// mockParser is a mock implementation of MenuParser
type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(ctx context.Context, input types.MenuInput) ([]types.MenuCandidate, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuCandidate), args.Error(1)
}

// mockResolver is a mock implementation of ImageResolver
type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, name, description string) (string, error) {
	args := m.Called(ctx, name, description)
	return args.String(0), args.Error(1)
}

func threeCandidates() []types.MenuCandidate {
	return []types.MenuCandidate{
		{Name: "Grilled Salmon", Description: "Tender fillet"},
		{Name: "Caesar Salad", Description: "Crisp romaine"},
		{Name: "Margherita Pizza", Description: "Fresh basil"},
	}
}

func TestProcessBlocking(t *testing.T) {
	t.Run("should persist one item per candidate", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/food.jpg", nil)
		st := store.NewMemoryStore()

		processor := NewMenuProcessor(parser, resolver, st)
		result, err := processor.Process(context.Background(), types.MenuInput{Text: "some menu"})

		require.NoError(t, err)
		assert.Equal(t, 1, result.SessionID)
		assert.True(t, result.Success)
		require.Len(t, result.MenuItems, 3)

		// Every returned item is retrievable unchanged.
		for _, item := range result.MenuItems {
			stored, err := st.GetItem(context.Background(), item.ID)
			require.NoError(t, err)
			assert.Equal(t, item, stored)
			assert.Equal(t, result.SessionID, stored.SessionID)
		}

		all, err := st.ListAllItems(context.Background())
		require.NoError(t, err)
		assert.Len(t, all, 3)

		session, err := st.GetSession(context.Background(), result.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "some menu", session.OriginalText)
	})

	t.Run("should record the image sentinel as original text", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates()[:1], nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/food.jpg", nil)
		st := store.NewMemoryStore()

		processor := NewMenuProcessor(parser, resolver, st)
		result, err := processor.Process(context.Background(), types.MenuInput{
			ImageData: []byte{0x01},
			MimeType:  "image/png",
			Filename:  "dinner-menu.png",
		})

		require.NoError(t, err)
		session, err := st.GetSession(context.Background(), result.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "Uploaded image: dinner-menu.png", session.OriginalText)
	})

	t.Run("should name failed items in the result", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, "Grilled Salmon", mock.Anything).Return("https://example.com/salmon.jpg", nil)
		resolver.On("Resolve", mock.Anything, "Caesar Salad", mock.Anything).Return("", errors.New("lookup failed"))
		resolver.On("Resolve", mock.Anything, "Margherita Pizza", mock.Anything).Return("https://example.com/pizza.jpg", nil)

		processor := NewMenuProcessor(parser, resolver, store.NewMemoryStore())
		result, err := processor.Process(context.Background(), types.MenuInput{Text: "menu"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Len(t, result.MenuItems, 2)
		assert.Equal(t, []string{"Caesar Salad"}, result.FailedItems)
	})

	t.Run("should report zero candidates as ErrNoItems", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return([]types.MenuCandidate{}, nil)
		resolver := &mockResolver{}
		st := store.NewMemoryStore()

		processor := NewMenuProcessor(parser, resolver, st)
		_, err := processor.Process(context.Background(), types.MenuInput{Text: "$1\n$2"})

		assert.ErrorIs(t, err, ErrNoItems)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)

		// No session is created for a failed parse.
		_, err = st.GetSession(context.Background(), 1)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("should not call the parser for blank text", func(t *testing.T) {
		parser := &mockParser{}
		resolver := &mockResolver{}
		processor := NewMenuProcessor(parser, resolver, store.NewMemoryStore())

		_, err := processor.Process(context.Background(), types.MenuInput{Text: "   \n "})

		assert.ErrorIs(t, err, ErrNoItems)
		parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	})

	t.Run("should propagate parse errors", func(t *testing.T) {
		parseErr := errors.New("vision unavailable")
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(nil, parseErr)
		processor := NewMenuProcessor(parser, &mockResolver{}, store.NewMemoryStore())

		_, err := processor.Process(context.Background(), types.MenuInput{ImageData: []byte{0x01}, MimeType: "image/png"})

		assert.ErrorIs(t, err, parseErr)
	})
}

func drain(ch <-chan types.ProgressEvent) []types.ProgressEvent {
	var events []types.ProgressEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []types.ProgressEvent) []types.EventType {
	out := make([]types.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestProcessStream(t *testing.T) {
	t.Run("should emit the full ordered event sequence", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/food.jpg", nil)
		st := store.NewMemoryStore()

		processor := NewMenuProcessor(parser, resolver, st)
		events := drain(processor.ProcessStream(context.Background(), types.MenuInput{Text: "menu"}))

		assert.Equal(t, []types.EventType{
			types.EventStatus,
			types.EventStatus,
			types.EventParsed,
			types.EventProcessing, types.EventItemComplete,
			types.EventProcessing, types.EventItemComplete,
			types.EventProcessing, types.EventItemComplete,
			types.EventComplete,
		}, eventTypes(events))

		parsed := events[2].Payload.(types.ParsedPayload)
		assert.Equal(t, 3, parsed.Count)
		assert.Equal(t, []string{"Grilled Salmon", "Caesar Salad", "Margherita Pizza"}, parsed.Items)

		complete := events[len(events)-1].Payload.(types.CompletePayload)
		assert.True(t, complete.Success)
		assert.Len(t, complete.MenuItems, 3)
		assert.Equal(t, 1, complete.SessionID)
	})

	t.Run("one failing item must not sink the run", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, "Grilled Salmon", mock.Anything).Return("https://example.com/salmon.jpg", nil)
		resolver.On("Resolve", mock.Anything, "Caesar Salad", mock.Anything).Return("", errors.New("lookup failed"))
		resolver.On("Resolve", mock.Anything, "Margherita Pizza", mock.Anything).Return("https://example.com/pizza.jpg", nil)
		st := store.NewMemoryStore()

		processor := NewMenuProcessor(parser, resolver, st)
		events := drain(processor.ProcessStream(context.Background(), types.MenuInput{Text: "menu"}))

		assert.Equal(t, []types.EventType{
			types.EventStatus,
			types.EventStatus,
			types.EventParsed,
			types.EventProcessing, types.EventItemComplete,
			types.EventProcessing, types.EventItemError,
			types.EventProcessing, types.EventItemComplete,
			types.EventComplete,
		}, eventTypes(events))

		itemErr := events[6].Payload.(types.ItemErrorPayload)
		assert.Equal(t, "Caesar Salad", itemErr.Item)
		assert.Equal(t, 2, itemErr.Current)
		assert.Equal(t, 3, itemErr.Total)

		complete := events[len(events)-1].Payload.(types.CompletePayload)
		assert.Len(t, complete.MenuItems, 2)

		// The failed item was never persisted; the others remain valid.
		all, err := st.ListAllItems(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Grilled Salmon", all[0].Name)
		assert.Equal(t, "Margherita Pizza", all[1].Name)
	})

	t.Run("should end with a single error event when parsing fails", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(nil, errors.New("vision unavailable"))
		processor := NewMenuProcessor(parser, &mockResolver{}, store.NewMemoryStore())

		events := drain(processor.ProcessStream(context.Background(), types.MenuInput{ImageData: []byte{0x01}, MimeType: "image/png"}))

		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, types.EventError, last.Type)
		for _, ev := range events[:len(events)-1] {
			assert.NotEqual(t, types.EventComplete, ev.Type)
			assert.NotEqual(t, types.EventError, ev.Type)
		}
	})

	t.Run("should emit the no-items error for metadata-only menus", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return([]types.MenuCandidate{}, nil)
		processor := NewMenuProcessor(parser, &mockResolver{}, store.NewMemoryStore())

		events := drain(processor.ProcessStream(context.Background(), types.MenuInput{Text: "$4.50"}))

		last := events[len(events)-1]
		require.Equal(t, types.EventError, last.Type)
		assert.Contains(t, last.Payload.(types.ErrorPayload).Message, "no valid food items")
	})

	t.Run("cancellation closes the stream without a terminal event", func(t *testing.T) {
		parser := &mockParser{}
		parser.On("Parse", mock.Anything, mock.Anything).Return(threeCandidates(), nil)
		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return("https://example.com/food.jpg", nil)

		ctx, cancel := context.WithCancel(context.Background())
		processor := NewMenuProcessor(parser, resolver, store.NewMemoryStore())
		ch := processor.ProcessStream(ctx, types.MenuInput{Text: "menu"})

		// Read the first event, then walk away.
		first := <-ch
		assert.Equal(t, types.EventStatus, first.Type)
		cancel()

		for ev := range ch {
			assert.NotEqual(t, types.EventComplete, ev.Type)
			assert.NotEqual(t, types.EventError, ev.Type)
		}
	})
}
