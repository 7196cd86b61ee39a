package bot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"argus/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// SignalImageSource resolves the rendered chart for a stored signal, when
// one exists.
type SignalImageSource interface {
	GetSignalImage(ctx context.Context, signalID int64) (*domain.SignalImageData, error)
}

// AlertDispatcher broadcasts newly-detected signals to subscribed chats,
// attaching the rendered chart where one is available.
type AlertDispatcher struct {
	sender messageSender
	images SignalImageSource

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

func NewAlertDispatcher(sender messageSender, images SignalImageSource) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		images:      images,
		subscribers: make(map[int64]struct{}),
	}
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; exists {
		return false
	}
	d.subscribers[chatID] = struct{}{}
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// BroadcastSignals lets the dispatcher sit on the detection fan-out next to
// the websocket hub. Errors are logged, never propagated to the caller.
func (d *AlertDispatcher) BroadcastSignals(signals []domain.Signal) {
	if d == nil {
		return
	}
	if err := d.NotifySignals(context.Background(), signals); err != nil {
		log.Printf("alert dispatch: %v", err)
	}
}

func (d *AlertDispatcher) NotifySignals(ctx context.Context, signals []domain.Signal) error {
	if d == nil || d.sender == nil || len(signals) == 0 {
		return nil
	}

	chatIDs := d.snapshotSubscribers()
	if len(chatIDs) == 0 {
		return nil
	}

	// Resolve each signal's chart once; the bytes are reused per chat.
	imageBySignal := make(map[int64][]byte, len(signals))
	if d.images != nil {
		for _, s := range signals {
			if s.ID <= 0 {
				continue
			}
			imageData, err := d.images.GetSignalImage(ctx, s.ID)
			if err != nil || imageData == nil || len(imageData.Bytes) == 0 {
				continue
			}
			imageBySignal[s.ID] = imageData.Bytes
		}
	}

	var failures []string
	for _, chatID := range chatIDs {
		recipient := &tele.Chat{ID: chatID}
		var plain []domain.Signal

		for _, s := range signals {
			raw, ok := imageBySignal[s.ID]
			if !ok {
				plain = append(plain, s)
				continue
			}
			photo := &tele.Photo{
				File:    tele.FromReader(bytes.NewReader(raw)),
				Caption: formatSignal(s),
			}
			if _, err := d.sender.Send(recipient, photo); err != nil {
				failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
			}
		}

		if len(plain) > 0 {
			if _, err := d.sender.Send(recipient, formatAlertMessage(plain)); err != nil {
				failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
			}
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func (d *AlertDispatcher) snapshotSubscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chatIDs := make([]int64, 0, len(d.subscribers))
	for chatID := range d.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

func formatAlertMessage(signals []domain.Signal) string {
	lines := make([]string, 0, len(signals)+1)
	lines = append(lines, "Proactive signal alert:")
	for _, s := range signals {
		lines = append(lines, formatSignal(s))
	}
	return strings.Join(lines, "\n")
}
