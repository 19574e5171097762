package presence

import "context"

// Watch turns a subscription into a latest-wins mailbox: the returned channel
// holds at most one value and a newer value replaces one not yet received.
// The subscription ends when ctx is done; the channel is never closed, so
// receivers must also select on ctx.Done().
func Watch(ctx context.Context, s Store, path string) (<-chan any, error) {
	box := make(chan any, 1)
	offer := func(v any) {
		select {
		case box <- v:
			return
		default:
		}
		select {
		case <-box:
		default:
		}
		// Deliveries for one subscription are serialized, so this cannot block.
		box <- v
	}
	if _, err := s.Subscribe(ctx, path, offer); err != nil {
		return nil, err
	}
	return box, nil
}
