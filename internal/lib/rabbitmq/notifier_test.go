package rabbitmq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
)

type recordingPublisher struct {
	mu    sync.Mutex
	keys  []string
	err   error
	block bool
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func TestNotifier_PublishesInBackground(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, time.Second, discardLogger(), nil)

	n.Notify(RoutingReminder, map[string]string{"id": "d1"})
	n.Notify(RoutingPickupBooked, map[string]string{"id": "d2"})
	n.Wait()

	assert.ElementsMatch(t, []string{RoutingReminder, RoutingPickupBooked}, pub.keys)
}

func TestNotifier_CountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	n := NewNotifier(&recordingPublisher{err: errors.New("channel closed")}, time.Second, discardLogger(), m)
	n.Notify(RoutingReminder, struct{}{})

	timedOut := NewNotifier(&recordingPublisher{block: true}, 10*time.Millisecond, discardLogger(), m)
	timedOut.Notify(RoutingReminder, struct{}{})

	n.Wait()
	timedOut.Wait()

	expected := `
# HELP ewa_event_publish_failures_total Events that could not be published to the broker.
# TYPE ewa_event_publish_failures_total counter
ewa_event_publish_failures_total{routing_key="reminder"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ewa_event_publish_failures_total"))
}
