package events

import (
	"context"
	"testing"
	"time"
)

func TestKafkaPublisher_FlushesWithoutBatchDelay(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "storefront.events")
	defer p.Close()
	if p.writer.BatchTimeout > 50*time.Millisecond || p.writer.BatchSize != 1 {
		t.Fatalf("writer would hold events: timeout %s size %d", p.writer.BatchTimeout, p.writer.BatchSize)
	}
}

func TestNew_NoBrokersIsNop(t *testing.T) {
	p := New(nil, "storefront.events")
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", p)
	}
	if err := p.Publish(context.Background(), "k", TypeCartChanged, CartChanged{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
