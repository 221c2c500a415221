package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (f *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs = append(f.docs, d.(LogDocument))
	}
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeCollection) snapshot() []LogDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LogDocument(nil), f.docs...)
}

func TestNewProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production")
	l.Debug("hidden")
	l.Info("shown", "product_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"product_id":7`)
}

func TestNewLocalIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "local").Debug("visible", "k", "v")

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "k=v")
}

func TestWithCtx(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	var buf bytes.Buffer
	reqLog := New(&buf, "local").With("request_id", "abc")
	ctx := InjectLogger(context.Background(), reqLog)

	WithCtx(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=abc")
}

func TestMongoHandlerFlushesOnClose(t *testing.T) {
	col := &fakeCollection{}
	h := newMongoHandler(col, "productd", slog.LevelInfo)

	l := slog.New(h).With("request_id", "rid-1")
	l.Debug("ignored")
	l.Info("product created", "product_id", 3)
	l.WithGroup("db").Warn("slow query", "ms", 120)

	h.Close()
	h.Close()

	docs := col.snapshot()
	require.Len(t, docs, 2)

	assert.Equal(t, "product created", docs[0].Msg)
	assert.Equal(t, "rid-1", docs[0].RequestID)
	assert.Equal(t, "productd", docs[0].Service)
	assert.EqualValues(t, 3, docs[0].Attrs["product_id"])

	assert.Equal(t, "WARN", docs[1].Level)
	assert.EqualValues(t, 120, docs[1].Attrs["db.ms"])
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	l := slog.New(h)

	l.Info("info line")
	l.Warn("warn line")

	assert.Contains(t, a.String(), "info line")
	assert.Contains(t, a.String(), "warn line")
	assert.NotContains(t, b.String(), "info line")
	assert.Contains(t, b.String(), "warn line")
}
