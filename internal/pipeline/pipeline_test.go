package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mkrill/depthwatch/internal/types"
	"github.com/mkrill/depthwatch/pkg/orderbook"
	"github.com/mkrill/depthwatch/sdk/kucoin"
)

func newTestPipeline(venue *kucoin.KuCoin) (*Pipeline, *bytes.Buffer) {
	p := New(venue, orderbook.New("ETHUSDTM"), "ETHUSDTM", zerolog.Nop())
	buf := &bytes.Buffer{}
	p.out = buf
	return p, buf
}

func TestHandleFrameAppliesSnapshot(t *testing.T) {
	p, buf := newTestPipeline(nil)

	p.handleFrame([]byte(`{"type":"message","data":{"bids":[["100.0","2"],["99.5","1"]],"asks":[["100.5","3"]]}}`))

	bids := p.book.Levels(types.Side__BID)
	if len(bids) != 2 || bids[0].Price() != 99.5 || bids[0].Size() != 1 || bids[1].Price() != 100.0 || bids[1].Size() != 2 {
		t.Fatalf("unexpected bids after snapshot: %+v", bids)
	}
	asks := p.book.Levels(types.Side__ASK)
	if len(asks) != 1 || asks[0].Price() != 100.5 || asks[0].Size() != 3 {
		t.Fatalf("unexpected asks after snapshot: %+v", asks)
	}

	out := buf.String()
	bidIdx := strings.Index(out, "Bids")
	askIdx := strings.Index(out, "Asks")
	if bidIdx == -1 || askIdx == -1 || askIdx < bidIdx {
		t.Fatalf("render must list bids before asks:\n%s", out)
	}
}

func TestHandleFrameIgnoresOtherTypes(t *testing.T) {
	p, buf := newTestPipeline(nil)
	p.book.Replace([]types.Entry{{Price: 100.0, Size: 2}}, nil)

	for _, frame := range []string{
		`{"id":"1","type":"ack"}`,
		`{"id":"1","type":"welcome"}`,
		`{"type":"pong"}`,
		`{"type":"message?","data":{"bids":[["1","1"]]}}`,
	} {
		p.handleFrame([]byte(frame))
	}

	if got := p.book.Depth(types.Side__BID); got != 1 {
		t.Fatalf("non-message frames must not alter the book, bid depth %d", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("non-message frames must not render:\n%s", buf.String())
	}
}

func TestHandleFrameDropsMalformed(t *testing.T) {
	p, buf := newTestPipeline(nil)
	p.book.Replace([]types.Entry{{Price: 100.0, Size: 2}}, nil)

	p.handleFrame([]byte(`not json at all`))
	p.handleFrame([]byte(`{"type":"message","data":"notanobject"}`))

	if got := p.book.Depth(types.Side__BID); got != 1 {
		t.Fatalf("malformed frames must be dropped, bid depth %d", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("malformed frames must not render:\n%s", buf.String())
	}
}

func TestHandleFrameWrongTypedSideClears(t *testing.T) {
	p, buf := newTestPipeline(nil)
	p.book.Replace([]types.Entry{{Price: 100.0, Size: 2}}, nil)

	// a side that is not an array behaves like an absent side: the
	// snapshot still applies and clears it
	p.handleFrame([]byte(`{"type":"message","data":{"bids":"notanarray","asks":[["100.5","3"]]}}`))

	if got := p.book.Depth(types.Side__BID); got != 0 {
		t.Fatalf("wrong-typed bids must clear the bid side, depth %d", got)
	}
	asks := p.book.Levels(types.Side__ASK)
	if len(asks) != 1 || asks[0].Price() != 100.5 || asks[0].Size() != 3 {
		t.Fatalf("unexpected asks: %+v", asks)
	}
	if buf.Len() == 0 {
		t.Fatal("applied snapshot must render")
	}
}

func TestHandleFrameMissingSideStillReplaces(t *testing.T) {
	p, _ := newTestPipeline(nil)
	p.book.Replace(
		[]types.Entry{{Price: 100.0, Size: 2}},
		[]types.Entry{{Price: 101.0, Size: 1}},
	)

	p.handleFrame([]byte(`{"type":"message","data":{"asks":[["100.5","3"]]}}`))

	if got := p.book.Depth(types.Side__BID); got != 0 {
		t.Fatalf("a snapshot without bids must clear the bid side, depth %d", got)
	}
	asks := p.book.Levels(types.Side__ASK)
	if len(asks) != 1 || asks[0].Price() != 100.5 {
		t.Fatalf("unexpected asks: %+v", asks)
	}
}

func TestHandleFrameEnforcesDepthBound(t *testing.T) {
	p, _ := newTestPipeline(nil)

	p.handleFrame([]byte(`{"type":"message","data":{"bids":[["7","1"],["6","1"],["5","1"],["4","1"],["3","1"],["2","1"],["1","1"]]}}`))

	if got := p.book.Depth(types.Side__BID); got != kucoin.Depth {
		t.Fatalf("pipeline must cap each side at %d levels, got %d", kucoin.Depth, got)
	}
}

func TestRunFatalWhenTokenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"200000","data":{"instanceServers":[{"endpoint":"wss://example.invalid/"}]}}`))
	}))
	defer srv.Close()

	p, _ := newTestPipeline(kucoin.NewWithBase(srv.URL))
	reason, err := p.Run(context.Background())

	if reason != ReasonError {
		t.Fatalf("expected ReasonError, got %v", reason)
	}
	if !errors.Is(err, kucoin.ErrNoToken) {
		t.Fatalf("expected ErrNoToken before any connect attempt, got %v", err)
	}
	if p.State() != StateTerminated {
		t.Fatalf("expected terminated state, got %v", p.State())
	}
}

func TestRunFatalWhenCredentialFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, _ := newTestPipeline(kucoin.NewWithBase(srv.URL))
	reason, err := p.Run(context.Background())

	if reason != ReasonError || err == nil {
		t.Fatalf("expected fatal credential error, got reason=%v err=%v", reason, err)
	}
}
