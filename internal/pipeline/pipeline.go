package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lxzan/gws"

	"github.com/mkrill/depthwatch/internal/interfaces"
	"github.com/mkrill/depthwatch/internal/log"
	"github.com/mkrill/depthwatch/sdk/kucoin"
)

type State uint8

const (
	StateInit State = iota
	StateCredentialFetched
	StateConnected
	StateSubscribed
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCredentialFetched:
		return "credential_fetched"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason records how a run ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonClosed
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonClosed:
		return "closed"
	case ReasonError:
		return "error"
	default:
		return "none"
	}
}

// Pipeline turns the venue's snapshot feed into a sequence of atomic
// book replacements. It exclusively owns the book for its whole run;
// no other goroutine touches it, so no locking is needed.
type Pipeline struct {
	venue  *kucoin.KuCoin
	book   interfaces.Orderbook
	symbol string
	out    io.Writer
	logger log.Logger
	state  State
}

func New(venue *kucoin.KuCoin, book interfaces.Orderbook, symbol string, logger log.Logger) *Pipeline {
	return &Pipeline{
		venue:  venue,
		book:   book,
		symbol: symbol,
		out:    os.Stdout,
		logger: logger,
	}
}

// Run drives the state machine from credential fetch to termination.
// Every failure before streaming is fatal; once streaming, only a close
// frame, a transport error or ctx cancellation ends the loop. There is
// no reconnect at this layer.
func (p *Pipeline) Run(ctx context.Context) (Reason, error) {
	bullet, err := p.venue.FetchBullet(ctx)
	if err != nil {
		return p.fail(fmt.Errorf("fetch websocket credential: %w", err))
	}
	p.transition(StateCredentialFetched)

	endpoint, err := bullet.Endpoint()
	if err != nil {
		return p.fail(err)
	}
	token, err := bullet.Token()
	if err != nil {
		return p.fail(err)
	}

	handler := newSocketHandler()
	socket, _, err := gws.NewClient(handler, &gws.ClientOption{
		Addr: kucoin.WSURL(endpoint, token),
		PermessageDeflate: gws.PermessageDeflate{
			Enabled:               true,
			ServerContextTakeover: true,
			ClientContextTakeover: true,
		},
	})
	if err != nil {
		return p.fail(fmt.Errorf("open websocket: %w", err))
	}
	go socket.ReadLoop()
	p.transition(StateConnected)

	sub := kucoin.SubscribeDepth(uuid.NewString(), p.symbol)
	if err := socket.WriteMessage(gws.OpcodeText, sub.Pack()); err != nil {
		return p.fail(fmt.Errorf("send subscription request: %w", err))
	}

	// One response frame is required before streaming; its content is
	// not inspected.
	select {
	case <-handler.frames:
	case err := <-handler.closed:
		if err == nil {
			err = errors.New("connection closed")
		}
		return p.fail(fmt.Errorf("websocket closed before subscription response: %w", err))
	case <-ctx.Done():
		socket.WriteClose(1000, nil)
		return p.fail(ctx.Err())
	}
	p.transition(StateSubscribed)
	p.transition(StateStreaming)

	for {
		select {
		case frame := <-handler.frames:
			p.handleFrame(frame)
		case err := <-handler.closed:
			p.transition(StateTerminated)
			var closeErr *gws.CloseError
			if err == nil || errors.As(err, &closeErr) {
				p.logger.Info().Err(err).Msg("websocket closed by server")
				return ReasonClosed, nil
			}
			return ReasonError, fmt.Errorf("websocket: %w", err)
		case <-ctx.Done():
			socket.WriteClose(1000, nil)
			p.transition(StateTerminated)
			return ReasonClosed, ctx.Err()
		}
	}
}

// handleFrame classifies one inbound text frame and, for snapshot
// messages, replaces and renders the book. Everything else (acks,
// pongs, unrelated pushes, frames that do not parse) is dropped and
// the stream continues.
func (p *Pipeline) handleFrame(frame []byte) {
	var kind kucoin.Type
	kucoin.GetType(frame, &kind)
	if kind != kucoin.TypeMessage {
		return
	}

	response := &kucoin.Response[*kucoin.DepthData]{}
	if err := json.Unmarshal(frame, response); err != nil {
		p.logger.Debug().Err(err).Msg("dropping malformed frame")
		return
	}
	if response.Data == nil {
		response.Data = &kucoin.DepthData{}
	}

	// A side missing from the payload still replaces that side with
	// empty: one side's presence does not gate the other.
	p.book.Replace(
		response.Data.BidLevels(kucoin.Depth),
		response.Data.AskLevels(kucoin.Depth),
	)
	if err := p.book.Render(p.out); err != nil {
		p.logger.Warn().Err(err).Msg("render failed")
	}
}

func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) transition(next State) {
	p.logger.Debug().Stringer("from", p.state).Stringer("to", next).Msg("pipeline transition")
	p.state = next
}

func (p *Pipeline) fail(err error) (Reason, error) {
	p.transition(StateTerminated)
	return ReasonError, err
}

type socketHandler struct {
	frames chan []byte
	closed chan error
}

func newSocketHandler() *socketHandler {
	return &socketHandler{
		frames: make(chan []byte, 1024),
		closed: make(chan error, 1),
	}
}

func (h *socketHandler) OnOpen(socket *gws.Conn) {
}

func (h *socketHandler) OnClose(socket *gws.Conn, err error) {
	select {
	case h.closed <- err:
	default:
	}
}

func (h *socketHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (h *socketHandler) OnPong(socket *gws.Conn, payload []byte) {
}

func (h *socketHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	// the message buffer is pooled, copy before handing off
	frame := make([]byte, len(message.Bytes()))
	copy(frame, message.Bytes())
	h.frames <- frame
}
