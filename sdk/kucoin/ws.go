package kucoin

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/mkrill/depthwatch/internal/types"
)

type Response[T any] struct {
	Id      string `json:"id,omitempty"`
	Type    Type   `json:"type,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Subject string `json:"subject,omitempty"`
	Data    T      `json:"data,omitempty"`
}

type Request struct {
	Id       string `json:"id"`
	Type     Type   `json:"type"`
	Topic    string `json:"topic"`
	Response bool   `json:"response"`
}

func (r *Request) Pack() []byte {
	b, _ := json.Marshal(r)
	return b
}

// SubscribeDepth builds the subscription request for the top-5 depth
// ladder of one symbol. id correlates the request to its ack.
func SubscribeDepth(id string, symbol string) *Request {
	return &Request{
		Id:       id,
		Type:     TypeSubscribe,
		Topic:    string(TopicLevel2Depth5.WithArg(symbol)),
		Response: true,
	}
}

// DepthData is the payload of one snapshot message. Entries are kept
// raw because the feed encodes prices and sizes either as JSON numbers
// or as numeric strings.
type DepthData struct {
	Bids [][2]json.RawMessage `json:"bids"`
	Asks [][2]json.RawMessage `json:"asks"`
}

// UnmarshalJSON decodes each side independently. A side that is absent
// or not an array of pairs yields an empty sequence rather than failing
// the payload, so one side never gates replacement of the other.
func (d *DepthData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bids json.RawMessage `json:"bids"`
		Asks json.RawMessage `json:"asks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Bids = decodeSide(raw.Bids)
	d.Asks = decodeSide(raw.Asks)
	return nil
}

func decodeSide(raw json.RawMessage) [][2]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var entries [][2]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

// BidLevels extracts up to max bid entries. A missing bids field yields
// an empty slice, not an error.
func (d *DepthData) BidLevels(max int) []types.Entry {
	return extractLevels(d.Bids, max)
}

func (d *DepthData) AskLevels(max int) []types.Entry {
	return extractLevels(d.Asks, max)
}

func extractLevels(entries [][2]json.RawMessage, max int) []types.Entry {
	if len(entries) > max {
		entries = entries[:max]
	}

	out := make([]types.Entry, 0, len(entries))
	for _, e := range entries {
		price, size := ParseLevel(e)
		out = append(out, types.Entry{Price: price, Size: size})
	}

	return out
}

// ParseLevel interprets one [price, size] entry. Numeric interpretation
// is attempted first, then string-to-number parsing; a value that is
// neither degrades to zero rather than failing the whole update.
func ParseLevel(raw [2]json.RawMessage) (float64, int64) {
	return parsePrice(raw[0]), parseSize(raw[1])
}

func parsePrice(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0.0
}

func parseSize(raw json.RawMessage) int64 {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

const (
	typeFieldName = "type"
	dataFieldName = "data"
)

type typeOnlyResponse struct {
	Type Type `json:"type,omitempty"`
}

// GetType extracts the frame discriminator without decoding the whole
// payload. Falls back to a full unmarshal when the fast path bails out.
func GetType(data []byte, value *Type) {
	if exitEarly := decodeType(data, value); exitEarly {
		r := &typeOnlyResponse{}
		if err := json.Unmarshal(data, &r); err != nil {
			return
		}

		*value = r.Type
	}
}

func decodeType(data []byte, value *Type) bool {
	decoder := json.NewDecoder(bytes.NewReader(data))
	for decoder.More() {
		t, err := decoder.Token()
		if err != nil {
			return false
		}
		if key, ok := t.(string); ok {
			if key == dataFieldName {
				return true
			}
			if key == typeFieldName {
				if !decoder.More() {
					return false
				}
				var s string
				if err := decoder.Decode(&s); err != nil {
					return false
				}
				*value = Type(s)
				return false
			}
		}
	}

	return false
}
