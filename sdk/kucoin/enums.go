package kucoin

// Type discriminates every frame the server sends or the client writes.
type Type string

const (
	TypeWelcome     Type = "welcome"
	TypeAck         Type = "ack"
	TypePing        Type = "ping"
	TypePong        Type = "pong"
	TypeSubscribe   Type = "subscribe"
	TypeUnsubscribe Type = "unsubscribe"
	TypeMessage     Type = "message"
)

type Topic string

const topicSeparator = ":"

func (t Topic) WithArg(p string) Topic {
	return Topic(string(t) + topicSeparator + p)
}

const (
	TopicLevel2Depth5 Topic = "/contractMarket/level2Depth5"
)

// Depth is the number of price levels per side carried by the
// TopicLevel2Depth5 snapshot feed.
const Depth = 5
