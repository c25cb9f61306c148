package kucoin

type env uint

const (
	Futures env = iota
)

type envConfig struct {
	http string
}

var envs = map[env]envConfig{
	Futures: {
		http: "https://api-futures.kucoin.com",
	},
}
