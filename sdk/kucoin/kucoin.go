package kucoin

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"

	"github.com/mkrill/depthwatch/pkg/http"
)

const (
	bulletPath = "/api/v1/bullet-public"
	depthPath  = "/api/v1/level2/depth20"
)

var (
	ErrNoEndpoint = errors.New("kucoin: websocket endpoint not found in bullet response")
	ErrNoToken    = errors.New("kucoin: websocket token not found in bullet response")
)

type KuCoin struct {
	base string
}

func New(e env) *KuCoin {
	return &KuCoin{base: envs[e].http}
}

// NewWithBase points the client at a non-default REST base URL.
func NewWithBase(base string) *KuCoin {
	return &KuCoin{base: base}
}

func (k *KuCoin) HTTP() string {
	return k.base
}

func (k *KuCoin) client() *http.HTTP {
	h := http.New(k.base)
	h.SetHeader(nethttp.Header{"Accept": []string{"application/json"}})
	return h
}

type InstanceServer struct {
	Endpoint     string `json:"endpoint"`
	Protocol     string `json:"protocol"`
	Encrypt      bool   `json:"encrypt"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// BulletResponse carries the ephemeral credential for one websocket
// connection: a short-lived token plus the endpoint to present it to.
type BulletResponse struct {
	Code string `json:"code"`
	Data struct {
		Token           string           `json:"token"`
		InstanceServers []InstanceServer `json:"instanceServers"`
	} `json:"data"`
}

func (r *BulletResponse) Endpoint() (string, error) {
	if len(r.Data.InstanceServers) == 0 || r.Data.InstanceServers[0].Endpoint == "" {
		return "", ErrNoEndpoint
	}
	return r.Data.InstanceServers[0].Endpoint, nil
}

func (r *BulletResponse) Token() (string, error) {
	if r.Data.Token == "" {
		return "", ErrNoToken
	}
	return r.Data.Token, nil
}

// WSURL assembles the connection URL from an ephemeral credential.
func WSURL(endpoint, token string) string {
	return endpoint + "?token=" + token
}

// FetchBullet requests a fresh connection credential. The credential is
// valid for a single connection attempt and is not retained.
func (k *KuCoin) FetchBullet(ctx context.Context) (*BulletResponse, error) {
	res := &BulletResponse{}
	status, err := k.client().Request(ctx, nethttp.MethodPost, bulletPath, nil, res)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, fmt.Errorf("kucoin: bullet request returned status %d", status)
	}

	return res, nil
}

type DepthSnapshot struct {
	Code string    `json:"code"`
	Data DepthData `json:"data"`
}

// GetDepth fetches one full depth snapshot over REST, outside the
// streaming path.
func (k *KuCoin) GetDepth(ctx context.Context, symbol string) (*DepthSnapshot, error) {
	res := &DepthSnapshot{}
	status, err := k.client().Request(ctx, nethttp.MethodGet, depthPath+"?symbol="+symbol, nil, res)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, fmt.Errorf("kucoin: depth request returned status %d", status)
	}

	return res, nil
}
