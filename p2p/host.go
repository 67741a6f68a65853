package p2p

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// HostConfig holds configuration for creating a libp2p host.
type HostConfig struct {
	PrivateKey  crypto.PrivKey
	ListenAddrs []string
}

// NewHost creates a new libp2p host with the given configuration.
func NewHost(ctx context.Context, cfg HostConfig) (host.Host, error) {
	privKey := cfg.PrivateKey
	if privKey == nil {
		var err error
		privKey, err = generateKey()
		if err != nil {
			return nil, err
		}
	}

	listenAddrs := cfg.ListenAddrs
	if len(listenAddrs) == 0 {
		listenAddrs = []string{
			"/ip4/0.0.0.0/tcp/9000",
			"/ip4/0.0.0.0/udp/9000/quic-v1",
		}
	}

	h, err := libp2p.New(
		libp2p.Identity(privKey),
		libp2p.ListenAddrStrings(listenAddrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("create host: %w", err)
	}

	return h, nil
}

func generateKey() (crypto.PrivKey, error) {
	privKey, _, err := crypto.GenerateKeyPairWithReader(crypto.Secp256k1, 256, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return privKey, nil
}

// LoadOrCreateKey reads the node identity from path, creating and saving a
// fresh secp256k1 key when the file does not exist yet.
func LoadOrCreateKey(path string) (crypto.PrivKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		key, err := crypto.UnmarshalPrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("decode node key %s: %w", path, err)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read node key: %w", err)
	}

	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	raw, err = crypto.MarshalPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode node key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("write node key: %w", err)
	}
	return key, nil
}

// ParseBootnodes parses bootnodes given as ENRs or /p2p multiaddrs.
func ParseBootnodes(addrs []string) ([]peer.AddrInfo, error) {
	var peers []peer.AddrInfo
	for _, addr := range addrs {
		if isENR(addr) {
			pi, err := ENRToAddrInfo(addr)
			if err != nil {
				return nil, err
			}
			peers = append(peers, *pi)
			continue
		}
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse multiaddr %s: %w", addr, err)
		}
		pi, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return nil, fmt.Errorf("parse peer info %s: %w", addr, err)
		}
		peers = append(peers, *pi)
	}
	return peers, nil
}
