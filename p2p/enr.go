package p2p

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/p2p/enr"
	libp2p_crypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// ENRToAddrInfo parses an ENR string and returns a libp2p AddrInfo with a QUIC multiaddr.
func ENRToAddrInfo(enrStr string) (*peer.AddrInfo, error) {
	node, err := enode.Parse(enode.ValidSchemes, enrStr)
	if err != nil {
		return nil, fmt.Errorf("parse enr: %w", err)
	}

	ip := node.IP()
	if ip == nil {
		return nil, fmt.Errorf("enr has no IP")
	}

	var quicPort enr.QUIC
	if err := node.Record().Load(&quicPort); err != nil {
		return nil, fmt.Errorf("enr has no quic port: %w", err)
	}

	pubkey := node.Pubkey()
	if pubkey == nil {
		return nil, fmt.Errorf("enr has no public key")
	}
	libp2pKey, err := libp2p_crypto.UnmarshalSecp256k1PublicKey(crypto.CompressPubkey(pubkey))
	if err != nil {
		return nil, fmt.Errorf("convert pubkey: %w", err)
	}
	pid, err := peer.IDFromPublicKey(libp2pKey)
	if err != nil {
		return nil, fmt.Errorf("derive peer id: %w", err)
	}

	addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/%s/udp/%d/quic-v1", ip, quicPort))
	if err != nil {
		return nil, fmt.Errorf("build multiaddr: %w", err)
	}

	return &peer.AddrInfo{ID: pid, Addrs: []ma.Multiaddr{addr}}, nil
}

func isENR(s string) bool {
	return strings.HasPrefix(s, "enr:")
}
