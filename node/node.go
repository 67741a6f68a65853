// Package node wires fork choice to storage, gossip, request/response and the
// slot clock.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geanlabs/lmdghost/clock"
	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/forkchoice"
	"github.com/geanlabs/lmdghost/p2p"
	"github.com/geanlabs/lmdghost/p2p/reqresp"
	"github.com/geanlabs/lmdghost/storage"
	"github.com/geanlabs/lmdghost/storage/memory"
	"github.com/geanlabs/lmdghost/storage/pebble"
	"github.com/geanlabs/lmdghost/types"
)

const (
	reqrespTimeout = 30 * time.Second
	maxSyncRetries = 3
	baseRetryDelay = 1 * time.Second
)

// Config holds node configuration.
type Config struct {
	Node      config.NodeConfig
	Bootnodes []string
	Logger    *slog.Logger
}

// Node runs a fork choice participant: it imports gossiped blocks, fetches
// missing parents, applies votes and updates the head every slot.
type Node struct {
	config config.NodeConfig
	logger *slog.Logger

	clock   *clock.SlotClock
	chain   *Chain
	store   storage.Store
	host    host.Host
	net     *p2p.Service
	streams *reqresp.StreamHandler
	reqresp *reqresp.Handler
	metrics *http.Server

	inflightMu sync.Mutex
	inflight   map[types.Root]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a node: opens storage, rebuilds fork choice from it and sets up
// networking. Nothing runs until Start.
func New(ctx context.Context, cfg Config) (*Node, error) {
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nc := cfg.Node

	n := &Node{
		config:   nc,
		logger:   logger,
		clock:    clock.New(nc.GenesisTime, nc.Chain),
		inflight: make(map[types.Root]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	fail := func(err error) (*Node, error) {
		n.close()
		cancel()
		return nil, err
	}

	store, err := openStore(nc.DataDir)
	if err != nil {
		return fail(err)
	}
	n.store = store

	fc := forkchoice.New(forkchoice.Config{
		Chain:  nc.Chain,
		Clock:  n.clock,
		Logger: logger.With("module", "forkchoice"),
	})
	n.chain, err = NewChain(ChainConfig{
		Chain:      nc.Chain,
		ForkChoice: fc,
		Store:      store,
		Logger:     logger.With("module", "chain"),
	})
	if err != nil {
		return fail(err)
	}
	if _, err := n.chain.Replay(); err != nil {
		return fail(fmt.Errorf("replay storage: %w", err))
	}
	if fc.NodeCount() == 0 {
		genesis, root, err := types.GenesisBlock(nc.GenesisTime)
		if err != nil {
			return fail(fmt.Errorf("build genesis block: %w", err))
		}
		if _, err := n.chain.ImportBlock(genesis); err != nil {
			return fail(fmt.Errorf("import genesis block: %w", err))
		}
		logger.Info("started from genesis", "root", root.Short())
	}

	hostCfg := p2p.HostConfig{ListenAddrs: nc.ListenAddrs}
	if nc.DataDir != "" {
		hostCfg.PrivateKey, err = p2p.LoadOrCreateKey(filepath.Join(nc.DataDir, "node.key"))
		if err != nil {
			return fail(err)
		}
	}
	n.host, err = p2p.NewHost(ctx, hostCfg)
	if err != nil {
		return fail(err)
	}

	bootnodes, err := p2p.ParseBootnodes(cfg.Bootnodes)
	if err != nil {
		return fail(fmt.Errorf("parse bootnodes: %w", err))
	}

	n.reqresp = reqresp.NewHandler(fc, store)
	n.streams = reqresp.NewStreamHandler(n.host, n.reqresp, logger.With("module", "reqresp"))
	n.streams.RegisterProtocols()

	n.net, err = p2p.NewService(ctx, p2p.ServiceConfig{
		Host:    n.host,
		Network: nc.Network,
		Chain:   nc.Chain,
		Handlers: &p2p.MessageHandlers{
			OnBlock: n.handleBlock,
			OnVote:  n.handleVote,
			Logger:  logger,
		},
		Bootnodes: bootnodes,
		Logger:    logger.With("module", "p2p"),
	})
	if err != nil {
		return fail(fmt.Errorf("create p2p service: %w", err))
	}

	if nc.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		n.metrics = &http.Server{Addr: nc.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	return n, nil
}

func openStore(dataDir string) (storage.Store, error) {
	if dataDir == "" {
		return memory.New(), nil
	}
	s, err := pebble.Open(filepath.Join(dataDir, "chain"))
	if err != nil {
		return nil, fmt.Errorf("open block store: %w", err)
	}
	return s, nil
}

// Start begins node operation.
func (n *Node) Start() {
	n.net.Start()
	n.host.Network().Notify(&connectionNotifier{node: n})
	for _, pid := range n.host.Network().Peers() {
		n.goStatusExchange(pid)
	}

	if n.metrics != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.logger.Info("serving metrics", "addr", n.metrics.Addr)
			if err := n.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				n.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	n.wg.Add(1)
	go n.slotTicker()

	n.logger.Info("node started",
		"network", n.config.Network,
		"genesis_time", n.config.GenesisTime,
		"peer_id", n.host.ID(),
		"blocks", n.chain.ForkChoice().NodeCount(),
	)
}

// Stop gracefully shuts down the node.
func (n *Node) Stop() {
	n.cancel()
	if n.metrics != nil {
		_ = n.metrics.Shutdown(context.Background())
	}
	n.net.Stop()
	n.wg.Wait()
	n.close()
	n.logger.Info("node stopped")
}

func (n *Node) close() {
	if n.host != nil {
		n.host.Close()
	}
	if n.store != nil {
		if err := n.store.Close(); err != nil {
			n.logger.Warn("close block store", "error", err)
		}
	}
}

// CurrentSlot returns the current slot.
func (n *Node) CurrentSlot() types.Slot {
	return n.clock.CurrentSlot()
}

// PeerCount returns the number of connected peers.
func (n *Node) PeerCount() int {
	return n.net.PeerCount()
}

func (n *Node) slotTicker() {
	defer n.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastSlot := types.Slot(0)
	started := false
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			if n.clock.IsBeforeGenesis() {
				continue
			}
			slot := n.clock.CurrentSlot()
			if started && slot == lastSlot {
				continue
			}
			started, lastSlot = true, slot
			n.onSlot(slot)
		}
	}
}

func (n *Node) onSlot(slot types.Slot) {
	peerCount.Set(float64(n.PeerCount()))
	if _, err := n.chain.OnSlot(slot); err != nil {
		n.logger.Debug("no head yet", "slot", slot, "peers", n.PeerCount(), "error", err)
	}
}

func (n *Node) handleBlock(ctx context.Context, from peer.ID, block *types.BlockInfo) error {
	res, err := n.chain.ImportBlock(block)
	if err != nil {
		return err
	}
	if res.Stale {
		n.logger.Debug("dropped stale block",
			"slot", block.Header.Slot,
			"root", res.Root.Short(),
			"peer", from,
		)
		return nil
	}
	if res.MissingParent {
		n.logger.Debug("parent unknown, requesting",
			"slot", block.Header.Slot,
			"root", res.Root.Short(),
			"parent", res.Parent.Short(),
			"peer", from,
		)
		n.goFetchBlock(from, res.Parent)
	}
	return nil
}

func (n *Node) handleVote(ctx context.Context, from peer.ID, vote *types.Vote) error {
	if !n.chain.OnVote(vote) {
		n.logger.Debug("ignored stale vote",
			"validator", vote.ValidatorIndex,
			"target", vote.Target.Short(),
			"peer", from,
		)
	}
	return nil
}

// goFetchBlock requests root from a peer unless a request for it is already
// running. Fetched blocks go through handleBlock, which walks further back
// when their own parent is missing.
func (n *Node) goFetchBlock(from peer.ID, root types.Root) {
	n.inflightMu.Lock()
	if _, ok := n.inflight[root]; ok {
		n.inflightMu.Unlock()
		return
	}
	n.inflight[root] = struct{}{}
	n.inflightMu.Unlock()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			n.inflightMu.Lock()
			delete(n.inflight, root)
			n.inflightMu.Unlock()
		}()

		parentRequestCount.Inc()
		blocks, err := n.requestBlocksWithRetry(from, []types.Root{root})
		if err != nil {
			n.logger.Warn("failed to fetch block", "root", root.Short(), "peer", from, "error", err)
			return
		}
		for _, b := range blocks {
			if err := n.handleBlock(n.ctx, from, b); err != nil {
				n.logger.Warn("failed to import fetched block",
					"slot", b.Header.Slot,
					"error", err,
				)
			}
		}
	}()
}

// requestBlocksWithRetry wraps RequestBlocksByRoot with exponential backoff
// (1s, 2s, 4s).
func (n *Node) requestBlocksWithRetry(peerID peer.ID, roots []types.Root) ([]*types.BlockInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= maxSyncRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-n.ctx.Done():
				return nil, n.ctx.Err()
			case <-time.After(delay):
			}
		}

		ctx, cancel := context.WithTimeout(n.ctx, reqrespTimeout)
		blocks, err := n.streams.RequestBlocksByRoot(ctx, peerID, roots)
		cancel()
		if err == nil {
			return blocks, nil
		}
		lastErr = err
		n.logger.Debug("block request failed",
			"peer", peerID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("after %d retries: %w", maxSyncRetries, lastErr)
}

func (n *Node) goStatusExchange(pid peer.ID) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(n.ctx, reqrespTimeout)
		defer cancel()
		if err := n.statusExchange(ctx, pid); err != nil {
			n.logger.Warn("status exchange failed", "peer", pid, "error", err)
		}
	}()
}

// statusExchange sends our status and fetches the peer's head if we do not
// have it.
func (n *Node) statusExchange(ctx context.Context, pid peer.ID) error {
	ours, err := n.reqresp.GetStatus()
	if err != nil {
		// No chain yet: advertise an empty status so the peer still answers.
		ours = &reqresp.Status{}
	}
	theirs, err := n.streams.SendStatus(ctx, pid, ours)
	if err != nil {
		return fmt.Errorf("send status: %w", err)
	}
	if err := n.reqresp.ValidatePeerStatus(theirs); err != nil {
		n.host.Network().ClosePeer(pid)
		return err
	}

	n.logger.Debug("peer status",
		"peer", pid,
		"head_slot", theirs.HeadSlot,
		"finalized_epoch", theirs.Finalized.Epoch,
	)
	if theirs.HeadRoot.IsZero() || n.chain.ForkChoice().HasNode(theirs.HeadRoot) || n.chain.IsPending(theirs.HeadRoot) {
		return nil
	}
	n.goFetchBlock(pid, theirs.HeadRoot)
	return nil
}

// connectionNotifier starts a status exchange on every outbound connection.
// The dialer sends Status first; inbound peers are answered by the stream
// handler.
type connectionNotifier struct {
	node *Node
}

func (c *connectionNotifier) Listen(network.Network, multiaddr.Multiaddr)      {}
func (c *connectionNotifier) ListenClose(network.Network, multiaddr.Multiaddr) {}

func (c *connectionNotifier) Connected(_ network.Network, conn network.Conn) {
	if conn.Stat().Direction == network.DirOutbound {
		c.node.goStatusExchange(conn.RemotePeer())
	}
}

func (c *connectionNotifier) Disconnected(_ network.Network, conn network.Conn) {
	c.node.logger.Debug("peer disconnected", "peer", conn.RemotePeer())
}

var _ network.Notifiee = (*connectionNotifier)(nil)
