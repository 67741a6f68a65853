package p2p

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/geanlabs/lmdghost/config"
)

// Service manages gossip for blocks and votes.
type Service struct {
	host     host.Host
	pubsub   *pubsub.PubSub
	handlers *MessageHandlers
	logger   *slog.Logger

	blockSub *pubsub.Subscription
	voteSub  *pubsub.Subscription

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServiceConfig holds configuration for the p2p service.
type ServiceConfig struct {
	Host      host.Host
	Network   string
	Chain     config.ChainConfig
	Handlers  *MessageHandlers
	Bootnodes []peer.AddrInfo
	Logger    *slog.Logger
}

// NewService creates the gossip router, joins and subscribes to the block and
// vote topics, and dials the bootnodes.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ps, err := NewGossipSub(ctx, cfg.Host, DefaultGossipsubParams(cfg.Chain))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create gossipsub: %w", err)
	}

	blockSub, err := joinAndSubscribe(ps, BlockTopic(cfg.Network))
	if err != nil {
		cancel()
		return nil, err
	}
	voteSub, err := joinAndSubscribe(ps, VoteTopic(cfg.Network))
	if err != nil {
		blockSub.Cancel()
		cancel()
		return nil, err
	}

	svc := &Service{
		host:     cfg.Host,
		pubsub:   ps,
		handlers: cfg.Handlers,
		logger:   logger,
		blockSub: blockSub,
		voteSub:  voteSub,
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, pi := range cfg.Bootnodes {
		if err := cfg.Host.Connect(ctx, pi); err != nil {
			logger.Warn("failed to connect to bootnode",
				"peer", pi.ID,
				"error", err,
			)
		} else {
			logger.Info("connected to bootnode", "peer", pi.ID)
		}
	}

	return svc, nil
}

// joinAndSubscribe subscribes to a topic. The node only listens; gossipsub
// relays to the mesh on its own.
func joinAndSubscribe(ps *pubsub.PubSub, name string) (*pubsub.Subscription, error) {
	topic, err := ps.Join(name)
	if err != nil {
		return nil, fmt.Errorf("join topic %s: %w", name, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribe topic %s: %w", name, err)
	}
	return sub, nil
}

// Start begins processing incoming messages.
func (s *Service) Start() {
	s.wg.Add(2)
	go s.readLoop("block", s.blockSub, s.handleBlock)
	go s.readLoop("vote", s.voteSub, s.handleVote)
	s.logger.Info("p2p service started",
		"peer_id", s.host.ID(),
		"addrs", s.host.Addrs(),
	)
}

// Stop shuts down the gossip loops. The host is owned by the caller.
func (s *Service) Stop() {
	s.cancel()
	s.blockSub.Cancel()
	s.voteSub.Cancel()
	s.wg.Wait()
	s.logger.Info("p2p service stopped")
}

// PeerCount returns the number of connected peers.
func (s *Service) PeerCount() int {
	return len(s.host.Network().Peers())
}

func (s *Service) handleBlock(ctx context.Context, from peer.ID, data []byte) error {
	if s.handlers == nil {
		return nil
	}
	return s.handlers.HandleBlockMessage(ctx, from, data)
}

func (s *Service) handleVote(ctx context.Context, from peer.ID, data []byte) error {
	if s.handlers == nil {
		return nil
	}
	return s.handlers.HandleVoteMessage(ctx, from, data)
}

// readLoop feeds messages from sub to handle until the service stops.
func (s *Service) readLoop(kind string, sub *pubsub.Subscription, handle func(context.Context, peer.ID, []byte) error) {
	defer s.wg.Done()

	for {
		msg, err := sub.Next(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("subscription error", "topic", kind, "error", err)
			continue
		}

		// Skip self-published messages
		if msg.ReceivedFrom == s.host.ID() {
			continue
		}

		if err := handle(s.ctx, msg.ReceivedFrom, msg.Data); err != nil {
			s.logger.Warn("handle gossip message",
				"topic", kind,
				"peer", msg.ReceivedFrom,
				"error", err,
			)
		}
	}
}
