package p2p

import (
	"context"
	"time"

	"github.com/golang/snappy"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	"github.com/libp2p/go-libp2p/core/host"
)

// NewGossipSub creates a gossipsub router tuned with params.
func NewGossipSub(ctx context.Context, h host.Host, params GossipsubParams) (*pubsub.PubSub, error) {
	gsParams := pubsub.DefaultGossipSubParams()
	gsParams.D = params.D
	gsParams.Dlo = params.DLow
	gsParams.Dhi = params.DHigh
	gsParams.Dlazy = params.DLazy
	gsParams.HeartbeatInterval = time.Duration(params.HeartbeatInterval * float64(time.Second))
	gsParams.FanoutTTL = time.Duration(params.FanoutTTL) * time.Second
	gsParams.HistoryLength = params.MCacheLen
	gsParams.HistoryGossip = params.MCacheGossip

	opts := []pubsub.Option{
		pubsub.WithMessageIdFn(computePubsubMessageID),
		pubsub.WithGossipSubParams(gsParams),
		pubsub.WithSeenMessagesTTL(time.Duration(params.SeenTTL) * time.Second),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictNoSign),
		pubsub.WithFloodPublish(false),
	}

	return pubsub.NewGossipSub(ctx, h, opts...)
}

// computePubsubMessageID hashes the decompressed payload when it is valid
// snappy and the raw payload otherwise.
func computePubsubMessageID(msg *pb.Message) string {
	if decoded, err := snappy.Decode(nil, msg.Data); err == nil {
		id := ComputeMessageID([]byte(msg.GetTopic()), decoded, true)
		return string(id[:])
	}
	id := ComputeMessageID([]byte(msg.GetTopic()), msg.Data, false)
	return string(id[:])
}

// CompressMessage compresses data using snappy for gossipsub.
func CompressMessage(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressMessage decompresses snappy-compressed data.
func DecompressMessage(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
