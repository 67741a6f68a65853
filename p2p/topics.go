// Package p2p carries fork-choice inputs between nodes: blocks and votes over
// gossipsub, plus the libp2p host they share with request/response.
package p2p

import "fmt"

// TopicEncoding specifies the encoding used for gossip messages.
const TopicEncoding = "ssz_snappy"

// BlockTopic returns the gossip topic for processed blocks on network.
func BlockTopic(network string) string {
	return fmt.Sprintf("/ghost/%s/beacon_block/%s", network, TopicEncoding)
}

// VoteTopic returns the gossip topic for latest-message votes on network.
func VoteTopic(network string) string {
	return fmt.Sprintf("/ghost/%s/vote/%s", network, TopicEncoding)
}
