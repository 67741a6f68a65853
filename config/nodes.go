package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/multiformats/go-multiaddr"
	"gopkg.in/yaml.v3"
)

const enrPrefix = "enr:"

// bootnodeList is the nodes.yaml document: a sequence whose items are either
// plain strings (multiaddr or ENR) or mappings with a multiaddr field.
type bootnodeList []string

func (l *bootnodeList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: bootnodes must be a list", value.Line)
	}
	for _, item := range value.Content {
		var addr string
		switch item.Kind {
		case yaml.ScalarNode:
			addr = item.Value
		case yaml.MappingNode:
			var entry struct {
				Multiaddr string `yaml:"multiaddr"`
				ENR       string `yaml:"enr"`
			}
			if err := item.Decode(&entry); err != nil {
				return err
			}
			addr = entry.Multiaddr
			if addr == "" {
				addr = entry.ENR
			}
		default:
			return fmt.Errorf("line %d: unexpected bootnode entry", item.Line)
		}
		if addr = strings.TrimSpace(addr); addr != "" {
			*l = append(*l, addr)
		}
	}
	return nil
}

// ValidateBootnode checks that addr is an ENR record or a multiaddr.
func ValidateBootnode(addr string) error {
	if strings.HasPrefix(addr, enrPrefix) {
		if len(addr) == len(enrPrefix) {
			return fmt.Errorf("empty enr record")
		}
		return nil
	}
	if _, err := multiaddr.NewMultiaddr(addr); err != nil {
		return fmt.Errorf("invalid multiaddr %q: %w", addr, err)
	}
	return nil
}

// LoadBootnodes reads a nodes.yaml file. Entries are multiaddrs or ENRs,
// given as plain strings or as {multiaddr: ...} / {enr: ...} mappings.
// Blank entries and duplicates are skipped; any malformed entry fails the
// whole file.
func LoadBootnodes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}
	var list bootnodeList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse nodes: %w", err)
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for i, addr := range list {
		if err := ValidateBootnode(addr); err != nil {
			return nil, fmt.Errorf("bootnode %d: %w", i, err)
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}
