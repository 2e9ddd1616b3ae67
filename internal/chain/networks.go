package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// HeaderReader reads block headers. *ethclient.Client satisfies it.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// LatestTimestamp returns the timestamp of the latest block.
func LatestTimestamp(ctx context.Context, hr HeaderReader) (int64, error) {
	header, err := hr.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	return int64(header.Time), nil
}

// Networks maps a connection selector to the Reader bound to that network.
// The empty selector resolves to the default network.
type Networks struct {
	def   Reader
	named map[string]Reader
}

// NewNetworks creates a Networks with def as the default reader.
func NewNetworks(def Reader) *Networks {
	return &Networks{
		def:   def,
		named: make(map[string]Reader),
	}
}

// Add registers a named network.
func (n *Networks) Add(name string, r Reader) {
	n.named[name] = r
}

// Reader resolves a network selector.
func (n *Networks) Reader(selector string) (Reader, error) {
	if selector == "" {
		if n.def == nil {
			return nil, fmt.Errorf("no default network configured")
		}
		return n.def, nil
	}
	r, ok := n.named[selector]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", selector)
	}
	return r, nil
}

// Names returns the registered network names in sorted order.
func (n *Networks) Names() []string {
	names := make([]string, 0, len(n.named))
	for name := range n.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
