package order

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// NumberGenerator produces externally visible order numbers
type NumberGenerator interface {
	Next() string
}

// OrderNumberPrefix is prepended to every generated order number
const OrderNumberPrefix = "ORD-"

// SnowflakeNumberGenerator issues time-ordered numbers that are unique per node.
// Uniqueness across nodes relies on distinct node IDs; the orders table enforces it regardless.
type SnowflakeNumberGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeNumberGenerator creates a generator for the given node ID (0-1023)
func NewSnowflakeNumberGenerator(nodeID int64) (*SnowflakeNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeNumberGenerator{node: node}, nil
}

// Next returns ORD- followed by the zero-padded snowflake ID, so that
// lexical order matches creation order.
func (g *SnowflakeNumberGenerator) Next() string {
	return fmt.Sprintf("%s%019d", OrderNumberPrefix, g.node.Generate().Int64())
}
