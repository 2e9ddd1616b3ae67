package subgraph

import (
	"fmt"
	"strings"
)

// Entity describes a paginated subgraph collection.
type Entity struct {
	Name   string
	Where  string
	Fields []string
}

// Scheduled deposits and withdrawals as indexed by the Opium subgraph.
var (
	ScheduledDeposits = Entity{
		Name:   "deposits",
		Where:  "scheduled_gt: 0",
		Fields: []string{"user", "pool", "scheduled"},
	}
	ScheduledWithdrawals = Entity{
		Name:   "withdrawals",
		Where:  "scheduled: true",
		Fields: []string{"user", "pool"},
	}
)

// Query renders the GraphQL query for one page.
func (e Entity) Query(first, skip int) string {
	return fmt.Sprintf("{ %s(first: %d, skip: %d, where: { %s }) { %s } }",
		e.Name, first, skip, e.Where, strings.Join(e.Fields, " "))
}
