package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"txLogScope/internal/model"
)

// Node is an address with its net balance change per token symbol.
type Node struct {
	Address        string             `json:"address"`
	BalanceChanges map[string]float64 `json:"balance_changes"`
}

// Edge is one value transfer between two addresses.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
	Event  string  `json:"event"`
	Index  uint64  `json:"index"`
}

// Graph is the value flow of one transaction.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

var (
	fromNames = []string{"from", "src", "sender", "_from"}
	toNames   = []string{"to", "dst", "recipient", "receiver", "_to"}
)

// Build collects transfer-like events: those with a sender, a receiver and a
// token-scaled amount. Other events are ignored.
func Build(events []model.DecodedEvent) *Graph {
	nodes := make(map[string]*Node)
	var order []string
	g := &Graph{Edges: make([]Edge, 0)}

	touch := func(addr string) *Node {
		key := strings.ToLower(addr)
		n, ok := nodes[key]
		if !ok {
			n = &Node{Address: addr, BalanceChanges: make(map[string]float64)}
			nodes[key] = n
			order = append(order, key)
		}
		return n
	}

	for _, ev := range events {
		from, ok := findAddress(ev, fromNames)
		if !ok {
			continue
		}
		to, ok := findAddress(ev, toNames)
		if !ok {
			continue
		}
		amount, ok := lo.Find(ev.Inputs, func(in model.DecodedInput) bool {
			return in.FormattedValue != nil && in.Symbol != nil
		})
		if !ok || *amount.FormattedValue == 0 {
			continue
		}

		symbol := *amount.Symbol
		value := *amount.FormattedValue
		touch(from).BalanceChanges[symbol] -= value
		touch(to).BalanceChanges[symbol] += value

		g.Edges = append(g.Edges, Edge{
			From:   from,
			To:     to,
			Token:  symbol,
			Amount: value,
			Event:  ev.Name,
			Index:  ev.EventIndex,
		})
	}

	g.Nodes = lo.Map(order, func(key string, _ int) Node { return *nodes[key] })
	sort.SliceStable(g.Edges, func(i, j int) bool { return g.Edges[i].Index < g.Edges[j].Index })
	return g
}

func findAddress(ev model.DecodedEvent, names []string) (string, bool) {
	for _, in := range ev.Inputs {
		if in.SolidityType != "address" {
			continue
		}
		if lo.Contains(names, strings.ToLower(in.Name)) {
			return in.DisplayValue, true
		}
	}
	return "", false
}

// WriteFile writes the graph as indented JSON via a temp file and rename.
func (g *Graph) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename graph: %w", err)
	}
	return nil
}
