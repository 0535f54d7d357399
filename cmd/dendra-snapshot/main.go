// dendra-snapshot inspects a snapshot database: list stored snapshots,
// show one, or re-render a stored batch at a different threshold
// without refetching the source artifacts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/cognicore/dendra/pkg/dendra"
	"github.com/cognicore/dendra/pkg/dendra/store"
	"github.com/cognicore/dendra/pkg/dendra/store/sqlite"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

type listing struct {
	ID        string  `json:"id"`
	CreatedAt string  `json:"created_at"`
	Threshold float64 `json:"threshold"`
	Entities  int     `json:"entities"`
}

type rendering struct {
	SnapshotID   string       `json:"snapshot_id"`
	Threshold    float64      `json:"threshold"`
	ClusterCount int          `json:"cluster_count"`
	Clusters     [][]string   `json:"clusters"`
	TopPairs     []scoredPair `json:"top_pairs,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
}

type scoredPair struct {
	Row   string  `json:"row"`
	Col   string  `json:"col"`
	Score float64 `json:"score"`
}

func main() {
	var (
		dbPath    = flag.String("db", "dendra.db", "SQLite snapshot database")
		list      = flag.Bool("list", false, "List stored snapshots")
		id        = flag.String("id", "", "Snapshot id to operate on (default: latest)")
		threshold = flag.Float64("threshold", 0, "Re-render at this threshold (0 keeps the stored one)")
		top       = flag.Int("top", 10, "Number of top pairs to report")
		remove    = flag.Bool("delete", false, "Delete the snapshot given by -id")
	)
	flag.Parse()

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open snapshot db: %v", err)
	}
	defer st.Close()

	switch {
	case *list:
		listSnapshots(ctx, st)
	case *remove:
		if *id == "" {
			log.Fatal("-delete requires -id")
		}
		if err := st.DeleteSnapshot(ctx, *id); err != nil {
			log.Fatalf("delete snapshot %s: %v", *id, err)
		}
		log.Printf("deleted snapshot %s", *id)
	default:
		renderSnapshot(ctx, st, *id, *threshold, *top)
	}
}

func listSnapshots(ctx context.Context, st store.Store) {
	infos, err := st.ListSnapshots(ctx)
	if err != nil {
		log.Fatalf("list snapshots: %v", err)
	}
	out := make([]listing, 0, len(infos))
	for _, in := range infos {
		out = append(out, listing{
			ID:        in.ID,
			CreatedAt: in.CreatedAt.Format("2006-01-02 15:04:05"),
			Threshold: in.Threshold,
			Entities:  in.Entities,
		})
	}
	printJSON(out)
}

func renderSnapshot(ctx context.Context, st store.Store, id string, threshold float64, top int) {
	snap, err := loadSnapshot(ctx, st, id)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	session, err := dendra.FromSnapshot(snap, dendra.Options{DefaultThreshold: threshold})
	if err != nil {
		log.Fatalf("reopen snapshot %s: %v", snap.ID, err)
	}

	root, count, err := session.ClusterView()
	if err != nil {
		log.Fatalf("cluster view: %v", err)
	}

	out := rendering{
		SnapshotID:   snap.ID,
		Threshold:    session.Threshold(),
		ClusterCount: count,
		Clusters:     tree.ClusterMembers(root, count),
		Warnings:     session.Warnings(),
	}
	if rankings, err := session.Rankings(top); err == nil {
		for _, p := range rankings.Pairs {
			if math.IsNaN(p.Score) {
				continue
			}
			out.TopPairs = append(out.TopPairs, scoredPair{Row: p.Row, Col: p.Col, Score: p.Score})
		}
	}
	printJSON(out)
}

func loadSnapshot(ctx context.Context, st store.Store, id string) (store.Snapshot, error) {
	if id != "" {
		return st.GetSnapshot(ctx, id)
	}
	snap, ok, err := st.LatestSnapshot(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	if !ok {
		return store.Snapshot{}, fmt.Errorf("database holds no snapshots")
	}
	return snap, nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal output: %v", err)
	}
	fmt.Println(string(data))
}
