// dendra-report loads the three source artifacts, cuts the dendrogram
// at a threshold and prints the resulting clusters, rankings and cell
// captions as JSON. Optionally persists the batch as a snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/cognicore/dendra/pkg/dendra"
	"github.com/cognicore/dendra/pkg/dendra/config"
	"github.com/cognicore/dendra/pkg/dendra/explain"
	"github.com/cognicore/dendra/pkg/dendra/loader"
	"github.com/cognicore/dendra/pkg/dendra/store/sqlite"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

type report struct {
	BatchID      string        `json:"batch_id"`
	Threshold    float64       `json:"threshold"`
	ClusterCount int           `json:"cluster_count"`
	Clusters     []clusterJSON `json:"clusters"`
	Entities     []entityJSON  `json:"entities,omitempty"`
	TopPairs     []pairJSON    `json:"top_pairs,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}

type clusterJSON struct {
	ID          int      `json:"id"`
	Members     []string `json:"members"`
	MeanOverlap *float64 `json:"mean_overlap,omitempty"`
	Pairs       int      `json:"pairs"`
}

type entityJSON struct {
	Label string   `json:"label"`
	Mean  *float64 `json:"mean,omitempty"`
	Known int      `json:"known"`
}

type pairJSON struct {
	Row     string  `json:"row"`
	Col     string  `json:"col"`
	Score   float64 `json:"score"`
	Caption string  `json:"caption,omitempty"`
}

func main() {
	var (
		cfgPath   = flag.String("config", "", "YAML config file (overrides individual flags)")
		treeSrc   = flag.String("tree", "", "Tree artifact path or URL (required unless -config)")
		scoresSrc = flag.String("scores", "", "Score matrix path or URL")
		scoresFmt = flag.String("scores-format", "csv", "Score matrix format: csv or html")
		explSrc   = flag.String("explanations", "", "Explanation matrix path or URL")
		explFmt   = flag.String("explanations-format", "csv", "Explanation matrix format: csv or html")
		threshold = flag.Float64("threshold", 0.5, "Cluster cut threshold")
		top       = flag.Int("top", 10, "Number of top pairs to report")
		savePath  = flag.String("save", "", "Optional: SQLite database to save a snapshot to")
	)
	flag.Parse()

	sources, opts := buildSetup(*cfgPath, *treeSrc, *scoresSrc, *scoresFmt, *explSrc, *explFmt, *threshold)

	ctx := context.Background()
	batch := loader.New().Load(ctx, sources)
	if batch.TreeErr != nil {
		log.Fatalf("tree artifact: %v", batch.TreeErr)
	}
	if batch.ScoresErr != nil {
		log.Printf("scores artifact unavailable: %v", batch.ScoresErr)
	}
	if batch.ExplanationsErr != nil {
		log.Printf("explanations artifact unavailable: %v", batch.ExplanationsErr)
	}

	session := dendra.New(opts)
	if err := session.Apply(batch); err != nil {
		log.Fatalf("apply batch: %v", err)
	}

	out := render(session, batch, *top)

	if *savePath != "" {
		snap, err := session.Snapshot()
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		st, err := sqlite.OpenSQLite(ctx, *savePath)
		if err != nil {
			log.Fatalf("open snapshot db: %v", err)
		}
		defer st.Close()
		if err := st.SaveSnapshot(ctx, snap); err != nil {
			log.Fatalf("save snapshot: %v", err)
		}
		log.Printf("saved snapshot %s to %s", snap.ID, *savePath)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(data))
}

func buildSetup(cfgPath, treeSrc, scoresSrc, scoresFmt, explSrc, explFmt string, threshold float64) (loader.Sources, dendra.Options) {
	opts := dendra.Options{DefaultThreshold: threshold}

	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		if cfg.Threshold != 0 {
			opts.DefaultThreshold = cfg.Threshold
		}
		if len(cfg.Markers) > 0 {
			opts.Extractor = explain.New(cfg.Markers...)
		}
		return loader.Sources{
			Tree:         cfg.Artifacts.Tree,
			Scores:       cfg.Artifacts.Scores,
			Explanations: cfg.Artifacts.Explanations,
		}, opts
	}

	if treeSrc == "" {
		log.Fatal("--tree or --config required")
	}
	return loader.Sources{
		Tree:         config.Artifact{Source: treeSrc},
		Scores:       config.Artifact{Source: scoresSrc, Format: scoresFmt},
		Explanations: config.Artifact{Source: explSrc, Format: explFmt},
	}, opts
}

func render(session *dendra.Session, batch *loader.Batch, top int) report {
	_, count, err := session.ClusterView()
	if err != nil {
		log.Fatalf("cluster view: %v", err)
	}

	out := report{
		BatchID:      batch.ID,
		Threshold:    session.Threshold(),
		ClusterCount: count,
		Warnings:     session.Warnings(),
	}

	if clusters, err := session.ClusterReport(); err == nil {
		for _, c := range clusters {
			out.Clusters = append(out.Clusters, clusterJSON{
				ID:          c.Cluster,
				Members:     c.Members,
				MeanOverlap: finite(c.Mean),
				Pairs:       c.Pairs,
			})
		}
	} else {
		// no scores: still report the partition
		root, _, _ := session.ClusterView()
		for i, members := range tree.ClusterMembers(root, count) {
			out.Clusters = append(out.Clusters, clusterJSON{ID: i, Members: members})
		}
	}

	rankings, err := session.Rankings(top)
	if err != nil {
		return out
	}
	for _, e := range rankings.Entities {
		out.Entities = append(out.Entities, entityJSON{Label: e.Label, Mean: finite(e.Mean), Known: e.Known})
	}

	idx := make(map[string]int, len(session.Labels()))
	for i, l := range session.Labels() {
		idx[l] = i
	}
	for _, p := range rankings.Pairs {
		pj := pairJSON{Row: p.Row, Col: p.Col, Score: p.Score}
		if caption, err := session.ExplainCell(idx[p.Row], idx[p.Col]); err == nil && caption.Text != "" {
			pj.Caption = fmt.Sprintf("%s / %s: %s", caption.RowLabel, caption.ColLabel, caption.Text)
		}
		out.TopPairs = append(out.TopPairs, pj)
	}
	return out
}

// finite returns a pointer to v, or nil when v is NaN so the JSON
// encoder can omit it.
func finite(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
