// Package neo4j stores analysed drug-target pairs as a graph:
// (:Drug)-[:INTERACTS_WITH]->(:Target), the edge carrying the latest score.
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/pkg/circuitbreaker"
	"github.com/bioinsight/backend/pkg/logger"
	"github.com/bioinsight/backend/pkg/retry"
)

type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// Interaction is one INTERACTS_WITH edge with its endpoints.
type Interaction struct {
	Drug            string    `json:"drug"`
	DrugID          string    `json:"drug_id,omitempty"`
	Target          string    `json:"target"`
	TargetID        string    `json:"target_id,omitempty"`
	ConfidenceScore float64   `json:"confidence_score"`
	MaxPhase        float64   `json:"max_phase"`
	Mechanism       string    `json:"mechanism,omitempty"`
	Sources         []string  `json:"sources"`
	AnalysisID      string    `json:"analysis_id,omitempty"`
	AnalysisCount   int64     `json:"analysis_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OnStateChange:    metrics.ObserveBreaker,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j client initialized", zap.String("uri", uri), zap.String("database", database))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

func (c *Client) EnsureConstraints(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT drug_name IF NOT EXISTS FOR (d:Drug) REQUIRE d.name_key IS UNIQUE`,
		`CREATE CONSTRAINT target_name IF NOT EXISTS FOR (t:Target) REQUIRE t.name_key IS UNIQUE`,
	}
	return c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		for _, stmt := range statements {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				return fmt.Errorf("failed to create constraint: %w", err)
			}
		}
		return nil
	})
}

// UpsertInteraction merges both endpoints by case-insensitive name and
// overwrites the edge's properties with the latest analysis.
func (c *Client) UpsertInteraction(ctx context.Context, in *Interaction) error {
	query := `
		MERGE (d:Drug {name_key: $drug_key})
		SET d.name = $drug, d.chembl_id = coalesce($drug_id, d.chembl_id)
		MERGE (t:Target {name_key: $target_key})
		SET t.name = $target, t.ensembl_id = coalesce($target_id, t.ensembl_id)
		MERGE (d)-[r:INTERACTS_WITH]->(t)
		SET r.confidence_score = $confidence_score,
		    r.max_phase = $max_phase,
		    r.mechanism = $mechanism,
		    r.sources = $sources,
		    r.analysis_id = $analysis_id,
		    r.analysis_count = coalesce(r.analysis_count, 0) + 1,
		    r.updated_at = $updated_at
	`

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		_, err := session.Run(ctx, query, map[string]interface{}{
			"drug_key":         nameKey(in.Drug),
			"drug":             in.Drug,
			"drug_id":          optional(in.DrugID),
			"target_key":       nameKey(in.Target),
			"target":           in.Target,
			"target_id":        optional(in.TargetID),
			"confidence_score": in.ConfidenceScore,
			"max_phase":        in.MaxPhase,
			"mechanism":        in.Mechanism,
			"sources":          nonNil(in.Sources),
			"analysis_id":      in.AnalysisID,
			"updated_at":       in.UpdatedAt.Unix(),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert interaction: %w", err)
	}

	logger.Debug("Interaction merged into KG",
		zap.String("drug", in.Drug),
		zap.String("target", in.Target),
		zap.Float64("confidence", in.ConfidenceScore),
	)
	return nil
}

const interactionReturn = `
	RETURN d.name AS drug, d.chembl_id AS drug_id, t.name AS target, t.ensembl_id AS target_id,
	       r.confidence_score AS confidence_score, r.max_phase AS max_phase, r.mechanism AS mechanism,
	       r.sources AS sources, r.analysis_id AS analysis_id, r.analysis_count AS analysis_count,
	       r.updated_at AS updated_at
`

// GetInteraction returns the edge between drug and target, if any.
func (c *Client) GetInteraction(ctx context.Context, drug, target string) (*Interaction, bool, error) {
	query := `
		MATCH (d:Drug {name_key: $drug_key})-[r:INTERACTS_WITH]->(t:Target {name_key: $target_key})
	` + interactionReturn

	var found []Interaction
	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		var err error
		found, err = collect(ctx, session, query, map[string]interface{}{
			"drug_key":   nameKey(drug),
			"target_key": nameKey(target),
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	return &found[0], true, nil
}

// InteractionsForDrug lists the drug's edges, highest score first.
func (c *Client) InteractionsForDrug(ctx context.Context, drug string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		MATCH (d:Drug {name_key: $drug_key})-[r:INTERACTS_WITH]->(t:Target)
	` + interactionReturn + `
		ORDER BY r.confidence_score DESC
		LIMIT $limit
	`

	var found []Interaction
	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		var err error
		found, err = collect(ctx, session, query, map[string]interface{}{
			"drug_key": nameKey(drug),
			"limit":    limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("KG interactions fetched",
		zap.String("drug", drug),
		zap.Int("results_found", len(found)),
	)
	return found, nil
}

func collect(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]interface{}) ([]Interaction, error) {
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}

	out := []Interaction{}
	for result.Next(ctx) {
		out = append(out, toInteraction(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return out, nil
}

func toInteraction(record *neo4j.Record) Interaction {
	var in Interaction
	in.Drug = stringValue(record, "drug")
	in.DrugID = stringValue(record, "drug_id")
	in.Target = stringValue(record, "target")
	in.TargetID = stringValue(record, "target_id")
	in.Mechanism = stringValue(record, "mechanism")
	in.AnalysisID = stringValue(record, "analysis_id")
	in.ConfidenceScore = floatValue(record, "confidence_score")
	in.MaxPhase = floatValue(record, "max_phase")

	if v, ok := record.Get("analysis_count"); ok {
		if n, ok := v.(int64); ok {
			in.AnalysisCount = n
		}
	}
	if v, ok := record.Get("updated_at"); ok {
		if n, ok := v.(int64); ok {
			in.UpdatedAt = time.Unix(n, 0)
		}
	}

	in.Sources = []string{}
	if v, ok := record.Get("sources"); ok {
		if list, ok := v.([]interface{}); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					in.Sources = append(in.Sources, s)
				}
			}
		}
	}
	return in
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func floatValue(record *neo4j.Record, key string) float64 {
	v, ok := record.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
