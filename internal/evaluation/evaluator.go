// Package evaluation measures resolution accuracy against a labelled set of
// queries.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bioinsight/backend/internal/resolution"
	"github.com/bioinsight/backend/pkg/logger"
)

// Case is one labelled query. An empty Drug or Target means the query names
// none and the pipeline should leave that side unresolved.
type Case struct {
	Query    string `yaml:"query" json:"query"`
	Drug     string `yaml:"drug" json:"drug"`
	Target   string `yaml:"target" json:"target"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

type Dataset struct {
	Cases []Case
}

// LoadDataset reads a YAML list of cases.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

func ParseDataset(data []byte) (Dataset, error) {
	var cases []Case
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Query) == "" {
			return Dataset{}, fmt.Errorf("parse dataset: case %d has no query", i)
		}
	}
	return Dataset{Cases: cases}, nil
}

type Resolver interface {
	Resolve(ctx context.Context, query string) resolution.Resolution
}

type CaseResult struct {
	Case
	GotDrug     string `json:"got_drug"`
	GotTarget   string `json:"got_target"`
	DrugStage   string `json:"drug_stage,omitempty"`
	TargetStage string `json:"target_stage,omitempty"`
	DrugOK      bool   `json:"drug_ok"`
	TargetOK    bool   `json:"target_ok"`
}

func (r CaseResult) PairOK() bool {
	return r.DrugOK && r.TargetOK
}

type Report struct {
	TotalQueries   int            `json:"total_queries"`
	DrugCorrect    int            `json:"drug_correct"`
	TargetCorrect  int            `json:"target_correct"`
	PairCorrect    int            `json:"pair_correct"`
	DrugAccuracy   float64        `json:"drug_accuracy"`
	TargetAccuracy float64        `json:"target_accuracy"`
	PairAccuracy   float64        `json:"pair_accuracy"`
	StageCounts    map[string]int `json:"stage_counts"`
	Failures       []CaseResult   `json:"failures"`
}

type Evaluator struct {
	resolver Resolver
}

func NewEvaluator(resolver Resolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// Run resolves every case in order. Names compare case-insensitively.
func (e *Evaluator) Run(ctx context.Context, ds Dataset) (*Report, error) {
	report := &Report{
		StageCounts: make(map[string]int),
		Failures:    []CaseResult{},
	}

	for _, c := range ds.Cases {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation interrupted: %w", err)
		}

		res := e.resolver.Resolve(ctx, c.Query)
		r := CaseResult{
			Case:      c,
			GotDrug:   res.DrugName(),
			GotTarget: res.TargetName(),
		}
		if res.Drug != nil {
			r.DrugStage = string(res.Drug.Stage)
			report.StageCounts["drug:"+r.DrugStage]++
		}
		if res.Target != nil {
			r.TargetStage = string(res.Target.Stage)
			report.StageCounts["target:"+r.TargetStage]++
		}
		r.DrugOK = strings.EqualFold(strings.TrimSpace(c.Drug), r.GotDrug)
		r.TargetOK = strings.EqualFold(strings.TrimSpace(c.Target), r.GotTarget)

		report.TotalQueries++
		if r.DrugOK {
			report.DrugCorrect++
		}
		if r.TargetOK {
			report.TargetCorrect++
		}
		if r.PairOK() {
			report.PairCorrect++
		} else {
			report.Failures = append(report.Failures, r)
		}
	}

	if report.TotalQueries > 0 {
		n := float64(report.TotalQueries)
		report.DrugAccuracy = float64(report.DrugCorrect) / n
		report.TargetAccuracy = float64(report.TargetCorrect) / n
		report.PairAccuracy = float64(report.PairCorrect) / n
	}

	logger.Info("Evaluation completed",
		zap.Int("total_queries", report.TotalQueries),
		zap.Float64("drug_accuracy", report.DrugAccuracy),
		zap.Float64("target_accuracy", report.TargetAccuracy),
		zap.Float64("pair_accuracy", report.PairAccuracy),
	)
	return report, nil
}
