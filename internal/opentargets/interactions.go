package opentargets

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/pkg/logger"
	"github.com/bioinsight/backend/pkg/retry"
	"github.com/bioinsight/backend/pkg/utils"
)

// FetchInteractions returns aggregated evidence that the named drug acts on
// the target with Ensembl id targetID. The drug-centric query is retried on
// timeout only, up to maxRetries attempts (the client default when
// maxRetries <= 0). Any failure degrades to fewer or no records.
func (c *Client) FetchInteractions(ctx context.Context, drugName, targetID string, maxRetries int) []evidence.Record {
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}

	drug, ok := c.ResolveDrug(ctx, drugName)
	if !ok {
		logger.Warn("Could not resolve drug to an id", zap.String("drug", drugName))
		return []evidence.Record{}
	}

	key := utils.CacheKey("ot:evidence", drug.ID, targetID)
	if c.cache != nil {
		var cached []evidence.Record
		if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached
		}
	}

	logger.Info("Resolved drug",
		zap.String("input", drugName),
		zap.String("name", drug.Name),
		zap.String("id", drug.ID),
	)

	rows, err := retry.DoWithResult(ctx, c.retryConfig(maxRetries), func() ([]evidence.Record, error) {
		return c.knownDrugs(ctx, drug, targetID)
	})
	if err != nil {
		logger.Warn("Known drugs query failed",
			zap.String("drug_id", drug.ID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		return []evidence.Record{}
	}
	if len(rows) == 0 {
		logger.Info("No known interactions for pair",
			zap.String("drug_id", drug.ID),
			zap.String("target_id", targetID),
		)
		return []evidence.Record{}
	}

	if extra := c.evidenceSources(ctx, drug.ID, targetID); len(extra) > 0 {
		for _, src := range extra {
			rows[0].References = append(rows[0].References, evidence.Reference{Source: src, URLs: []string{}})
		}
		logger.Info("Added evidence sources", zap.Strings("sources", extra))
	}

	records := evidence.Process(rows)
	logger.Info("Interaction evidence fetched",
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)),
	)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, records); err != nil {
			logger.Debug("Failed to cache evidence", zap.Error(err))
		}
	}
	return records
}

func (c *Client) knownDrugs(ctx context.Context, drug Hit, targetID string) ([]evidence.Record, error) {
	var data knownDrugsData
	err := c.post(ctx, c.evidenceTimeout, knownDrugsQuery, map[string]any{"drugId": drug.ID}, &data)
	if err != nil {
		return nil, err
	}
	if data.Drug == nil || data.Drug.KnownDrugs == nil {
		return nil, nil
	}

	var out []evidence.Record
	for _, row := range data.Drug.KnownDrugs.Rows {
		if row.Target.ID != targetID {
			continue
		}
		refs := make([]evidence.Reference, 0, len(row.References))
		for _, ref := range row.References {
			refs = append(refs, evidence.Reference{Source: ref.Source, URLs: ref.URLs})
		}
		out = append(out, evidence.Record{
			Drug:              evidence.DrugRef{ID: drug.ID, Name: drug.Name},
			Target:            evidence.TargetRef{ID: row.Target.ID, ApprovedSymbol: row.Target.ApprovedSymbol},
			DrugType:          row.DrugType,
			Phase:             row.Phase,
			MechanismOfAction: row.MechanismOfAction,
			References:        refs,
		})
	}
	return out, nil
}

// evidenceSources returns the distinct datasource ids, upper-cased and
// sorted, of target-centric evidence rows that name drugID. Failures yield
// nil.
func (c *Client) evidenceSources(ctx context.Context, drugID, targetID string) []string {
	var data targetEvidenceData
	err := c.post(ctx, c.evidenceTimeout, targetEvidenceQuery, map[string]any{
		"targetId": targetID,
		"drugId":   drugID,
	}, &data)
	if err != nil {
		logger.Debug("Could not fetch additional evidence", zap.Error(err))
		return nil
	}
	if data.Target == nil || data.Target.Evidences == nil {
		return nil
	}

	seen := make(map[string]struct{})
	for _, row := range data.Target.Evidences.Rows {
		if row.Drug == nil || row.Drug.ID != drugID || row.DatasourceID == "" {
			continue
		}
		seen[row.DatasourceID] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for src := range seen {
		out = append(out, strings.ToUpper(src))
	}
	sort.Strings(out)
	return out
}
