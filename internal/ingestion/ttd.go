package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bioinsight/backend/internal/storage/models"
)

// TTD flat-file tags.
const (
	tagDrugID      = "DRUG__ID"
	tagTradeName   = "TRADNAME"
	tagCompany     = "DRUGCOMP"
	tagClass       = "THERCLAS"
	tagTargetID    = "TARGETID"
	tagTargetName  = "TARGNAME"
	tagSymbol      = "TARG_SYM"
	tagDrugInfo    = "DRUGINFO"
	unknownPhase   = "Unknown"
	maxLineLength  = 1 << 20
	minLineColumns = 3
)

// CorpusSink receives parsed TTD records.
type CorpusSink interface {
	UpsertDrug(ctx context.Context, d models.Drug) error
	UpsertTarget(ctx context.Context, t models.Target) error
	AddInteraction(ctx context.Context, in models.Interaction) error
}

type ParseStats struct {
	Drugs        int `json:"drugs"`
	Targets      int `json:"targets"`
	Interactions int `json:"interactions"`
	Skipped      int `json:"skipped_lines"`
}

// ParseDrugs reads the TTD drug download (<id>\t<TAG>\t<value>). Consecutive
// lines with the same id form one drug.
func ParseDrugs(ctx context.Context, r io.Reader, sink CorpusSink) (ParseStats, error) {
	var stats ParseStats
	var current *models.Drug

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := sink.UpsertDrug(ctx, *current); err != nil {
			return err
		}
		stats.Drugs++
		return nil
	}

	err := scanRecords(r, func(parts []string) error {
		if len(parts) < minLineColumns {
			stats.Skipped++
			return nil
		}
		id, tag, val := parts[0], parts[1], parts[2]

		if current == nil || current.ID != id {
			if err := flush(); err != nil {
				return err
			}
			current = &models.Drug{ID: id}
		}

		switch tag {
		case tagDrugID:
			current.ID = val
		case tagTradeName:
			current.Name = val
		case tagCompany:
			current.Company = val
		case tagClass:
			current.TherapeuticClass = val
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to parse drug file: %w", err)
	}
	if err := flush(); err != nil {
		return stats, fmt.Errorf("failed to parse drug file: %w", err)
	}
	return stats, nil
}

// ParseTargets reads the TTD target download. DRUGINFO lines become
// interactions: <target>\tDRUGINFO\t<drug id>\t<drug name>[\t<phase>].
func ParseTargets(ctx context.Context, r io.Reader, sink CorpusSink) (ParseStats, error) {
	var stats ParseStats
	var current *models.Target

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := sink.UpsertTarget(ctx, *current); err != nil {
			return err
		}
		stats.Targets++
		return nil
	}

	err := scanRecords(r, func(parts []string) error {
		if len(parts) < minLineColumns {
			stats.Skipped++
			return nil
		}
		id, tag, val := parts[0], parts[1], parts[2]

		if current == nil || current.ID != id {
			if err := flush(); err != nil {
				return err
			}
			current = &models.Target{ID: id}
		}

		switch tag {
		case tagTargetID:
			current.ID = val
		case tagTargetName:
			current.Name = val
		case tagSymbol:
			current.Symbol = val
		case tagDrugInfo:
			if len(parts) < 4 {
				stats.Skipped++
				return nil
			}
			phase := unknownPhase
			if len(parts) >= 5 {
				phase = parts[4]
			}
			err := sink.AddInteraction(ctx, models.Interaction{
				TargetID:      id,
				DrugID:        parts[2],
				DrugName:      parts[3],
				ClinicalPhase: phase,
			})
			if err != nil {
				return err
			}
			stats.Interactions++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to parse target file: %w", err)
	}
	if err := flush(); err != nil {
		return stats, fmt.Errorf("failed to parse target file: %w", err)
	}
	return stats, nil
}

func scanRecords(r io.Reader, fn func(parts []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ToValidUTF8(scanner.Text(), ""))
		if err := fn(strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}
