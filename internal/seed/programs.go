// Package seed owns reference data that lives in code rather than in the
// admin API.
package seed

import (
	"context"
	"fmt"

	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

type ProgramRepository interface {
	AllPrograms(ctx context.Context) ([]*types.Program, error)
	UpsertProgram(ctx context.Context, program *types.Program) error
	DeleteProgram(ctx context.Context, id string) error
}

// Programs is the source of truth for the programs shown by /api/ngo/info.
// IDs are fixed, generate new ones with `vridhashram nanoid`.
var Programs = []types.Program{
	{
		ID:           "cewD8kU7MhYUm9smsHD3VxGdSjX2dZgP",
		Title:        "Residential Elder Care",
		Slug:         "residential-elder-care",
		Description:  "A safe home with meals, laundry and round the clock attendants for senior citizens without family support.",
		DisplayOrder: 1,
		IsActive:     true,
	},
	{
		ID:           "3iSe3DgOFHOwZLyrMChrDaJbCwDwjMrL",
		Title:        "Healthcare & Medicines",
		Slug:         "healthcare-medicines",
		Description:  "Weekly doctor visits, physiotherapy and free medicines for residents and elders from nearby villages.",
		DisplayOrder: 2,
		IsActive:     true,
	},
	{
		ID:           "4evACVzUFRnosd8S8w57abiU6RbK5zpA",
		Title:        "Nutrition Program",
		Slug:         "nutrition-program",
		Description:  "Three balanced meals a day planned around the dietary needs of the elderly.",
		DisplayOrder: 3,
		IsActive:     true,
	},
	{
		ID:           "7IiwKxtdgvo0OXo4EPMIINDISgPKhhnd",
		Title:        "Companionship & Recreation",
		Slug:         "companionship-recreation",
		Description:  "Volunteer visits, festivals, yoga and reading sessions that keep residents active and connected.",
		DisplayOrder: 4,
		IsActive:     true,
	},
	{
		ID:           "JgL56XHqA1b0iTyruUnIzv6gFCG5IscG",
		Title:        "Community Outreach",
		Slug:         "community-outreach",
		Description:  "Health camps, blanket drives and pension paperwork help for elders living alone.",
		DisplayOrder: 5,
		IsActive:     true,
	},
}

type SyncResult struct {
	Upserted int
	Deleted  int
}

// SyncPrograms makes the programs table match programs: rows not in the list
// are deleted, the rest are inserted or updated.
func SyncPrograms(ctx context.Context, logger logrus.FieldLogger, repo ProgramRepository, programs []types.Program) (SyncResult, error) {
	var result SyncResult

	seedIDs := make(map[string]bool, len(programs))
	for _, p := range programs {
		if p.ID == "" {
			return result, fmt.Errorf("program %s has no id", p.Slug)
		}
		seedIDs[p.ID] = true
	}

	existing, err := repo.AllPrograms(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch existing programs: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"seed":     len(programs),
		"database": len(existing),
	}).Info("syncing programs")

	for _, p := range existing {
		if seedIDs[p.ID] {
			continue
		}
		logger.WithField("slug", p.Slug).Info("deleting program")
		if err := repo.DeleteProgram(ctx, p.ID); err != nil {
			return result, fmt.Errorf("failed to delete program %s: %w", p.ID, err)
		}
		result.Deleted++
	}

	for i := range programs {
		p := programs[i]
		if err := repo.UpsertProgram(ctx, &p); err != nil {
			return result, fmt.Errorf("failed to upsert program %s: %w", p.Slug, err)
		}
		result.Upserted++
	}

	return result, nil
}
