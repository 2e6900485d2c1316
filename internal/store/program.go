package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"vridhashram/internal/utils"
	"vridhashram/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const programTableName = "ashram.programs"

var programColumns = utils.StructTagValues(types.Program{})

type ProgramRepository struct {
	pool *pgxpool.Pool
}

func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{pool: pool}
}

// ActivePrograms returns the programs shown on the public site.
func (r *ProgramRepository) ActivePrograms(ctx context.Context) ([]*types.Program, error) {
	return r.programs(ctx, sq.Eq{"is_active": true})
}

// AllPrograms includes inactive programs. Used by the seed sync.
func (r *ProgramRepository) AllPrograms(ctx context.Context) ([]*types.Program, error) {
	return r.programs(ctx, nil)
}

func (r *ProgramRepository) programs(ctx context.Context, where sq.Sqlizer) ([]*types.Program, error) {
	builder := psql().
		Select(programColumns...).
		From(programTableName).
		OrderBy("display_order ASC", "title ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate programs query: %w", err)
	}

	var programs = make([]*types.Program, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &programs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch programs: %w", err)
	}

	return programs, nil
}

func (r *ProgramRepository) UpsertProgram(ctx context.Context, program *types.Program) error {
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now()
	}
	programMap := utils.StructToMap(program)

	updateMap := make(map[string]any)
	for k, v := range programMap {
		if k != "id" && k != "created_at" {
			updateMap[k] = v
		}
	}

	query, args, err := psql().
		Insert(programTableName).
		SetMap(programMap).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + buildUpdateClause(updateMap)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate program upsert query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert program: %w", err)
	}

	return nil
}

func (r *ProgramRepository) DeleteProgram(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(programTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate program delete query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrProgramNotFound
	}

	return nil
}

// buildUpdateClause creates the SET clause for ON CONFLICT DO UPDATE,
// e.g. "slug = EXCLUDED.slug, title = EXCLUDED.title". Columns are sorted so
// the generated SQL is stable.
func buildUpdateClause(fields map[string]any) string {
	columns := make([]string, 0, len(fields))
	for field := range fields {
		columns = append(columns, field)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	return strings.Join(parts, ", ")
}
