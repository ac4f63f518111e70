package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/potager/plant-catalog/internal/model"
)

const plantColumns = "id,name,image,type,description,sowing_period,planting_period,harvest_period,soil,watering,exposure,maintenance,created_at,updated_at"

// PlantRepo provides catalog persistence.  Reads are public; writes are
// reached only through the admin-gated handlers.
type PlantRepo struct{ DB *sql.DB }

func NewPlantRepo(db *sql.DB) *PlantRepo { return &PlantRepo{DB: db} }

// Create inserts a plant and returns the stored record.
func (r *PlantRepo) Create(ctx context.Context, p model.Plant) (model.Plant, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO plants (name, image, type, description, sowing_period, planting_period, harvest_period, soil, watering, exposure, maintenance)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Image, p.Type, p.Description,
		nullable(p.SowingPeriod), nullable(p.PlantingPeriod), p.HarvestPeriod,
		p.Soil, p.Watering, p.Exposure, p.Maintenance)
	if err != nil {
		return model.Plant{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Plant{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update overwrites every catalog field of a plant.  The handler validates
// the field set before calling, so a partial update never reaches here.
func (r *PlantRepo) Update(ctx context.Context, p model.Plant) (model.Plant, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE plants SET name=?, image=?, type=?, description=?, sowing_period=?, planting_period=?,
		 harvest_period=?, soil=?, watering=?, exposure=?, maintenance=? WHERE id=?`,
		p.Name, p.Image, p.Type, p.Description,
		nullable(p.SowingPeriod), nullable(p.PlantingPeriod), p.HarvestPeriod,
		p.Soil, p.Watering, p.Exposure, p.Maintenance, p.ID)
	if err != nil {
		return model.Plant{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return model.Plant{}, err
		}
	}
	return r.GetByID(ctx, p.ID)
}

// SetImage stores the media-host URL on an existing plant row.  It runs
// after the row has been created, so an upload failure leaves the plant
// without an image instead of removing it.
func (r *PlantRepo) SetImage(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE plants SET image=? WHERE id=?", url, id)
	return err
}

// Delete removes a plant together with the favorites and events that
// reference it, in one transaction.
func (r *PlantRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, q := range []string{
		"DELETE FROM favorites WHERE plant_id=?",
		"DELETE FROM events WHERE plant_id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM plants WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single plant.
func (r *PlantRepo) GetByID(ctx context.Context, id uint64) (model.Plant, error) {
	return scanPlant(r.DB.QueryRowContext(ctx,
		"SELECT "+plantColumns+" FROM plants WHERE id=? LIMIT 1", id))
}

// ListAll returns the whole catalog ordered by name ascending.
func (r *PlantRepo) ListAll(ctx context.Context) ([]model.Plant, error) {
	return r.queryMany(ctx, "SELECT "+plantColumns+" FROM plants ORDER BY name ASC")
}

// SearchByName returns plants whose name contains the pattern,
// case-insensitively.  LIKE wildcards in the input are escaped so a
// literal "%" searches for a percent sign.
func (r *PlantRepo) SearchByName(ctx context.Context, pattern string) ([]model.Plant, error) {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(pattern)
	return r.queryMany(ctx,
		"SELECT "+plantColumns+" FROM plants WHERE LOWER(name) LIKE ? ORDER BY name ASC",
		"%"+strings.ToLower(esc)+"%")
}

// ListByPeriod returns plants whose given period field contains the month
// as a token.  A coarse SQL LIKE narrows the rows, then the exact token
// match runs in Go because "1" as a substring would also hit "10".
func (r *PlantRepo) ListByPeriod(ctx context.Context, periodType string, month int) ([]model.Plant, error) {
	if !ValidPeriodType(periodType) {
		return nil, fmt.Errorf("unknown period type %q", periodType)
	}
	col := periodType + "_period"
	rows, err := r.queryMany(ctx,
		"SELECT "+plantColumns+" FROM plants WHERE "+col+" LIKE ? ORDER BY name ASC",
		fmt.Sprintf("%%%d%%", month))
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		var field string
		switch periodType {
		case PeriodSowing:
			field = p.SowingPeriod
		case PeriodPlanting:
			field = p.PlantingPeriod
		case PeriodHarvest:
			field = p.HarvestPeriod
		}
		if PeriodContainsMonth(field, month) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PlantRepo) queryMany(ctx context.Context, query string, args ...interface{}) ([]model.Plant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Plant, 0)
	for rows.Next() {
		p, err := scanPlantRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// nullable maps "" to NULL so empty period strings round-trip as NULL
// columns like the rest of the catalog tooling expects.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanPlant(row *sql.Row) (model.Plant, error) {
	var (
		p                model.Plant
		image, typ       sql.NullString
		sowing, planting sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &image, &typ, &p.Description, &sowing, &planting,
		&p.HarvestPeriod, &p.Soil, &p.Watering, &p.Exposure, &p.Maintenance, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Plant{}, ErrNotFound
	}
	if err != nil {
		return model.Plant{}, err
	}
	applyNullable(&p, image, typ, sowing, planting)
	return p, nil
}

func scanPlantRows(rows *sql.Rows) (model.Plant, error) {
	var (
		p                model.Plant
		image, typ       sql.NullString
		sowing, planting sql.NullString
	)
	err := rows.Scan(&p.ID, &p.Name, &image, &typ, &p.Description, &sowing, &planting,
		&p.HarvestPeriod, &p.Soil, &p.Watering, &p.Exposure, &p.Maintenance, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Plant{}, err
	}
	applyNullable(&p, image, typ, sowing, planting)
	return p, nil
}

func applyNullable(p *model.Plant, image, typ, sowing, planting sql.NullString) {
	if image.Valid {
		v := image.String
		p.Image = &v
	}
	if typ.Valid {
		v := typ.String
		p.Type = &v
	}
	if sowing.Valid {
		p.SowingPeriod = sowing.String
	}
	if planting.Valid {
		p.PlantingPeriod = planting.String
	}
}
