package datastore

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pixel-beads/api/models"
)

type PatternRepository interface {
	Create(pattern models.Pattern) (models.Pattern, error)
	Get(id int64) (models.Pattern, error)
	List(query models.PatternListQuery) (models.PatternList, error)
	Update(pattern models.Pattern) (models.Pattern, error)
	Delete(id int64) (bool, error)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type PatternDatabase struct {
	database *sql.DB
}

func NewPatternDatabase(db *sql.DB) (PatternDatabase, error) {
	var patternDB PatternDatabase
	patternDB.database = db
	return patternDB, nil
}

const patternColumns = `p.id, p.name, p.description, p.width, p.height, p.palette, p.data, p.created_at, p.updated_at`

// Create inserts a pattern and attaches its tags in one transaction
func (pdb PatternDatabase) Create(pattern models.Pattern) (models.Pattern, error) {
	tx, err := pdb.database.Begin()
	if err != nil {
		return models.Pattern{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	pattern.CreatedAt = now
	pattern.UpdatedAt = now

	sqlStatement := `
		INSERT INTO patterns (name, description, width, height, palette, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err = tx.QueryRow(
		sqlStatement,
		pattern.Name,
		pattern.Description,
		pattern.Width,
		pattern.Height,
		pattern.Palette,
		pattern.Data,
		pattern.CreatedAt,
		pattern.UpdatedAt,
	).Scan(&pattern.ID)
	if err != nil {
		return models.Pattern{}, fmt.Errorf("failed to create pattern: %w", err)
	}

	pattern.Tags, err = setPatternTags(tx, pattern.ID, pattern.Tags, now)
	if err != nil {
		return models.Pattern{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Pattern{}, err
	}

	return pattern, nil
}

// Get retrieves a pattern and its tags by ID
func (pdb PatternDatabase) Get(id int64) (models.Pattern, error) {
	db := pdb.database

	sqlStatement := `SELECT ` + patternColumns + ` FROM patterns p WHERE p.id = $1`

	pattern, err := scanPattern(db.QueryRow(sqlStatement, id))
	switch err {
	case sql.ErrNoRows:
		return models.Pattern{}, NoRowsError{true, err}
	case nil:
	default:
		return models.Pattern{}, err
	}

	tags, err := loadTags(db, []int64{id})
	if err != nil {
		return models.Pattern{}, err
	}
	pattern.Tags = tags[id]

	return pattern, nil
}

// List returns one page of patterns matching the query. The query must
// already be normalized.
func (pdb PatternDatabase) List(query models.PatternListQuery) (models.PatternList, error) {
	db := pdb.database

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Keyword != "" {
		like := arg("%" + escapeLike(strings.ToLower(query.Keyword)) + "%")
		conditions = append(conditions, fmt.Sprintf(
			`(LOWER(p.name) LIKE %[1]s ESCAPE '\' OR LOWER(p.description) LIKE %[1]s ESCAPE '\')`, like))
	}
	if query.Tag != "" {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM pattern_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.pattern_id = p.id AND t.name = %s)`, arg(query.Tag)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM patterns p`+where, args...).Scan(&total); err != nil {
		return models.PatternList{}, fmt.Errorf("failed to count patterns: %w", err)
	}

	column, order := sortClause(query)
	sqlStatement := fmt.Sprintf(`SELECT %s FROM patterns p%s ORDER BY p.%s %s, p.id %s LIMIT %s OFFSET %s`,
		patternColumns, where, column, order, order, arg(query.PageSize), arg(query.Offset()))

	rows, err := db.Query(sqlStatement, args...)
	if err != nil {
		return models.PatternList{}, err
	}
	defer rows.Close()

	items := []models.Pattern{}
	var ids []int64
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return models.PatternList{}, err
		}
		items = append(items, pattern)
		ids = append(ids, pattern.ID)
	}
	if err = rows.Err(); err != nil {
		return models.PatternList{}, err
	}

	tags, err := loadTags(db, ids)
	if err != nil {
		return models.PatternList{}, err
	}
	for i := range items {
		items[i].Tags = tags[items[i].ID]
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.PageSize - 1) / query.PageSize
	}

	return models.PatternList{
		Items: items,
		Pagination: models.Pagination{
			Page:       query.Page,
			PageSize:   query.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Update overwrites every column of an existing pattern and replaces its tags
func (pdb PatternDatabase) Update(pattern models.Pattern) (models.Pattern, error) {
	tx, err := pdb.database.Begin()
	if err != nil {
		return models.Pattern{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	sqlStatement := `
		UPDATE patterns
		SET name = $1, description = $2, width = $3, height = $4, palette = $5, data = $6, updated_at = $7
		WHERE id = $8`

	result, err := tx.Exec(
		sqlStatement,
		pattern.Name,
		pattern.Description,
		pattern.Width,
		pattern.Height,
		pattern.Palette,
		pattern.Data,
		now,
		pattern.ID,
	)
	if err != nil {
		return models.Pattern{}, fmt.Errorf("failed to update pattern: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return models.Pattern{}, err
	} else if affected == 0 {
		return models.Pattern{}, NoRowsError{true, sql.ErrNoRows}
	}

	if _, err := setPatternTags(tx, pattern.ID, pattern.Tags, now); err != nil {
		return models.Pattern{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Pattern{}, err
	}

	return pdb.Get(pattern.ID)
}

// Delete removes a pattern by ID. The bool is false when nothing matched.
func (pdb PatternDatabase) Delete(id int64) (bool, error) {
	db := pdb.database

	sqlStatement := `DELETE FROM patterns WHERE id = $1`
	result, err := db.Exec(sqlStatement, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(row rowScanner) (models.Pattern, error) {
	var p models.Pattern
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Width,
		&p.Height,
		&p.Palette,
		&p.Data,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Tags = []string{}
	return p, err
}

func sortClause(query models.PatternListQuery) (string, string) {
	column := "updated_at"
	switch query.Sort {
	case "created_at", "name":
		column = query.Sort
	}
	order := "DESC"
	if query.Order == "asc" {
		order = "ASC"
	}
	return column, order
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// setPatternTags replaces the tags of a pattern, creating missing tags.
// It returns the de-duplicated, sorted tag names.
func setPatternTags(q queryer, patternID int64, names []string, now time.Time) ([]string, error) {
	if _, err := q.Exec(`DELETE FROM pattern_tags WHERE pattern_id = $1`, patternID); err != nil {
		return nil, fmt.Errorf("failed to clear pattern tags: %w", err)
	}

	seen := make(map[string]bool, len(names))
	unique := []string{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	sort.Strings(unique)

	for _, name := range unique {
		_, err := q.Exec(`INSERT INTO tags (name, created_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, name, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
		}

		var tagID int64
		if err := q.QueryRow(`SELECT id FROM tags WHERE name = $1`, name).Scan(&tagID); err != nil {
			return nil, fmt.Errorf("failed to look up tag %q: %w", name, err)
		}

		_, err = q.Exec(`INSERT INTO pattern_tags (pattern_id, tag_id) VALUES ($1, $2)`, patternID, tagID)
		if err != nil {
			return nil, fmt.Errorf("failed to tag pattern: %w", err)
		}
	}

	return unique, nil
}

// loadTags returns the tag names of each pattern, sorted by name.
func loadTags(q queryer, ids []int64) (map[int64][]string, error) {
	tags := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
		tags[id] = []string{}
	}

	sqlStatement := `
		SELECT pt.pattern_id, t.name
		FROM pattern_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.pattern_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY t.name`

	rows, err := q.Query(sqlStatement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		tags[id] = append(tags[id], name)
	}

	return tags, rows.Err()
}
