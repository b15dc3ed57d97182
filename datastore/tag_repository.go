package datastore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pixel-beads/api/models"
)

type TagRepository interface {
	GetAll() ([]models.Tag, error)
	Create(name string) (models.Tag, error)
	GetByName(name string) (models.Tag, error)
	Delete(id int64) (bool, error)
}

type TagDatabase struct {
	database *sql.DB
}

func NewTagDatabase(db *sql.DB) (TagDatabase, error) {
	var tagDB TagDatabase
	tagDB.database = db
	return tagDB, nil
}

// GetAll retrieves every tag with the number of patterns using it
func (tdb TagDatabase) GetAll() ([]models.Tag, error) {
	db := tdb.database

	sqlStatement := `
		SELECT t.id, t.name, t.created_at, COUNT(pt.pattern_id)
		FROM tags t
		LEFT JOIN pattern_tags pt ON pt.tag_id = t.id
		GROUP BY t.id, t.name, t.created_at
		ORDER BY t.name`

	rows, err := db.Query(sqlStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.Count); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// Create inserts a tag. A duplicate name yields a ConflictError.
func (tdb TagDatabase) Create(name string) (models.Tag, error) {
	db := tdb.database

	tag := models.Tag{Name: name, CreatedAt: time.Now().UTC()}

	sqlStatement := `
		INSERT INTO tags (name, created_at)
		VALUES ($1, $2)
		RETURNING id`

	err := db.QueryRow(sqlStatement, tag.Name, tag.CreatedAt).Scan(&tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Tag{}, ConflictError{Resource: "tag " + name, Err: err}
		}
		return models.Tag{}, fmt.Errorf("failed to create tag: %w", err)
	}

	return tag, nil
}

// GetByName retrieves a tag and its usage count by exact name
func (tdb TagDatabase) GetByName(name string) (models.Tag, error) {
	db := tdb.database

	sqlStatement := `
		SELECT t.id, t.name, t.created_at,
			(SELECT COUNT(*) FROM pattern_tags pt WHERE pt.tag_id = t.id)
		FROM tags t
		WHERE t.name = $1`

	var tag models.Tag
	err := db.QueryRow(sqlStatement, name).Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.Count)

	switch err {
	case sql.ErrNoRows:
		return models.Tag{}, NoRowsError{true, err}
	case nil:
		return tag, nil
	default:
		return models.Tag{}, err
	}
}

// Delete removes a tag; its pattern links cascade
func (tdb TagDatabase) Delete(id int64) (bool, error) {
	db := tdb.database

	result, err := db.Exec(`DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
