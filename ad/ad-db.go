package ad

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ad-match/site/db"
)

const createAdTable = `CREATE TABLE IF NOT EXISTS Ad (
	ad_id NOT NULL UNIQUE,
	image_url TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	tagline TEXT NOT NULL,
	text TEXT NOT NULL,
	category TEXT
)`

// DBSource reads ads from the Ad table of the catalog database
type DBSource struct{}

// NewDBCatalog creates a catalog backed by the Ad table
func NewDBCatalog() *Catalog {
	return NewCatalog(DBSource{})
}

func (DBSource) String() string {
	return "database table Ad"
}

// ReadAds returns every row of the Ad table in insertion order
func (DBSource) ReadAds() ([]Ad, error) {
	rows, err := db.Query("SELECT ad_id, image_url, link, tagline, text, category FROM Ad ORDER BY rowid")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, fmt.Errorf("%w: %v", ErrDataSourceNotFound, err)
		}
		return nil, err
	}
	defer rows.Close()

	var ads []Ad
	for i := 0; rows.Next(); i++ {
		var rawID any
		var imageURL, link, tagline, text, category sql.NullString
		if err := rows.Scan(&rawID, &imageURL, &link, &tagline, &text, &category); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrDataFormat, i, err)
		}

		id, ok := scanID(rawID)
		if !ok {
			return nil, &SchemaError{Index: i, Fields: []string{"ad_id"}}
		}
		ads = append(ads, Ad{
			ID:       id,
			ImageURL: imageURL.String,
			Link:     link.String,
			Tagline:  tagline.String,
			Text:     text.String,
			Category: category.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if ads == nil {
		ads = []Ad{}
	}
	return ads, nil
}

// scanID keeps the storage type of the column: integers stay integers and
// text stays text, so "3" in the table is not confused with 3.
func scanID(v any) (ID, bool) {
	switch val := v.(type) {
	case int64:
		return IntID(val), true
	case string:
		if val == "" {
			return ID{}, false
		}
		return StringID(val), true
	case []byte:
		if len(val) == 0 {
			return ID{}, false
		}
		return StringID(string(val)), true
	case float64:
		return ParseID(val)
	default:
		return ID{}, false
	}
}

// SaveAll replaces the contents of the Ad table with the given ads
func SaveAll(ads []Ad) error {
	if _, err := validateAds(ads); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createAdTable); err != nil {
		return fmt.Errorf("error creating Ad table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM Ad"); err != nil {
		return fmt.Errorf("error clearing Ad table: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO Ad (ad_id, image_url, link, tagline, text, category) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range ads {
		var category any
		if a.Category != "" {
			category = a.Category
		}
		if _, err := stmt.Exec(a.ID.Value(), a.ImageURL, a.Link, a.Tagline, a.Text, category); err != nil {
			return fmt.Errorf("error inserting ad %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}
