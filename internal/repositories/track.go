package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

// artistSeparator joins the artist list into one column; none of the
// supported platforms allow it inside an artist name.
const artistSeparator = "; "

// TrackRepository implements models.Repository[*models.PersistedTrack] over
// the snapshot cache table.
//
// Rows are keyed by the (platform, native id) identity pair and indexed by
// ISRC for cross-platform lookups.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = "id, sequence, platform, native_id, title, artist, album, duration, isrc, year, genre, explicit, created_at, updated_at, deleted_at"

// Create inserts a new [models.PersistedTrack] with a generated ID and, when
// the entity carries sequence 0, the next sequence number.
func (r *TrackRepository) Create(track *models.PersistedTrack) error {
	sequence := track.Sequence()
	if sequence == 0 {
		next, err := NextSequence(r.db, "tracks")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		sequence = next
	}

	track.SetID(shared.GenerateID())

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	t := track.Track()
	query := `
		INSERT INTO tracks (id, sequence, platform, native_id, title, artist, album, duration, isrc, year, genre, explicit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		track.ID(),
		sequence,
		t.Platform.String(),
		t.NativeID,
		t.Title,
		strings.Join(t.Artists, artistSeparator),
		t.Album,
		t.Duration,
		t.ISRC,
		t.Year,
		t.Genre,
		t.Explicit,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by row ID, excluding soft-deleted rows
func (r *TrackRepository) Get(id string) (*models.PersistedTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`, trackColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByIdentity retrieves a track by its (platform, native id) pair
func (r *TrackRepository) GetByIdentity(id models.TrackID) (*models.PersistedTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks
		WHERE platform = ? AND native_id = ? AND deleted_at IS NULL
	`, trackColumns)

	return r.scanOne(r.db.QueryRow(query, id.Platform.String(), id.NativeID))
}

// GetByISRC retrieves a track by ISRC code across any platform
func (r *TrackRepository) GetByISRC(isrc string) (*models.PersistedTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks
		WHERE isrc = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
		LIMIT 1
	`, trackColumns)

	return r.scanOne(r.db.QueryRow(query, isrc))
}

// Update modifies an existing track's comparison fields; identity is immutable
func (r *TrackRepository) Update(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	t := track.Track()
	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, isrc = ?, year = ?, genre = ?, explicit = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		t.Title,
		strings.Join(t.Artists, artistSeparator),
		t.Album,
		t.Duration,
		t.ISRC,
		t.Year,
		t.Genre,
		t.Explicit,
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by row ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria in sequence order,
// excluding soft-deleted rows. Supported criteria: platform, isrc.
func (r *TrackRepository) List(criteria map[string]any) ([]*models.PersistedTrack, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks
		WHERE deleted_at IS NULL
	`, trackColumns)

	args := []any{}

	if platform, ok := criteria["platform"].(string); ok && platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Count returns the number of live cached rows.
func (r *TrackRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE deleted_at IS NULL").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.PersistedTrack, error) {
	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no cached row", shared.ErrTrackNotFound)
	}
	return track, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*models.PersistedTrack, error) {
	var (
		id        string
		sequence  int
		platform  string
		nativeID  string
		title     string
		artist    string
		album     sql.NullString
		duration  sql.NullInt64
		isrc      sql.NullString
		year      sql.NullInt64
		genre     sql.NullString
		explicit  bool
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &platform, &nativeID, &title, &artist, &album, &duration, &isrc, &year, &genre, &explicit, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	t := models.Track{
		Title:    title,
		Album:    album.String,
		Duration: int(duration.Int64),
		ISRC:     isrc.String,
		Year:     int(year.Int64),
		Genre:    genre.String,
		Explicit: explicit,
		Platform: models.Platform(platform),
		NativeID: nativeID,
	}
	if artist != "" {
		t.Artists = strings.Split(artist, artistSeparator)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestorePersistedTrack(id, sequence, t, createdAt, updatedAt, deleted), nil
}
