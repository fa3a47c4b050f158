package overlaypal

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/nes"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// ExportDB caches exports keyed by the image and configuration that
// produced them.
type ExportDB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewExportDB opens or creates the cache in file.
func NewExportDB(file string) (*ExportDB, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS export (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &ExportDB{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Key returns the cache key for converting m with background color bg
// and configuration cfg.
func Key(m *grid.Image, background uint8, cfg Config) string {
	h := sha1.New()
	fmt.Fprintf(h, "%dx%d:%02x:%+v:", m.Width(), m.Height(), background, cfg)
	for _, row := range m.Rows() {
		h.Write(row)
	}
	return fmt.Sprintf("%X", h.Sum(nil))
}

// Find returns the export stored under key, or nil if there is none.
func (db *ExportDB) Find(key string) (*nes.Export, error) {
	var data []byte
	switch err := db.db.QueryRow("SELECT data FROM export WHERE sha1 = ?", key).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		b, err := db.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, err
		}
		e := new(nes.Export)
		if err := e.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, err
	}
}

// Store saves e under key, replacing any previous export.
func (db *ExportDB) Store(key string, e *nes.Export) error {
	b, err := e.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := db.db.Exec("INSERT OR REPLACE INTO export (sha1, data) VALUES (?, ?)", key, db.enc.EncodeAll(b, nil)); err != nil {
		return err
	}
	return nil
}

// Close closes the cache.
func (db *ExportDB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		return err
	}
	return db.db.Close()
}
