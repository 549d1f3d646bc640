package stores

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

const (
	keyLocalPlayers = "localPlayers"
	keyPlayerID     = "playerId"
	keyFavorites    = "favoritesLevelIds"

	keyPlaylistTitle  = "playlistTitle"
	keyPlaylistAuthor = "playlistAuthor"
	keySongs          = "songs"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlayerDocument is a decoded PlayerData.dat. Fields the engine does not touch are kept
// as raw JSON and written back with the same values and without HTML escaping. Top-level
// keys come out in sorted order and whitespace is compacted.
type PlayerDocument struct {
	fields  map[string]json.RawMessage
	players []map[string]json.RawMessage
}

// DecodePlayerData parses a player document.
func DecodePlayerData(data []byte) (*PlayerDocument, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: player data: %w", shared.ErrParse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: player data is not an object", shared.ErrParse)
	}

	doc := &PlayerDocument{fields: fields}
	if raw, ok := fields[keyLocalPlayers]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.players); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrParse, keyLocalPlayers, err)
		}
	}
	return doc, nil
}

// Players returns the number of local player entries.
func (d *PlayerDocument) Players() int {
	return len(d.players)
}

// Profile returns the first local player. Only the first entry is ever synced.
func (d *PlayerDocument) Profile() (*models.PlayerProfile, error) {
	if len(d.players) == 0 {
		return nil, shared.ErrNoPlayer
	}
	player := d.players[0]

	profile := &models.PlayerProfile{}
	if raw, ok := player[keyPlayerID]; ok && !isNull(raw) {
		// Older documents store the id as a bare number.
		if err := json.Unmarshal(raw, &profile.PlayerID); err != nil {
			profile.PlayerID = string(bytes.TrimSpace(raw))
		}
	}
	if raw, ok := player[keyFavorites]; ok && !isNull(raw) {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrParse, keyFavorites, err)
		}
		profile.FavoriteIDs = Dedupe(ids)
	}
	if profile.FavoriteIDs == nil {
		profile.FavoriteIDs = []string{}
	}
	return profile, nil
}

// SetFavorites replaces the first local player's favorites.
func (d *PlayerDocument) SetFavorites(ids []string) error {
	if len(d.players) == 0 {
		return shared.ErrNoPlayer
	}
	ids = Dedupe(ids)
	if ids == nil {
		ids = []string{}
	}
	raw, err := marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: encode favorites: %w", shared.ErrParse, err)
	}
	d.players[0][keyFavorites] = raw
	return nil
}

// Encode serializes the document back to the compact on-disk form.
func (d *PlayerDocument) Encode() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	if d.players != nil {
		raw, err := marshal(d.players)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %w", shared.ErrParse, keyLocalPlayers, err)
		}
		out[keyLocalPlayers] = raw
	}
	data, err := marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: encode player data: %w", shared.ErrParse, err)
	}
	return data, nil
}

// marshal is [json.Marshal] without escaping &, < and >.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodePlaylist parses a .bplist document. The original bytes are kept on the record.
func DecodePlaylist(fileName string, data []byte) (models.PlaylistRecord, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return models.PlaylistRecord{}, fmt.Errorf("%w: %w", shared.ErrParse, err)
	}
	if doc == nil {
		return models.PlaylistRecord{}, fmt.Errorf("%w: playlist is not an object", shared.ErrParse)
	}

	rec := models.PlaylistRecord{FileName: fileName, Document: data}
	raw, ok := doc[keyPlaylistTitle]
	if !ok || json.Unmarshal(raw, &rec.Title) != nil || rec.Title == "" {
		return models.PlaylistRecord{}, fmt.Errorf("%w: missing %s", shared.ErrParse, keyPlaylistTitle)
	}
	if raw, ok := doc[keyPlaylistAuthor]; ok {
		_ = json.Unmarshal(raw, &rec.Author)
	}
	if raw, ok := doc[keySongs]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &rec.Songs); err != nil {
			return models.PlaylistRecord{}, fmt.Errorf("%w: %s: %w", shared.ErrParse, keySongs, err)
		}
	}
	return rec, nil
}

// EncodePlaylist returns the bytes to persist for rec: the document as read when present,
// otherwise a minimal document built from the record's fields.
func EncodePlaylist(rec models.PlaylistRecord) ([]byte, error) {
	if len(rec.Document) > 0 {
		return rec.Document, nil
	}
	songs := rec.Songs
	if songs == nil {
		songs = []json.RawMessage{}
	}
	data, err := marshal(struct {
		Title  string            `json:"playlistTitle"`
		Author string            `json:"playlistAuthor,omitempty"`
		Songs  []json.RawMessage `json:"songs"`
	}{rec.Title, rec.Author, songs})
	if err != nil {
		return nil, fmt.Errorf("%w: encode playlist %s: %w", shared.ErrParse, rec.Title, err)
	}
	return data, nil
}

// Dedupe drops repeated ids, keeping the first occurrence of each.
func Dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
