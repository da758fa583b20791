package database

import "strings"

// queries holds every statement the store runs, rebound for one dialect.
type queries struct {
	loadSave   string
	upsertSave string
	deleteSave string
	listSaves  string

	insertGrant  string
	sumGrants    string
	playerGrants string
}

func newQueries(d Dialect) queries {
	return queries{
		loadSave: rebind(d, `SELECT blob FROM quest_saves WHERE save_key = ?`),
		upsertSave: rebind(d, `
			INSERT INTO quest_saves (save_key, blob, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(save_key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`),
		deleteSave: rebind(d, `DELETE FROM quest_saves WHERE save_key = ?`),
		listSaves: rebind(d, `
			SELECT save_key, LENGTH(blob), updated_at FROM quest_saves
			WHERE save_key LIKE ? ESCAPE '\' ORDER BY save_key`),

		insertGrant: rebind(d, `
			INSERT INTO reward_grants (player_id, quest_code, kind, reward_id, amount, granted_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
		sumGrants: rebind(d, `
			SELECT COALESCE(SUM(amount), 0) FROM reward_grants
			WHERE player_id = ? AND kind = ? AND reward_id = ?`),
		playerGrants: rebind(d, `
			SELECT id, player_id, quest_code, kind, reward_id, amount, granted_at
			FROM reward_grants WHERE player_id = ? ORDER BY id`),
	}
}

// rebind rewrites ? placeholders into the dialect's numbered form.
// Question marks inside single-quoted literals are left alone.
func rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	position := 1
	quoted := false
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'':
			quoted = !quoted
			sb.WriteByte(c)
		case c == '?' && !quoted:
			sb.WriteString(d.Placeholder(position))
			position++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
