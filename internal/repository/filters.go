package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE argument that matches the value as a
// substring, with LIKE metacharacters in the input escaped so they match
// literally.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
