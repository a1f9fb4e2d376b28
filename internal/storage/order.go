package storage

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/mdexplorer/internal/models"
)

// entryOrder sorts listing entries. A collate.Collator is not safe for
// concurrent use, so each listing builds its own.
type entryOrder struct {
	col *collate.Collator
}

func newEntryOrder() *entryOrder {
	return &entryOrder{col: collate.New(language.Und)}
}

// compare puts directories first, then orders names by the root locale's
// collation. Names the collator considers equal fall back to byte order so
// the result is stable.
func (o *entryOrder) compare(a, b models.Entry) int {
	if a.IsDir != b.IsDir {
		if a.IsDir {
			return -1
		}
		return 1
	}
	if c := o.col.CompareString(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
