package directory

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/docidx/docidx/internal/errs"
)

// Replay writes every record a promoted temp index has accumulated into
// the freshly opened filesystem index. The Index Core supplies this,
// since it — not Directory — owns the per-field analyzer and the record
// buffer needed to re-encode each document; Directory only owns opening
// and closing storage.
type Replay func(dst bleve.Index) error

// Promote materializes a RAM-resident temp directory's contents into a
// new filesystem directory rooted at targetPath: it opens the target,
// replays every record into it via replay, and returns the new Directory
// and its open index handle. The caller is responsible for closing the
// old RAM-backed writer and swapping the Index's Directory reference —
// Promote only builds the replacement, it does not tear down the
// original.
func Promote(targetPath string, im *mapping.IndexMappingImpl, replay Replay) (*FSDirectory, bleve.Index, error) {
	fsDir := NewFS(targetPath)
	dst, err := fsDir.Open(im)
	if err != nil {
		return nil, nil, err
	}

	if err := replay(dst); err != nil {
		_ = dst.Close()
		_ = fsDir.Close()
		return nil, nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("replaying records during promotion: %w", err))
	}

	return fsDir, dst, nil
}
