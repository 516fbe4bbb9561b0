package skiplist

import (
	"fmt"
	"io"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/pkg/errors"
)

// Keys are stored in bitmaps with the sign bit flipped so that unsigned
// order matches int64 order.
func encodeKey(k int64) uint64 { return uint64(k) ^ (1 << 63) }

func decodeKey(u uint64) int64 { return int64(u ^ (1 << 63)) }

// LevelKeys returns the live keys of level i in ascending order.
func (sl *SkipList) LevelKeys(i int) []int64 {
	return sl.levels[i].Keys()
}

// levelSet snapshots the live keys of level i, failing if they are not
// strictly ascending.
func (sl *SkipList) levelSet(i int) (*roaring64.Bitmap, error) {
	set := roaring64.NewBitmap()
	var (
		prev  int64
		first = true
		err   error
	)
	sl.levels[i].Range(func(key, _ int64) bool {
		if !first && key <= prev {
			err = errors.Errorf("level %d out of order: %d after %d", i, key, prev)
			return false
		}
		first = false
		prev = key
		set.Add(encodeKey(key))
		return true
	})
	return set, err
}

// Verify checks the structure of a quiescent SkipList: every level is
// strictly ascending and every key on level i > 0 is also on level i-1.
// Run concurrently with writers it may report transient states.
func (sl *SkipList) Verify() error {
	var lower *roaring64.Bitmap
	for i := range sl.levels {
		set, err := sl.levelSet(i)
		if err != nil {
			return err
		}
		if lower != nil {
			if orphans := roaring64.AndNot(set, lower); !orphans.IsEmpty() {
				return errors.Errorf("level %d holds key %d missing from level %d (%d keys affected)",
					i, decodeKey(orphans.Minimum()), i-1, orphans.GetCardinality())
			}
		}
		lower = set
	}
	return nil
}

// Dump writes the levels top down, one line each. Keys are aligned in
// columns taken from level 0 so towers read vertically.
func (sl *SkipList) Dump(w io.Writer) error {
	type cell struct {
		key  uint64
		text string
	}
	var cells []cell
	sl.levels[0].Range(func(key, value int64) bool {
		cells = append(cells, cell{key: encodeKey(key), text: fmt.Sprintf("(%d, %d)", key, value)})
		return true
	})

	var sb strings.Builder
	sb.WriteString("# lock-free skiplist\n")
	fmt.Fprintf(&sb, "# size : %d\n", sl.Len())
	for i := len(sl.levels) - 1; i >= 0; i-- {
		set, _ := sl.levelSet(i)
		var line strings.Builder
		fmt.Fprintf(&line, "level %2d :", i)
		for _, c := range cells {
			line.WriteByte(' ')
			if set.Contains(c.key) {
				line.WriteString(c.text)
			} else {
				line.WriteString(strings.Repeat(" ", len(c.text)))
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the Dump output.
func (sl *SkipList) String() string {
	var sb strings.Builder
	_ = sl.Dump(&sb)
	return sb.String()
}
