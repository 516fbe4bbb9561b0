package skiplist

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fuzzOp struct {
	typ byte
	key int64
	val int64
}

type fuzzRecord struct {
	index int
	op    fuzzOp
	start time.Time
	end   time.Time

	ins *insertResult
	get *findResult
	del *deleteResult
}

type insertResult struct {
	inserted bool
}

type findResult struct {
	value int64
	ok    bool
}

type deleteResult struct {
	ok bool
}

func FuzzSkipListLinearizability(f *testing.F) {
	f.Add([]byte{0, 1, 1, 0, 2, 2})
	f.Add([]byte{1, 2, 3, 2, 2, 4})
	f.Add([]byte{2, 3, 5, 0, 3, 7})
	f.Add([]byte{0, 4, 1, 2, 4, 0, 0, 4, 2, 1, 4, 0})
	// Insert, delete and re-insert one key while a second delete races.
	f.Add([]byte{0, 5, 1, 2, 5, 0, 0, 5, 9, 2, 5, 0, 1, 5, 0})

	f.Fuzz(func(t *testing.T, input []byte) {
		const maxOps = 5
		ops := decodeFuzzOps(input, maxOps)
		if len(ops) == 0 {
			t.Skip()
		}

		sl := New(WithMaxLevel(4))
		records := make([]*fuzzRecord, len(ops))

		var wg sync.WaitGroup
		wg.Add(len(ops))
		for i, op := range ops {
			go func() {
				defer wg.Done()
				rec := &fuzzRecord{index: i, op: op}
				rec.start = time.Now()
				switch op.typ % 3 {
				case 0:
					inserted, err := sl.Insert(op.key, op.val)
					if err != nil {
						t.Errorf("insert %d: %v", op.key, err)
					}
					rec.ins = &insertResult{inserted: inserted}
				case 1:
					value, ok := sl.Find(op.key)
					rec.get = &findResult{value: value, ok: ok}
				case 2:
					ok, err := sl.Delete(op.key)
					if err != nil {
						t.Errorf("delete %d: %v", op.key, err)
					}
					rec.del = &deleteResult{ok: ok}
				}
				rec.end = time.Now()
				records[i] = rec
			}()
		}
		wg.Wait()

		if err := sl.Verify(); err != nil {
			t.Fatalf("levels not nested after %v: %v", summarizeRecords(records), err)
		}
		if !checkLinearizable(records) {
			t.Fatalf("non-linearizable history: %v", summarizeRecords(records))
		}
	})
}

func decodeFuzzOps(input []byte, maxOps int) []fuzzOp {
	if maxOps <= 0 {
		return nil
	}
	ops := make([]fuzzOp, 0, maxOps)
	for i := 0; i+2 < len(input) && len(ops) < maxOps; i += 3 {
		typ := input[i] % 3
		key := int64(input[i+1] % 8)
		val := int64(int8(input[i+2]))
		ops = append(ops, fuzzOp{typ: typ, key: key, val: val})
	}
	return ops
}

func checkLinearizable(records []*fuzzRecord) bool {
	n := len(records)
	if n == 0 {
		return true
	}

	deps := make([]uint32, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if !records[i].end.After(records[j].start) {
				deps[j] |= 1 << i
			}
		}
	}

	used := uint32(0)
	order := make([]*fuzzRecord, 0, n)

	var dfs func() bool
	dfs = func() bool {
		if len(order) == n {
			return validateSequential(order)
		}
		for i := 0; i < n; i++ {
			if used&(1<<i) != 0 {
				continue
			}
			if deps[i]&^used != 0 {
				continue
			}
			used |= 1 << i
			order = append(order, records[i])
			if dfs() {
				return true
			}
			order = order[:len(order)-1]
			used &^= 1 << i
		}
		return false
	}

	return dfs()
}

func validateSequential(order []*fuzzRecord) bool {
	model := make(map[int64]int64)
	for _, rec := range order {
		switch rec.op.typ % 3 {
		case 0:
			_, present := model[rec.op.key]
			if rec.ins == nil || rec.ins.inserted == present {
				return false
			}
			if !present {
				model[rec.op.key] = rec.op.val
			}
		case 1:
			expected, present := model[rec.op.key]
			if rec.get == nil || rec.get.ok != present {
				return false
			}
			if present && rec.get.value != expected {
				return false
			}
		case 2:
			_, present := model[rec.op.key]
			if rec.del == nil || rec.del.ok != present {
				return false
			}
			delete(model, rec.op.key)
		}
	}
	return true
}

func summarizeRecords(records []*fuzzRecord) string {
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		parts = append(parts, fmt.Sprintf("{%d %d %d}", rec.op.typ, rec.op.key, rec.op.val))
	}
	return fmt.Sprintf("%v", parts)
}
