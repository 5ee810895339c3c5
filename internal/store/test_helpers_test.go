package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/branchless/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProgram(construct string) ir.Program {
	return ir.Program{
		Name:      "count",
		Construct: construct,
		Width:     32,
		Signed:    true,
		Relation:  ir.RelLT,
		Limit:     2,
		Step:      1,
	}
}

// createTestRun builds a consistent for-loop run of two iterations
// starting at seq.
func createTestRun(id, token string, seq int64) (ir.Run, []ir.Transition) {
	run := ir.Run{
		ID:            id,
		RunToken:      token,
		Program:       testProgram(ir.ConstructFor),
		ProgramHash:   "test-hash",
		Mode:          "trampoline",
		Seq:           seq,
		BodyCount:     2,
		Final:         2,
		Outcome:       ir.OutcomeTerminate,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	transitions := []ir.Transition{
		{RunID: id, Seq: seq + 1, Iteration: 0, Mask: "0xffffffff", Outcome: ir.OutcomeContinue, Value: 0},
		{RunID: id, Seq: seq + 2, Iteration: 1, Mask: "0xffffffff", Outcome: ir.OutcomeContinue, Value: 1},
		{RunID: id, Seq: seq + 3, Iteration: 2, Mask: "0x0", Outcome: ir.OutcomeTerminate, Value: 2},
	}
	return run, transitions
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
