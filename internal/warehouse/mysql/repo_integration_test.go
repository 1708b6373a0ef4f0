//go:build integration

package mysql

import (
	"context"
	"os"
	"reflect"
	"testing"

	"songlake/internal/schema"
)

// getTestDSN returns the MySQL DSN for integration tests, or skips the test
// when MYSQL_TEST_DSN is unset. Example:
//
//	MYSQL_TEST_DSN="etl:etl@tcp(127.0.0.1:3306)/sparkifydb" go test -tags integration ./internal/warehouse/mysql/
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set, skipping integration test")
	}
	return dsn
}

func TestEnsureAndReplaceIntegration(t *testing.T) {
	ctx := context.Background()
	r, closeFn, err := NewRepository(ctx, Config{DSN: getTestDSN(t)})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	if err := r.EnsureTable(ctx, schema.TableUsers); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	n, err := r.Replace(ctx, schema.TableUsers, schema.UserColumns, [][]any{
		{"26", "Ryan", "Smith", "M", "free"},
		{"80", "Tegan", "Levine", "F", "paid"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if n != 2 {
		t.Fatalf("Replace inserted %d rows, want 2", n)
	}

	// A second Replace overwrites rather than appends.
	n, err = r.Replace(ctx, schema.TableUsers, schema.UserColumns, [][]any{
		{"26", "Ryan", "Smith", "M", "paid"},
	})
	if err != nil {
		t.Fatalf("Replace again: %v", err)
	}
	if n != 1 {
		t.Fatalf("second Replace inserted %d rows, want 1", n)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT user_id, level FROM `users` ORDER BY user_id")
	if err != nil {
		t.Fatalf("query users: %v", err)
	}
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var id, level string
		if err := rows.Scan(&id, &level); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, [2]string{id, level})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	want := [][2]string{{"26", "paid"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("users = %v, want %v", got, want)
	}
}
