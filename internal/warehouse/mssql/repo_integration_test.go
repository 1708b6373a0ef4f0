//go:build integration

package mssql

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"
)

// getTestDSN reads the MSSQL_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

// TestEnsureAndReplaceIntegration runs the full ensure + replace + overwrite
// cycle against a real SQL Server.
func TestEnsureAndReplaceIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	defer closeFn()

	if err := repo.EnsureTable(ctx, "users"); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	columns := []string{"user_id", "first_name", "last_name", "gender", "level"}
	n, err := repo.Replace(ctx, "users", columns, [][]any{
		{"26", "Ryan", "Smith", "M", "free"},
		{"80", "Tegan", "Levine", "F", "paid"},
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Replace() = %d rows, want 2", n)
	}

	// The second replace overwrites, not appends.
	n, err = repo.Replace(ctx, "users", columns, [][]any{
		{"26", "Ryan", "Smith", "M", "paid"},
	})
	if err != nil {
		t.Fatalf("second Replace() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("second Replace() = %d rows, want 1", n)
	}

	rows, err := repo.db.QueryContext(ctx, "SELECT user_id, level FROM [users]")
	if err != nil {
		t.Fatalf("query users: %v", err)
	}
	defer rows.Close()
	var got [][2]string
	for rows.Next() {
		var id, level string
		if err := rows.Scan(&id, &level); err != nil {
			t.Fatal(err)
		}
		got = append(got, [2]string{id, level})
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	want := [][2]string{{"26", "paid"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("users rows = %v, want %v", got, want)
	}
}
