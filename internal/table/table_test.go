package table_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/table"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47}

func setupService(t *testing.T) *table.Service {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := bunDB.ResetModel(context.Background(), (*models.Table)(nil)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	return table.NewService(bunDB, nil, time.Minute, logger.NewSilentLogger())
}

func TestCreateTableMintsScanCode(t *testing.T) {
	svc := setupService(t)

	created, err := svc.CreateTable(context.Background(), "rest-1", 7)
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.ScanCode)
	assert.Equal(t, 7, created.Number)

	other, err := svc.CreateTable(context.Background(), "rest-1", 8)
	assert.NoError(t, err)
	assert.NotEqual(t, created.ScanCode, other.ScanCode)

	_, err = svc.CreateTable(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestListTablesOrderedByNumber(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for _, n := range []int{3, 1, 2} {
		_, err := svc.CreateTable(ctx, "rest-1", n)
		assert.NoError(t, err)
	}
	_, err := svc.CreateTable(ctx, "rest-other", 9)
	assert.NoError(t, err)

	tables, err := svc.ListTables(ctx, "rest-1")
	assert.NoError(t, err)
	assert.Len(t, tables, 3)
	assert.Equal(t, 1, tables[0].Number)
	assert.Equal(t, 2, tables[1].Number)
	assert.Equal(t, 3, tables[2].Number)
}

func TestResolveScanCode(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateTable(ctx, "rest-1", 4)
	assert.NoError(t, err)

	resolved, err := svc.ResolveScanCode(ctx, created.ScanCode)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
	assert.Equal(t, "rest-1", resolved.RestaurantID)

	_, err = svc.ResolveScanCode(ctx, "not-a-code")
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	_, err = svc.ResolveScanCode(ctx, "")
	assert.ErrorIs(t, err, table.ErrTableNotFound)
}

func TestScanURL(t *testing.T) {
	tbl := models.Table{ScanCode: "abc123"}
	assert.Equal(t, "https://eat.example.com/scan/abc123", table.ScanURL(tbl, "https://eat.example.com"))
}

func TestTableQRProducesPNG(t *testing.T) {
	tbl := models.Table{ScanCode: "abc123"}

	png, err := table.TableQR(tbl, "https://eat.example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, pngHeader), "QR output should be a PNG image")
}
