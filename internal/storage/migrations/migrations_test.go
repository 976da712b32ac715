package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations_SortedAndSkipsBlank(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":    {Data: []byte("CREATE TABLE b (id INT);")},
		"pg/001_a.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
		"pg/003_none.sql": {Data: []byte("  \n")},
		"pg/README.md":    {Data: []byte("ignored")},
	}

	files, err := readMigrations(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_a", files[0].Version)
	assert.Equal(t, "002_b", files[1].Version)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	pg, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_mint_registry", pg[0].Version)
	assert.Contains(t, pg[0].SQL, "monitor_locks")
	assert.Contains(t, pg[1].SQL, "trade_events")

	ch, err := readMigrations(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)
	assert.Len(t, splitStatements(ch[0].SQL), 1)
	assert.NoError(t, validateNoSemicolonInStrings(ch[0].SQL))
}

func TestSplitStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (x UInt8);

-- second
CREATE TABLE b (y UInt8);
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt8)", stmts[1])
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'it''s'; SELECT 1;`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b';`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/solbot")
	require.NoError(t, err)
	assert.Equal(t, "solbot", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
