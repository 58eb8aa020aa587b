package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gardenjournal/internal/googletest"
)

func TestReadTablePadsShortRows(t *testing.T) {
	fake := googletest.NewSheets(t)
	fake.SetTab("학생명단",
		[]string{"학번", " 이름 "},
		[]string{"123", "Kim"},
		[]string{"456"},
	)
	c := New(fake.Service(t), "sheet-id")

	table, err := c.ReadTable(context.Background(), "학생명단")
	require.NoError(t, err)
	assert.Equal(t, []string{"학번", "이름"}, table.Header)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"456", ""}, table.Rows[1])

	recs := table.Records()
	assert.Equal(t, "Kim", recs[0]["이름"])
	assert.Equal(t, "", recs[1]["이름"])
}

func TestReadTableEmpty(t *testing.T) {
	fake := googletest.NewSheets(t)
	c := New(fake.Service(t), "sheet-id")

	table, err := c.ReadTable(context.Background(), "기록")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Records())
}

func TestHeaderAndAppend(t *testing.T) {
	fake := googletest.NewSheets(t)
	fake.SetTab("기록", []string{"기록ID", "사진링크"}, []string{"a", "b"})
	c := New(fake.Service(t), "sheet-id")

	header, err := c.Header(context.Background(), "기록")
	require.NoError(t, err)
	assert.Equal(t, []string{"기록ID", "사진링크"}, header)

	require.NoError(t, c.AppendRow(context.Background(), "기록", []interface{}{"x1", "https://example.com/p"}))
	assert.Equal(t, 1, fake.Appends())

	rows := fake.Tab("기록")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"x1", "https://example.com/p"}, rows[2])
}

func TestAppendKeepsCellTypes(t *testing.T) {
	fake := googletest.NewSheets(t)
	fake.SetTab("기록", []string{"학번", "식물키(cm)", "잎개수"})
	c := New(fake.Service(t), "sheet-id")

	require.NoError(t, c.AppendRow(context.Background(), "기록", []interface{}{"0123", 12.5, 7}))

	sent := fake.Appended()
	require.Len(t, sent, 1)
	require.Len(t, sent[0], 3)
	assert.IsType(t, "", sent[0][0], "ids are sent as text")
	assert.Equal(t, "0123", sent[0][0])
	assert.IsType(t, float64(0), sent[0][1])
	assert.Equal(t, 12.5, sent[0][1])
	assert.IsType(t, float64(0), sent[0][2])
	assert.Equal(t, float64(7), sent[0][2])

	assert.Equal(t, []string{"0123", "12.5", "7"}, fake.Tab("기록")[1])
}

func TestErrorsAreWrapped(t *testing.T) {
	fake := googletest.NewSheets(t)
	fake.SetFailing(true)
	c := New(fake.Service(t), "sheet-id")

	_, err := c.ReadTable(context.Background(), "기록")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets: read 기록")

	err = c.AppendRow(context.Background(), "기록", []interface{}{"x"})
	assert.Error(t, err)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'기록'", quoteTab("기록"))
	assert.Equal(t, "'Kim''s tab'", quoteTab("Kim's tab"))
}
