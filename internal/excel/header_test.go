package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeaderBelowTitleBlock(t *testing.T) {
	// Site workbooks carry a title block and approval stamps above the
	// item table; the header itself sits several rows down.
	g := Grid{
		{"산업안전보건관리비 사용내역서"},
		{},
		{"현장명", "OO물류센터 신축공사"},
		{"공사기간", "2025.01 ~ 2025.12"},
		{},
		{"번호", "일자", "품명", "수량", "단가", "금액"},
		{"1", "25.07.01", "안전모", "10", "15,000", "150,000"},
	}

	info, err := DetectHeader(g, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, info.Row)
	assert.Equal(t, 2, info.Columns[FieldItemName])
	assert.Equal(t, 3, info.Columns[FieldQuantity])
	assert.Equal(t, 1, info.Columns[FieldUsedAt])
	assert.Equal(t, 4, info.Columns[FieldUnitPrice])
	assert.Equal(t, 5, info.Columns[FieldAmount])
	assert.Equal(t, 0, info.Columns[FieldSequence])
}

func TestDetectHeaderFirstMatchPerField(t *testing.T) {
	// Both 항목 and 사용내역 are item-name synonyms; the leftmost column
	// wins and the later one stays unmapped for that field.
	g := Grid{
		{"번호", "항목", "사용내역", "수량", "단가", "금액"},
	}

	info, err := DetectHeader(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Row)
	assert.Equal(t, 1, info.Columns[FieldItemName])
	assert.Equal(t, 3, info.Columns[FieldQuantity])
}

func TestDetectHeaderDecoratedCells(t *testing.T) {
	g := Grid{
		{"순 번", "품 명", "수량(EA)", "단가(원)", "금액(원)"},
	}

	info, err := DetectHeader(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Columns[FieldItemName])
	assert.Equal(t, 2, info.Columns[FieldQuantity])
}

func TestDetectHeaderHighestScoreWins(t *testing.T) {
	// A title row mentioning 내역 scores on the item-name rule alone; the
	// real header row outranks it.
	g := Grid{
		{"사용내역"},
		{},
		{"품명", "수량", "금액"},
	}

	info, err := DetectHeader(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Row)
}

func TestDetectHeaderErrors(t *testing.T) {
	t.Run("no candidate rows", func(t *testing.T) {
		g := Grid{
			{"아무 관련 없는 내용"},
			{"1", "2", "3"},
		}
		_, err := DetectHeader(g, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no header row")
	})

	t.Run("missing quantity column", func(t *testing.T) {
		g := Grid{
			{"번호", "품명", "단가", "금액"},
		}
		_, err := DetectHeader(g, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required column")
		assert.Contains(t, err.Error(), "quantity")
	})

	t.Run("empty grid", func(t *testing.T) {
		_, err := DetectHeader(Grid{}, nil)
		require.Error(t, err)
	})
}

func TestDetectHeaderCustomRules(t *testing.T) {
	rules := []HeaderRule{
		{Field: FieldItemName, Weight: 5, Synonyms: []string{"description"}},
		{Field: FieldQuantity, Weight: 4, Synonyms: []string{"count"}},
	}
	g := Grid{
		{"Description", "Count"},
	}

	info, err := DetectHeader(g, rules)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Columns[FieldItemName])
	assert.Equal(t, 1, info.Columns[FieldQuantity])
}
