package excel

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildTemplate assembles a minimal audit template in memory: a summary
// sheet plus the photo-template sheet with a bit of content to clone.
func buildTemplate(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "내역서"))
	require.NoError(t, f.SetCellValue("내역서", "B2", "산업안전보건관리비 사용내역서"))

	_, err := f.NewSheet("사진대지")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("사진대지", "B2", "증빙 사진"))
	require.NoError(t, f.MergeCell("사진대지", "B2", "H2"))
	require.NoError(t, f.SetColWidth("사진대지", "B", "H", 14))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func testPhoto(t *testing.T, kind string, slot int) Photo {
	return Photo{Kind: kind, Slot: slot, Extension: ".png", Data: pngBytes(t)}
}

func TestExport(t *testing.T) {
	template := buildTemplate(t)
	usedAt := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	price := 12000.0
	amount := 240000.0

	items := []ExportItem{
		{
			ItemID:     "8e8f3c44-0000-0000-0000-000000000001",
			CategoryNo: 2,
			EvidenceNo: 1,
			ItemName:   "안전난간",
			Quantity:   20,
			UnitPrice:  &price,
			Amount:     &amount,
			UsedAt:     &usedAt,
			Inbound:    []Photo{testPhoto(t, "inbound", 1)},
			Install: []Photo{
				testPhoto(t, "install", 1),
				testPhoto(t, "install", 2),
				testPhoto(t, "install", 3),
			},
		},
		{
			ItemID:     "71a402dd-0000-0000-0000-000000000002",
			CategoryNo: 1,
			EvidenceNo: 1,
			ItemName:   "안전관리자 급여",
			Quantity:   1,
		},
	}

	out, err := Export(bytes.NewReader(template), items, DefaultExportLayout)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	// One cloned sheet per item; same evidence number in two categories
	// disambiguates with an item-id suffix.
	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "NO.1")
	assert.Contains(t, sheets, "NO.1-8e8f")

	// The photo template survives, hidden, for future re-exports.
	visible, err := f.GetSheetVisible("사진대지")
	require.NoError(t, err)
	assert.False(t, visible)

	// Items land at their category block rows, sorted by category.
	name, err := f.GetCellValue("내역서", "C8")
	require.NoError(t, err)
	assert.Equal(t, "안전관리자 급여", name)

	name, err = f.GetCellValue("내역서", "C16")
	require.NoError(t, err)
	assert.Equal(t, "안전난간", name)

	date, err := f.GetCellValue("내역서", "B16")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-03", date)

	evidence, err := f.GetCellValue("내역서", "G16")
	require.NoError(t, err)
	assert.Equal(t, "1", evidence)

	// Cloned sheet carries the template content and the photos.
	title, err := f.GetCellValue("NO.1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "증빙 사진", title)

	cells, err := f.GetPictureCells("NO.1")
	require.NoError(t, err)
	assert.Len(t, cells, 4, "one inbound plus three install photos")

	cells, err = f.GetPictureCells("NO.1-8e8f")
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestCloneSheetNameExtendsSuffixUntilFree(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	item := ExportItem{ItemID: "8e8f3c44-0000-0000-0000-000000000000", EvidenceNo: 1}
	_, err := f.NewSheet("NO.1")
	require.NoError(t, err)

	name := cloneSheetName(f, item)
	assert.Equal(t, "NO.1-8e8f", name)
	_, err = f.NewSheet(name)
	require.NoError(t, err)

	// An item sharing the first four id characters grows the suffix
	// instead of landing on the occupied sheet.
	twin := ExportItem{ItemID: "8e8f11aa-0000-0000-0000-000000000000", EvidenceNo: 1}
	name = cloneSheetName(f, twin)
	assert.Equal(t, "NO.1-8e8f1", name)
	_, err = f.NewSheet(name)
	require.NoError(t, err)

	// With every prefix length the 31-character name budget allows
	// already taken, the counter fallback still yields a free name.
	suffix := strings.ReplaceAll(item.ItemID, "-", "")
	for n := 5; n <= 26; n++ {
		_, err = f.NewSheet("NO.1-" + suffix[:n])
		require.NoError(t, err)
	}
	assert.Equal(t, "NO.1-8e8f.2", cloneSheetName(f, item))
}

func TestExportCapsInstallPhotos(t *testing.T) {
	template := buildTemplate(t)

	install := make([]Photo, 6)
	for i := range install {
		install[i] = testPhoto(t, "install", i+1)
	}
	items := []ExportItem{
		{
			ItemID:     "71a402dd-0000-0000-0000-000000000003",
			CategoryNo: 1,
			EvidenceNo: 1,
			ItemName:   "안전모",
			Quantity:   10,
			Install:    install,
		},
	}

	out, err := Export(bytes.NewReader(template), items, DefaultExportLayout)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetPictureCells("NO.1")
	require.NoError(t, err)
	assert.Len(t, cells, 4, "photos beyond the cap are dropped")
}

func TestExportMissingPhotoSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	_, err := Export(bytes.NewReader(buf.Bytes()), nil, DefaultExportLayout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing photo sheet")
}

func TestExportUnknownCategoryRow(t *testing.T) {
	template := buildTemplate(t)
	items := []ExportItem{
		{ItemID: "x", CategoryNo: 99, EvidenceNo: 1, ItemName: "기타", Quantity: 1},
	}

	_, err := Export(bytes.NewReader(template), items, DefaultExportLayout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no start row configured")
}

func TestExportEmptyDocument(t *testing.T) {
	template := buildTemplate(t)

	out, err := Export(bytes.NewReader(template), nil, DefaultExportLayout)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 2, "just the template sheets")
}
