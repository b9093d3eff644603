package excel

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Photo is one evidence image ready for placement, with its bytes
// already fetched from object storage.
type Photo struct {
	Kind      string // "inbound" or "install"
	Slot      int
	Extension string // ".png" or ".jpg"
	Data      []byte
}

// ExportItem is one line item to inject into the template, together
// with its photos grouped by kind.
type ExportItem struct {
	ItemID     string // used only to disambiguate clone-sheet names
	CategoryNo int
	EvidenceNo int
	ItemName   string
	Quantity   float64
	UnitPrice  *float64
	Amount     *float64
	UsedAt     *time.Time
	Inbound    []Photo
	Install    []Photo
}

// ExportLayout pins down where the template expects things. It is
// injected rather than read from ambient configuration so tests can
// run against fixture templates.
type ExportLayout struct {
	// PhotoSheet names the photo-template worksheet to clone per item.
	PhotoSheet string

	// CategoryStartRows maps a category number to the first item row of
	// its block on the summary sheet.
	CategoryStartRows map[int]int

	// InboundBlock and InstallBlock are the photo areas on the cloned
	// photo sheet for the two evidence kinds.
	InboundBlock CellRange
	InstallBlock CellRange
}

// DefaultExportLayout matches the audit-submission template shipped
// with the service.
var DefaultExportLayout = ExportLayout{
	PhotoSheet: "사진대지",
	CategoryStartRows: map[int]int{
		1: 8,
		2: 16,
		3: 26,
		4: 36,
		5: 42,
		6: 48,
		7: 54,
		8: 60,
	},
	InboundBlock: CellRange{TopLeft: "B4", BottomRight: "H16"},
	InstallBlock: CellRange{TopLeft: "B19", BottomRight: "H31"},
}

// Fixed columns of the summary sheet's item rows.
const (
	colUsedAt     = 2 // B
	colItemName   = 3 // C
	colQuantity   = 4 // D
	colUnitPrice  = 5 // E
	colAmount     = 6 // F
	colEvidenceNo = 7 // G
)

// Export produces the audit workbook: items injected into the template's
// first sheet at category-specific rows, plus one cloned photo sheet per
// item named "NO.{evidence}". The photo-template sheet is kept but made
// very hidden so re-exports of the output still carry it.
//
// Any malformed template or photo placement problem aborts the whole
// export; a partial workbook is never returned.
func Export(template io.Reader, items []ExportItem, layout ExportLayout) ([]byte, error) {
	f, err := excelize.OpenReader(template)
	if err != nil {
		return nil, fmt.Errorf("unreadable export template: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export template has no sheets")
	}
	summarySheet := sheets[0]

	photoIdx, err := f.GetSheetIndex(layout.PhotoSheet)
	if err != nil || photoIdx < 0 {
		return nil, fmt.Errorf("export template is missing photo sheet %q", layout.PhotoSheet)
	}

	photoSpec, err := captureSheet(f, layout.PhotoSheet)
	if err != nil {
		return nil, err
	}

	sorted := make([]ExportItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CategoryNo != sorted[j].CategoryNo {
			return sorted[i].CategoryNo < sorted[j].CategoryNo
		}
		return sorted[i].EvidenceNo < sorted[j].EvidenceNo
	})

	perCategory := make(map[int]int)
	for _, item := range sorted {
		if err := writeItemRow(f, summarySheet, item, layout, perCategory[item.CategoryNo]); err != nil {
			return nil, err
		}
		perCategory[item.CategoryNo]++

		if err := clonePhotoSheet(f, photoSpec, item, layout); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetVisible(layout.PhotoSheet, false, true); err != nil {
		return nil, fmt.Errorf("hide photo sheet: %w", err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeItemRow injects one item at its category block's next row.
func writeItemRow(f *excelize.File, sheet string, item ExportItem, layout ExportLayout, offset int) error {
	start, ok := layout.CategoryStartRows[item.CategoryNo]
	if !ok {
		return fmt.Errorf("no start row configured for category %d", item.CategoryNo)
	}
	row := start + offset

	cells := map[int]any{
		colItemName:   item.ItemName,
		colQuantity:   item.Quantity,
		colEvidenceNo: item.EvidenceNo,
	}
	if item.UsedAt != nil {
		cells[colUsedAt] = item.UsedAt.Format("2006-01-02")
	}
	if item.UnitPrice != nil {
		cells[colUnitPrice] = *item.UnitPrice
	}
	if item.Amount != nil {
		cells[colAmount] = *item.Amount
	}

	for col, value := range cells {
		name, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, name, value); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, name, err)
		}
	}
	return nil
}

// clonePhotoSheet creates the item's photo sheet from the captured
// template spec and places its photos.
func clonePhotoSheet(f *excelize.File, spec *sheetSpec, item ExportItem, layout ExportLayout) error {
	name := cloneSheetName(f, item)

	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create photo sheet %q: %w", name, err)
	}
	if err := spec.applyTo(f, name); err != nil {
		return err
	}

	if err := placePhotos(f, name, layout.InboundBlock, item.Inbound); err != nil {
		return err
	}
	return placePhotos(f, name, layout.InstallBlock, item.Install)
}

// Worksheet names may be at most 31 characters.
const maxSheetNameLen = 31

// cloneSheetName is "NO.{evidence}", with an item-id suffix when two
// categories produce the same evidence number. The suffix grows until
// the name is free; identical prefixes fall back to a counter.
func cloneSheetName(f *excelize.File, item ExportItem) string {
	base := fmt.Sprintf("NO.%d", item.EvidenceNo)
	if !sheetExists(f, base) {
		return base
	}

	suffix := strings.ReplaceAll(item.ItemID, "-", "")
	for n := 4; n <= len(suffix) && len(base)+1+n <= maxSheetNameLen; n++ {
		name := fmt.Sprintf("%s-%s", base, suffix[:n])
		if !sheetExists(f, name) {
			return name
		}
	}

	short := suffix
	if len(short) > 4 {
		short = short[:4]
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s-%s.%d", base, short, i)
		if !sheetExists(f, name) {
			return name
		}
	}
}

func sheetExists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// placePhotos lays min(len(photos), 4) images into the block using the
// count-dependent range split. Photos beyond the cap are dropped.
func placePhotos(f *excelize.File, sheet string, block CellRange, photos []Photo) error {
	if len(photos) == 0 {
		return nil
	}

	n := len(photos)
	if n > maxPhotosPerBlock {
		n = maxPhotosPerBlock
	}

	ranges, err := PlacementRanges(block, n)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		photo := photos[i]
		ext := photo.Extension
		if ext != ".png" {
			ext = ".jpg"
		}
		err := f.AddPictureFromBytes(sheet, ranges[i].TopLeft, &excelize.Picture{
			Extension: ext,
			File:      photo.Data,
			Format: &excelize.GraphicOptions{
				AutoFit:         true,
				LockAspectRatio: true,
			},
		})
		if err != nil {
			return fmt.Errorf("place %s photo %d on %q: %w", photo.Kind, photo.Slot, sheet, err)
		}
	}
	return nil
}
