package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// CellRange is a rectangular block of cells on the photo sheet.
type CellRange struct {
	TopLeft     string
	BottomRight string
}

// maxPhotosPerBlock is the placement-stage cap per photo kind. Photos
// beyond this are dropped at export time rather than failing the export.
const maxPhotosPerBlock = 4

// PlacementRanges splits a photo block into the sub-ranges for n images:
//
//	1 photo  - the full block
//	2 photos - left half / right half
//	3 photos - full-width top half, then two bottom halves
//	4 photos - a 2x2 grid
//
// n is clamped to [1, maxPhotosPerBlock].
func PlacementRanges(block CellRange, n int) ([]CellRange, error) {
	if n < 1 {
		n = 1
	}
	if n > maxPhotosPerBlock {
		n = maxPhotosPerBlock
	}

	c1, r1, err := excelize.CellNameToCoordinates(block.TopLeft)
	if err != nil {
		return nil, fmt.Errorf("photo block %q: %w", block.TopLeft, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(block.BottomRight)
	if err != nil {
		return nil, fmt.Errorf("photo block %q: %w", block.BottomRight, err)
	}
	if c2 < c1 || r2 < r1 {
		return nil, fmt.Errorf("photo block %s:%s is inverted", block.TopLeft, block.BottomRight)
	}

	midCol := c1 + (c2-c1)/2
	midRow := r1 + (r2-r1)/2

	var quads [][4]int
	switch n {
	case 1:
		quads = [][4]int{{c1, r1, c2, r2}}
	case 2:
		quads = [][4]int{
			{c1, r1, midCol, r2},
			{midCol + 1, r1, c2, r2},
		}
	case 3:
		quads = [][4]int{
			{c1, r1, c2, midRow},
			{c1, midRow + 1, midCol, r2},
			{midCol + 1, midRow + 1, c2, r2},
		}
	case 4:
		quads = [][4]int{
			{c1, r1, midCol, midRow},
			{midCol + 1, r1, c2, midRow},
			{c1, midRow + 1, midCol, r2},
			{midCol + 1, midRow + 1, c2, r2},
		}
	}

	ranges := make([]CellRange, 0, len(quads))
	for _, q := range quads {
		tl, err := excelize.CoordinatesToCellName(q[0], q[1])
		if err != nil {
			return nil, err
		}
		br, err := excelize.CoordinatesToCellName(q[2], q[3])
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, CellRange{TopLeft: tl, BottomRight: br})
	}
	return ranges, nil
}
