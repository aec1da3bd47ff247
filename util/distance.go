package util

// matrix represents a 2 dimensional matrix.
type matrix struct {
	nRow, nCol int
	data       []int // row-major nRow*nCol array.
}

func newMatrix(n, m int) matrix {
	return matrix{
		nRow: n,
		nCol: m,
		data: make([]int, n*m),
	}
}

// computeCell computes the cell (i, j) in a Levenshtein matrix.
func (m matrix) computeCell(i, j int, r1, r2 []byte) {
	if i == 0 {
		m.data[j] = j
		return
	}
	if j == 0 {
		m.data[i*m.nCol] = i
		return
	}
	if r1[i-1] == r2[j-1] {
		m.data[i*m.nCol+j] = m.data[(i-1)*m.nCol+(j-1)]
		return
	}

	downValue := m.data[(i-1)*m.nCol+j] + 1
	diagonalValue := m.data[(i-1)*m.nCol+(j-1)] + 1
	rightValue := m.data[i*m.nCol+(j-1)] + 1

	minValue := downValue
	if diagonalValue < minValue {
		minValue = diagonalValue
	}
	if rightValue < minValue {
		minValue = rightValue
	}
	m.data[i*m.nCol+j] = minValue
}

// Levenshtein computes the Levenshtein distance between two sequences: the
// number of insertions, deletions, and substitutions it takes to transform
// s1 into s2, each costing one distance point. It is used to measure how
// far a read is from the sequence it was drawn from.
func Levenshtein(s1, s2 []byte) int {
	m := newMatrix(len(s1)+1, len(s2)+1)
	for i := 0; i <= len(s1); i++ {
		for j := 0; j <= len(s2); j++ {
			m.computeCell(i, j, s1, s2)
		}
	}
	return m.data[len(s1)*m.nCol+len(s2)]
}
