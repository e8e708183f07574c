package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/notargets/gocdo/geometry2D"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
)

/*
ReadSU2 reads a 2D triangular mesh in SU2 format. Boundary markers are
collapsed into the mesh's boundary vertex list; the per marker edges are
returned separately for callers that impose marker specific values.
*/
func ReadSU2(filename string, verbose bool) (tm *geometry2D.TriMesh, BCEdges map[string][][2]int, err error) {
	var (
		file   *os.File
		reader *bufio.Reader
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, nil, fmt.Errorf("unable to open file %s: %v", filename, err)
	}
	defer file.Close()
	reader = bufio.NewReader(file)

	defer func() {
		// The parse helpers panic on malformed lines, translate to an error
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to parse %s: %v", filename, r)
			tm, BCEdges = nil, nil
		}
	}()

	dim := readNumber(reader)
	if dim != 2 {
		return nil, nil, fmt.Errorf("file %s holds %d dimensional data, 2D expected", filename, dim)
	}
	tm = &geometry2D.TriMesh{}
	tm.K, tm.EToV = readElements(reader)
	tm.VX, tm.VY = readVertices(reader)
	tm.NVerts = len(tm.VX)
	BCEdges = readBCs(reader)

	// Every vertex on a marked edge is a boundary vertex
	onBoundary := make(map[int]bool)
	for _, edges := range BCEdges {
		for _, e := range edges {
			onBoundary[e[0]] = true
			onBoundary[e[1]] = true
		}
	}
	for v := range onBoundary {
		tm.BCVerts = append(tm.BCVerts, v)
	}
	sort.Ints(tm.BCVerts)
	return
}

func readElements(reader *bufio.Reader) (K int, EToV [][3]int) {
	var (
		nType      int
		v1, v2, v3 int
		err        error
	)
	K = readNumber(reader)
	EToV = make([][3]int, K)
	for k := 0; k < K; k++ {
		line := getLine(reader)
		if _, err = fmt.Sscanf(line, "%d %d %d %d", &nType, &v1, &v2, &v3); err != nil {
			panic(err)
		}
		if SU2ElementType(nType) != ELType_Triangle {
			panic(fmt.Errorf("element %d has type %d, only triangles are supported", k, nType))
		}
		EToV[k] = [3]int{v1, v2, v3}
	}
	return
}

func readVertices(reader *bufio.Reader) (VX, VY []float64) {
	var (
		x, y float64
		err  error
	)
	Nv := readNumber(reader)
	VX, VY = make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		line := getLine(reader)
		if _, err = fmt.Sscanf(line, "%f %f", &x, &y); err != nil {
			panic(err)
		}
		VX[i], VY[i] = x, y
	}
	return
}

func readBCs(reader *bufio.Reader) (BCEdges map[string][][2]int) {
	var (
		nType  int
		v1, v2 int
		err    error
	)
	NBCs := readNumber(reader)
	BCEdges = make(map[string][][2]int, NBCs)
	for n := 0; n < NBCs; n++ {
		label := readLabel(reader)
		nEdges := readNumber(reader)
		for i := 0; i < nEdges; i++ {
			line := getLine(reader)
			if _, err = fmt.Sscanf(line, "%d %d %d", &nType, &v1, &v2); err != nil {
				panic(err)
			}
			if SU2ElementType(nType) != ELType_LINE {
				panic("BCs should only contain line elements in 2D")
			}
			// Duplicate marker sections append to the same slice
			BCEdges[label] = append(BCEdges[label], [2]int{v1, v2})
		}
	}
	return
}

func getToken(reader *bufio.Reader) (token string) {
	line := getLineNoComments(reader)
	ind := strings.Index(line, "=")
	if ind < 0 {
		panic(fmt.Errorf("badly formed input line [%s], should have an =", line))
	}
	token = line[ind+1:]
	return
}

func readLabel(reader *bufio.Reader) (label string) {
	token := getToken(reader)
	if _, err := fmt.Sscanf(token, "%s", &label); err != nil {
		panic(fmt.Errorf("unable to read label from token: [%s]", token))
	}
	label = strings.Trim(label, " ")
	return
}

func readNumber(reader *bufio.Reader) (num int) {
	token := getToken(reader)
	if _, err := fmt.Sscanf(token, "%d", &num); err != nil {
		panic(fmt.Errorf("unable to read number from token: [%s]", token))
	}
	return
}

func getLineNoComments(reader *bufio.Reader) (line string) {
	for {
		line = strings.Trim(getLine(reader), " ")
		ind := strings.Index(line, "%")
		if ind != 0 {
			return
		}
	}
}

func getLine(reader *bufio.Reader) (line string) {
	var err error
	if line, err = reader.ReadString('\n'); err != nil {
		if !(err == io.EOF && len(line) != 0) {
			panic(err)
		}
	}
	line = strings.TrimRight(line, "\n\r ")
	return
}
